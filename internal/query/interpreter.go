// Package query turns raw user text into a structured weather query,
// preferring the LLM and falling back to rule-based extraction.
package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/hualin/feishu-weather-bot/internal/llm"
)

// StructuredQuery is the interpreter's output. City may be empty, which
// signals that no city could be resolved; OriginalText always equals the
// source message text.
type StructuredQuery struct {
	City              string   `json:"city"`
	IntentCategories  []string `json:"query_type"`
	NeedsTravelAdvice bool     `json:"need_travel_advice"`
	OriginalText      string   `json:"original_query"`
}

const systemPrompt = `你是一个天气查询助手。
请分析用户的查询，提取以下信息：
1. 城市名称
2. 查询意图（天气、温度、降水等）
3. 是否询问出行建议

请用 JSON 格式返回，格式如下：
{
    "city": "城市名称",
    "query_type": ["天气", "温度", ...],
    "need_travel_advice": true/false,
    "original_query": "原始查询"
}`

const interpretMaxTokens = 150

// Interpreter extracts structured queries from free text. A nil Completer
// disables the AI path entirely and every query goes through the heuristic.
type Interpreter struct {
	completer llm.Completer
	log       *slog.Logger
}

// NewInterpreter constructs an Interpreter.
func NewInterpreter(completer llm.Completer, log *slog.Logger) *Interpreter {
	return &Interpreter{completer: completer, log: log}
}

// Interpret never fails: if the completion call errors or returns something
// unparseable, the rule-based extraction takes over.
func (i *Interpreter) Interpret(ctx context.Context, text string) StructuredQuery {
	if i.completer == nil {
		return i.heuristic(text)
	}

	raw, err := i.completer.Complete(ctx, systemPrompt, text, interpretMaxTokens)
	if err != nil {
		i.log.Warn("query interpretation via LLM failed", "err", err)
		return i.heuristic(text)
	}

	var q StructuredQuery
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		i.log.Warn("unparseable LLM interpretation", "response", raw, "err", err)
		return i.heuristic(text)
	}

	// Model output is untrusted: missing keys decode to zero values, which
	// is exactly the contract (empty city means unresolved). The original
	// text is ours, not the model's, to echo.
	q.OriginalText = text
	if len(q.IntentCategories) == 0 {
		q.IntentCategories = []string{"天气"}
	}
	return q
}

// boilerplate lists the question fragments stripped when approximating a
// city name without the LLM.
var boilerplate = []string{
	"天气", "查询", "告诉我", "怎么样", "如何", "查一下", "今天", "现在",
}

func (i *Interpreter) heuristic(text string) StructuredQuery {
	city := text
	for _, word := range boilerplate {
		city = strings.ReplaceAll(city, word, "")
	}
	city = strings.Trim(city, " ，。！？,.!?")

	return StructuredQuery{
		City:              city,
		IntentCategories:  []string{"天气"},
		NeedsTravelAdvice: strings.Contains(text, "出行") || strings.Contains(text, "适合"),
		OriginalText:      text,
	}
}

// stripCodeFence removes a surrounding markdown fence, which chat models
// wrap around JSON despite instructions not to.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
