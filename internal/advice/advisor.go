// Package advice generates short travel recommendations from weather data.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hualin/feishu-weather-bot/internal/llm"
	"github.com/hualin/feishu-weather-bot/internal/weather"
)

const systemPrompt = `你是一个天气分析助手。
请根据提供的天气数据，分析今天是否适合出行，并给出建议。
考虑以下因素：
1. 温度是否适宜
2. 是否有降水
3. 风速是否适宜
4. 其他可能影响出行的天气因素

请用简洁友好的语气回复。`

// FallbackText is returned whenever the recommendation cannot be generated.
const FallbackText = "抱歉，我在分析天气数据时遇到了问题。"

const adviceMaxTokens = 200

// Advisor asks the LLM for a travel recommendation.
type Advisor struct {
	completer llm.Completer
	log       *slog.Logger
}

// NewAdvisor constructs an Advisor.
func NewAdvisor(completer llm.Completer, log *slog.Logger) *Advisor {
	return &Advisor{completer: completer, log: log}
}

// Generate returns a travel recommendation for the snapshot, or FallbackText
// on any failure. Callers only invoke it for error-free snapshots.
func (a *Advisor) Generate(ctx context.Context, snap weather.Snapshot) string {
	if a.completer == nil {
		return FallbackText
	}

	data, err := json.Marshal(snap)
	if err != nil {
		a.log.Error("marshaling snapshot for advice failed", "err", err)
		return FallbackText
	}

	text, err := a.completer.Complete(ctx,
		systemPrompt,
		fmt.Sprintf("请分析这些天气数据，告诉我是否适合出行：%s", data),
		adviceMaxTokens,
	)
	if err != nil {
		a.log.Warn("travel advice generation failed", "city", snap.City, "err", err)
		return FallbackText
	}

	return text
}
