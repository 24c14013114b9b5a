package query_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hualin/feishu-weather-bot/internal/query"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return m.completeFn(ctx, systemPrompt, userPrompt, maxTokens)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInterpret_LLMPath(t *testing.T) {
	c := &mockCompleter{
		completeFn: func(_ context.Context, _, userPrompt string, _ int) (string, error) {
			assert.Equal(t, "上海明天适合出行吗", userPrompt)
			return `{"city": "上海", "query_type": ["天气", "出行"], "need_travel_advice": true, "original_query": "model echo"}`, nil
		},
	}

	q := query.NewInterpreter(c, discardLogger()).Interpret(context.Background(), "上海明天适合出行吗")

	assert.Equal(t, "上海", q.City)
	assert.True(t, q.NeedsTravelAdvice)
	assert.Equal(t, []string{"天气", "出行"}, q.IntentCategories)
	assert.Equal(t, "上海明天适合出行吗", q.OriginalText, "original text is never taken from the model")
}

func TestInterpret_LLMResponseInCodeFence(t *testing.T) {
	c := &mockCompleter{
		completeFn: func(context.Context, string, string, int) (string, error) {
			return "```json\n{\"city\": \"北京\", \"need_travel_advice\": false}\n```", nil
		},
	}

	q := query.NewInterpreter(c, discardLogger()).Interpret(context.Background(), "北京天气")

	assert.Equal(t, "北京", q.City)
	assert.Equal(t, []string{"天气"}, q.IntentCategories, "missing categories default to weather")
}

func TestInterpret_MissingCityKeyIsEmptyString(t *testing.T) {
	c := &mockCompleter{
		completeFn: func(context.Context, string, string, int) (string, error) {
			return `{"query_type": ["天气"]}`, nil
		},
	}

	q := query.NewInterpreter(c, discardLogger()).Interpret(context.Background(), "天气怎么样")

	assert.Empty(t, q.City)
	assert.Equal(t, "天气怎么样", q.OriginalText)
}

func TestInterpret_LLMErrorFallsBackToHeuristic(t *testing.T) {
	c := &mockCompleter{
		completeFn: func(context.Context, string, string, int) (string, error) {
			return "", errors.New("provider down")
		},
	}

	q := query.NewInterpreter(c, discardLogger()).Interpret(context.Background(), "北京天气怎么样")

	assert.Equal(t, "北京", q.City)
	assert.False(t, q.NeedsTravelAdvice)
	assert.Equal(t, []string{"天气"}, q.IntentCategories)
	assert.Equal(t, "北京天气怎么样", q.OriginalText)
}

func TestInterpret_UnparseableLLMOutputFallsBack(t *testing.T) {
	c := &mockCompleter{
		completeFn: func(context.Context, string, string, int) (string, error) {
			return "好的，我来帮你查询天气。", nil
		},
	}

	q := query.NewInterpreter(c, discardLogger()).Interpret(context.Background(), "查一下广州天气")

	require.NotEmpty(t, q.OriginalText)
	assert.Equal(t, "广州", q.City)
}

func TestInterpret_HeuristicTravelAdviceTriggers(t *testing.T) {
	interp := query.NewInterpreter(nil, discardLogger())

	q := interp.Interpret(context.Background(), "深圳天气适合出行吗")
	assert.True(t, q.NeedsTravelAdvice)

	q = interp.Interpret(context.Background(), "深圳天气")
	assert.False(t, q.NeedsTravelAdvice)
}

func TestInterpret_HeuristicWithAIDisabled(t *testing.T) {
	interp := query.NewInterpreter(nil, discardLogger())

	q := interp.Interpret(context.Background(), "北京天气怎么样")

	assert.Equal(t, "北京", q.City)
	assert.False(t, q.NeedsTravelAdvice)
	assert.Equal(t, "北京天气怎么样", q.OriginalText)
}

func TestInterpret_HeuristicUnresolvableCity(t *testing.T) {
	interp := query.NewInterpreter(nil, discardLogger())

	q := interp.Interpret(context.Background(), "今天天气怎么样？")

	assert.Empty(t, q.City, "pure boilerplate leaves no city")
}
