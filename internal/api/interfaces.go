package api

import (
	"context"

	"github.com/hualin/feishu-weather-bot/internal/query"
	"github.com/hualin/feishu-weather-bot/internal/weather"
)

// QueryInterpreter turns raw message text into a structured query.
type QueryInterpreter interface {
	Interpret(ctx context.Context, text string) query.StructuredQuery
}

// WeatherFetcher retrieves a snapshot for a city. Failures are reported
// inside the snapshot, never as a Go error.
type WeatherFetcher interface {
	Fetch(ctx context.Context, city string) weather.Snapshot
}

// AdviceGenerator produces a travel recommendation for an error-free snapshot.
type AdviceGenerator interface {
	Generate(ctx context.Context, snap weather.Snapshot) string
}

// Messenger covers the two Feishu calls the handler makes.
type Messenger interface {
	TenantToken(ctx context.Context) (string, error)
	SendText(ctx context.Context, token, chatID, text string) error
}

// SnapshotCache is the optional Redis-backed snapshot cache.
// Get returns nil, nil on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, city string) (*weather.Snapshot, error)
	Set(ctx context.Context, city string, snap weather.Snapshot) error
}
