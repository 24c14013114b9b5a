package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/hualin/feishu-weather-bot/internal/query"
	"github.com/hualin/feishu-weather-bot/internal/weather"
)

const (
	eventTypeMessageReceive = "im.message.receive_v1"
	eventTypeURLVerify      = "url_verification"
)

const helpText = `👋 你好！我是天气助手，可以帮你查询天气信息。
🌤️ 你可以这样问我：
• 北京天气怎么样？
• 上海今天冷不冷？
• 广州下雨吗？
• 查询深圳天气`

// Handlers holds the dependencies for the webhook and health endpoints.
type Handlers struct {
	interpreter QueryInterpreter
	fetcher     WeatherFetcher
	advisor     AdviceGenerator
	messenger   Messenger
	cache       SnapshotCache // nil disables caching
	verifyToken string        // empty disables handshake token checking
	log         *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
// cache may be nil; verifyToken may be empty.
func NewHandlers(interpreter QueryInterpreter, fetcher WeatherFetcher, advisor AdviceGenerator, messenger Messenger, cache SnapshotCache, verifyToken string, log *slog.Logger) *Handlers {
	return &Handlers{
		interpreter: interpreter,
		fetcher:     fetcher,
		advisor:     advisor,
		messenger:   messenger,
		cache:       cache,
		verifyToken: verifyToken,
		log:         log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// inboundEvent is the Feishu webhook envelope: either a URL-verification
// handshake (top-level fields) or an event callback (header + event).
type inboundEvent struct {
	Type      string `json:"type"`
	Token     string `json:"token"`
	Challenge string `json:"challenge"`

	Header struct {
		EventType string `json:"event_type"`
	} `json:"header"`
	Event struct {
		Message struct {
			MessageType string `json:"message_type"`
			Content     string `json:"content"`
			ChatID      string `json:"chat_id"`
		} `json:"message"`
		Sender struct {
			SenderID struct {
				OpenID string `json:"open_id"`
			} `json:"sender_id"`
		} `json:"sender"`
	} `json:"event"`
}

// Webhook handles POST /webhook. Handshakes are echoed back; text messages
// run the full interpret → fetch → advise → reply pipeline. The webhook call
// itself is acknowledged with a fixed success body no matter what happens
// downstream; only an unparseable top-level payload is surfaced as an error.
func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	var evt inboundEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		h.log.Error("unparseable webhook payload", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if evt.Type == eventTypeURLVerify {
		if h.verifyToken != "" && evt.Token != h.verifyToken {
			h.log.Warn("handshake with invalid verification token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid verification token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"challenge": evt.Challenge})
		return
	}

	if evt.Header.EventType == eventTypeMessageReceive && evt.Event.Message.MessageType == "text" {
		var content struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(evt.Event.Message.Content), &content); err != nil {
			h.log.Error("unparseable message content", "err", err)
		} else if err := h.processMessage(r.Context(), content.Text, evt.Event.Message.ChatID); err != nil {
			h.log.Error("processing message failed", "chat_id", evt.Event.Message.ChatID, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// processMessage runs the pipeline for one text message and sends exactly
// one reply to the originating chat.
func (h *Handlers) processMessage(ctx context.Context, text, chatID string) error {
	// The tenant token and the interpretation don't depend on each other.
	g, gCtx := errgroup.WithContext(ctx)

	var token string
	var q query.StructuredQuery
	g.Go(func() error {
		t, err := h.messenger.TenantToken(gCtx)
		if err != nil {
			return fmt.Errorf("fetching tenant token: %w", err)
		}
		token = t
		return nil
	})
	g.Go(func() error {
		q = h.interpreter.Interpret(gCtx, text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if q.City == "" {
		h.log.Info("no city resolved, replying with usage help", "text", text)
		return h.messenger.SendText(ctx, token, chatID, helpText)
	}

	snap := h.snapshot(ctx, q.City)
	if snap.Failed() {
		return h.messenger.SendText(ctx, token, chatID, "抱歉，"+snap.Err)
	}

	reply := fmt.Sprintf("%s的天气：\n温度：%s\n天气：%s\n湿度：%s\n风速：%s",
		snap.City, snap.Temperature, snap.Description, snap.Humidity, snap.WindSpeed)

	if q.NeedsTravelAdvice {
		reply += "\n\n出行建议：\n" + h.advisor.Generate(ctx, snap)
	}

	return h.messenger.SendText(ctx, token, chatID, reply)
}

// snapshot resolves a city through the cache when one is configured.
// Cache failures degrade to a direct fetch.
func (h *Handlers) snapshot(ctx context.Context, city string) weather.Snapshot {
	if h.cache == nil {
		return h.fetcher.Fetch(ctx, city)
	}

	cached, err := h.cache.Get(ctx, city)
	if err != nil {
		h.log.Warn("cache get failed", "city", city, "err", err)
	}
	if cached != nil {
		return *cached
	}

	snap := h.fetcher.Fetch(ctx, city)
	if err := h.cache.Set(ctx, city, snap); err != nil {
		h.log.Warn("cache set failed", "city", city, "err", err)
	}
	return snap
}

// Pinger is the connectivity probe for the optional Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc reporting liveness and,
// when caching is enabled, Redis connectivity. pinger may be nil.
func HealthHandlerFunc(pinger Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			return
		}

		if err := pinger.Ping(r.Context()); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "error"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redis": "ok"})
	}
}
