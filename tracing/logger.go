package tracing

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/sarchlab/actornet/sim"
	"github.com/sarchlab/actornet/sim/world"
)

// LevelTrace is a custom slog level below Debug. Every single delivery is
// logged at this level.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a level name to a slog.Level. Supported values are
// "trace", "debug", "info", "warn" and "error", in any case. Unknown values
// default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}

			return a
		},
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// LogTracer writes world events to a logger. Tick boundaries are logged at
// debug level, deliveries at trace level, drops at debug level and failures
// at warn level.
type LogTracer struct {
	logger *slog.Logger
}

// NewLogTracer creates a tracer that logs to logger.
func NewLogTracer(logger *slog.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// StartTick logs the start of a tick.
func (t *LogTracer) StartTick(tick uint64) {
	t.logger.Debug("tick started", "tick", tick)
}

// Deliver logs a delivered message.
func (t *LogTracer) Deliver(d world.Delivery) {
	t.logger.Log(context.Background(), LevelTrace, "message delivered",
		"tick", d.Tick,
		"from", d.From,
		"to", d.To,
		"edge", d.Msg.Edge,
		"port", d.Msg.Port,
		"kind", d.Msg.Payload().Kind(),
	)
}

// Drop logs a dropped message.
func (t *LogTracer) Drop(d world.Delivery) {
	t.logger.Debug("message dropped",
		"tick", d.Tick,
		"from", d.From,
		"edge", d.Msg.Edge,
		"reason", string(d.Reason),
	)
}

// Fail logs a failed run.
func (t *LogTracer) Fail(tick uint64, failure sim.ActorFailure) {
	t.logger.Warn("actor failed",
		"tick", tick,
		"actor", failure.Actor,
		"err", failure.Err,
	)
}

// EndTick logs the end of a tick.
func (t *LogTracer) EndTick(tick uint64, err error) {
	if err != nil {
		t.logger.Debug("tick finished with failures", "tick", tick)
		return
	}

	t.logger.Debug("tick finished", "tick", tick)
}
