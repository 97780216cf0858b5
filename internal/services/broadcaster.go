package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Broadcaster periodically posts a fixed notice to a static list of chats.
type Broadcaster struct {
	Sender  MessageSender
	ChatIDs []int64
	Text    string

	// Schedule: first run after FirstDelay, then every Interval.
	FirstDelay time.Duration
	Interval   time.Duration

	Log zerolog.Logger
}

// Run blocks until ctx is done, broadcasting on schedule. A non-positive
// Interval runs the first broadcast only.
func (b *Broadcaster) Run(ctx context.Context) {
	b.Log.Info().
		Int("chats", len(b.ChatIDs)).
		Dur("first_delay", b.FirstDelay).
		Dur("interval", b.Interval).
		Msg("broadcast scheduled")

	first := time.NewTimer(b.FirstDelay)
	defer first.Stop()
	select {
	case <-ctx.Done():
		return
	case <-first.C:
	}
	b.Broadcast(ctx)

	if b.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Broadcast(ctx)
		}
	}
}

// Broadcast sends the notice to every chat once and returns how many sends
// succeeded. A failed chat is skipped silently; the others still receive it.
func (b *Broadcaster) Broadcast(ctx context.Context) int {
	tr := otel.Tracer("services/Broadcaster")
	ctx, span := tr.Start(ctx, "Broadcast",
		trace.WithAttributes(attribute.Int("chats", len(b.ChatIDs))),
	)
	defer span.End()

	sent := 0
	for _, id := range b.ChatIDs {
		if err := b.Sender.SendMessage(ctx, id, b.Text); err != nil {
			// Not logged; the span and the counter are the only record.
			span.RecordError(&PlatformError{Op: OpBroadcast, Err: err},
				trace.WithAttributes(attribute.Int64("chat.id", id)))
			broadcastSends.WithLabelValues(resultError).Inc()
			continue
		}
		broadcastSends.WithLabelValues(resultOK).Inc()
		sent++
	}
	span.SetAttributes(attribute.Int("sent", sent))
	return sent
}
