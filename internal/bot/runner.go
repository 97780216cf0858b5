// Package bot runs the update loop: it pulls messages from a Source and
// hands each one to a handler, one at a time, in delivery order.
//
// Every message gets a correlation ID, attached to the context logger that
// handlers retrieve with zerolog.Ctx, and a panicking or failing handler is
// logged without stopping the loop.
package bot

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-guard/internal/domain"
)

// ErrSourceClosed is returned by Run when the source stops delivering
// messages while the context is still live.
var ErrSourceClosed = errors.New("message source closed")

// Source delivers inbound messages until ctx is done, then closes the
// channel. A nil message stands for an update that carried none.
type Source interface {
	Messages(ctx context.Context) <-chan *domain.Message
}

// HandlerFunc processes one message. A returned error is a defect, not an
// expected platform failure; it is logged and the loop continues.
type HandlerFunc func(ctx context.Context, msg *domain.Message) error

// Runner binds a handler to a source.
type Runner struct {
	source  Source
	handler HandlerFunc
	log     zerolog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(source Source, handler HandlerFunc, log zerolog.Logger) *Runner {
	return &Runner{source: source, handler: handler, log: log}
}

// Run dispatches messages until ctx is done (returns nil) or the source
// closes on its own (returns ErrSourceClosed).
func (r *Runner) Run(ctx context.Context) error {
	msgs := r.source.Messages(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSourceClosed
			}
			r.dispatch(ctx, msg)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, msg *domain.Message) {
	// The context logger carries only the correlation ID; handlers add the
	// message fields themselves.
	scoped := r.log.With().Str("correlation_id", uuid.NewString()).Logger()
	ctx = scoped.WithContext(ctx)

	lg := scoped
	if msg != nil {
		lg = lg.With().Int64("chat_id", msg.ChatID).Int("message_id", msg.ID).Logger()
	}

	defer func() {
		if rec := recover(); rec != nil {
			lg.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
		}
	}()

	if err := r.handler(ctx, msg); err != nil {
		lg.Error().Err(err).Msg("unexpected handler error")
	}
}
