package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-link-guard/internal/domain"
)

// MessageSender posts a text message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// ChatModeration is the set of platform actions the enforcer needs.
type ChatModeration interface {
	MessageSender
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	BanChatMember(ctx context.Context, chatID, userID int64) error
}

// Enforcement records how far an enforcement got.
type Enforcement struct {
	Deleted bool
	Banned  bool
	Warned  bool

	// Err is the first platform failure (*PlatformError); the steps after
	// it were not attempted.
	Err error
}

// Complete reports whether every step succeeded.
func (e Enforcement) Complete() bool { return e.Deleted && e.Banned && e.Warned }

// Enforcer deletes a violating message, bans its sender and posts a notice.
type Enforcer struct {
	platform ChatModeration
	warning  string
	log      zerolog.Logger
}

// NewEnforcer constructs an Enforcer that posts warningText after a ban.
func NewEnforcer(platform ChatModeration, warningText string, log zerolog.Logger) *Enforcer {
	return &Enforcer{platform: platform, warning: warningText, log: log}
}

// Enforce runs delete, ban and warn in that order. The first platform
// failure stops the sequence; it is logged and reported in the returned
// Enforcement, never as an error. No step is retried.
//
// The error result is reserved for ErrInvalidMessage. A message without a
// chat or message ID is rejected before any call; one without a sender is
// deleted and then rejected.
func (e *Enforcer) Enforce(ctx context.Context, msg domain.Message) (Enforcement, error) {
	tr := otel.Tracer("services/Enforcer")
	ctx, span := tr.Start(ctx, "Enforce",
		trace.WithAttributes(
			attribute.Int64("chat.id", msg.ChatID),
			attribute.Int64("user.id", msg.SenderID),
			attribute.Int("message.id", msg.ID),
		),
	)
	defer span.End()

	var out Enforcement
	invalid := func(err error) (Enforcement, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid message")
		return out, err
	}
	if msg.ChatID == 0 || msg.ID == 0 {
		return invalid(fmt.Errorf("%w: chat=%d message=%d", ErrInvalidMessage, msg.ChatID, msg.ID))
	}

	lg := loggerFor(ctx, e.log).With().
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.SenderID).
		Int("message_id", msg.ID).
		Logger()

	steps := []struct {
		op   string
		run  func(context.Context) error
		done *bool
	}{
		{OpDelete, func(ctx context.Context) error { return e.platform.DeleteMessage(ctx, msg.ChatID, msg.ID) }, &out.Deleted},
		{OpBan, func(ctx context.Context) error { return e.platform.BanChatMember(ctx, msg.ChatID, msg.SenderID) }, &out.Banned},
		{OpWarn, func(ctx context.Context) error { return e.platform.SendMessage(ctx, msg.ChatID, e.warning) }, &out.Warned},
	}
	for _, s := range steps {
		// A message without a sender is still removed; there is nobody to ban.
		if s.op == OpBan && msg.SenderID == 0 {
			return invalid(fmt.Errorf("%w: no sender for message %d", ErrInvalidMessage, msg.ID))
		}
		if err := s.run(ctx); err != nil {
			out.Err = &PlatformError{Op: s.op, Err: err}
			enforcementSteps.WithLabelValues(s.op, resultError).Inc()
			span.RecordError(out.Err)
			span.SetStatus(codes.Error, s.op+" failed")
			lg.Error().Err(out.Err).Str("step", s.op).Msg("ban error")
			return out, nil
		}
		*s.done = true
		enforcementSteps.WithLabelValues(s.op, resultOK).Inc()
	}

	lg.Info().Str("username", msg.SenderUsername).Msg("user banned")
	return out, nil
}
