package services

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-link-guard/internal/classifier"
	"github.com/tbourn/go-link-guard/internal/domain"
)

// Decision is what the moderator did with a message.
type Decision string

const (
	DecisionSkippedEmpty Decision = "skipped_empty"
	DecisionSkippedAdmin Decision = "skipped_admin"
	DecisionClean        Decision = "clean"
	DecisionEnforced     Decision = "enforced"
)

// AdminCheck reports whether a sender is exempt from moderation.
type AdminCheck interface {
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

// LinkClassifier returns the verdict for message content.
type LinkClassifier interface {
	Classify(text string) classifier.Result
}

// EnforcementAction acts on a message classified as a violation.
type EnforcementAction interface {
	Enforce(ctx context.Context, msg domain.Message) (Enforcement, error)
}

// Outcome describes the handling of one message.
type Outcome struct {
	Decision    Decision
	Result      classifier.Result
	Enforcement Enforcement
}

// Moderator runs the per-message flow: admin exemption, classification,
// enforcement. It keeps no state between messages.
type Moderator struct {
	admins     AdminCheck
	classifier LinkClassifier
	enforcer   EnforcementAction
	log        zerolog.Logger
}

// NewModerator wires the moderation flow.
func NewModerator(admins AdminCheck, c LinkClassifier, enforcer EnforcementAction, log zerolog.Logger) *Moderator {
	return &Moderator{admins: admins, classifier: c, enforcer: enforcer, log: log}
}

// Handle moderates a single inbound message. A nil message and messages from
// admins are skipped without classification. A violation triggers exactly one
// enforcement and ends processing.
//
// Platform failures are absorbed; the returned error is non-nil only for
// defects such as ErrInvalidMessage.
func (m *Moderator) Handle(ctx context.Context, msg *domain.Message) (Outcome, error) {
	if msg == nil {
		messagesTotal.WithLabelValues(string(DecisionSkippedEmpty)).Inc()
		return Outcome{Decision: DecisionSkippedEmpty}, nil
	}

	tr := otel.Tracer("services/Moderator")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.Int64("chat.id", msg.ChatID),
			attribute.Int64("user.id", msg.SenderID),
		),
	)
	defer span.End()

	if m.admins.IsAdmin(ctx, msg.ChatID, msg.SenderID) {
		messagesTotal.WithLabelValues(string(DecisionSkippedAdmin)).Inc()
		return Outcome{Decision: DecisionSkippedAdmin}, nil
	}

	res := m.classifier.Classify(msg.Content())
	span.SetAttributes(attribute.String("verdict", res.Verdict.String()))
	if !res.Violation() {
		messagesTotal.WithLabelValues(string(DecisionClean)).Inc()
		return Outcome{Decision: DecisionClean, Result: res}, nil
	}

	lg := loggerFor(ctx, m.log)
	lg.Debug().
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.SenderID).
		Str("reason", string(res.Reason)).
		Str("match", res.Match).
		Msg("violation")

	enf, err := m.enforcer.Enforce(ctx, *msg)
	messagesTotal.WithLabelValues(string(DecisionEnforced)).Inc()
	return Outcome{Decision: DecisionEnforced, Result: res, Enforcement: enf}, err
}
