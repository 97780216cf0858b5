package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-guard/internal/domain"
)

// MemberLookup resolves a user's status in a chat.
type MemberLookup interface {
	ChatMemberStatus(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error)
}

// AdminChecker decides whether a sender is exempt from moderation.
type AdminChecker struct {
	members MemberLookup
	log     zerolog.Logger
}

// NewAdminChecker constructs an AdminChecker backed by members.
func NewAdminChecker(members MemberLookup, log zerolog.Logger) *AdminChecker {
	return &AdminChecker{members: members, log: log}
}

// IsAdmin reports whether userID is an administrator or the creator of
// chatID. A failed lookup never exempts anyone: the answer is false.
func (a *AdminChecker) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	status, err := a.members.ChatMemberStatus(ctx, chatID, userID)
	if err != nil {
		lg := loggerFor(ctx, a.log)
		lg.Debug().
			Err(&PlatformError{Op: OpGetMember, Err: err}).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("admin lookup failed, moderating as member")
		return false
	}
	return status.IsAdmin()
}
