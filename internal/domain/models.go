// Package domain defines the value types shared by the classifier, the
// moderation services and the Telegram adapter. Messages are read-only
// snapshots: the bot never mutates them, it only issues commands about them.
package domain

import "github.com/tbourn/go-link-guard/internal/sysutil"

// Message is a group message as delivered by the platform.
//
// Fields:
//   - ID: platform message identifier, unique within a chat.
//   - ChatID: the chat the message was posted in.
//   - SenderID / SenderUsername: the author (zero ID when the platform
//     did not attach one).
//   - Text / Caption: body text, or the caption of a media message.
type Message struct {
	ID             int
	ChatID         int64
	SenderID       int64
	SenderUsername string
	Text           string
	Caption        string
}

// Content returns the text the classifier inspects: the body text when
// present, the media caption otherwise.
func (m Message) Content() string {
	return sysutil.FirstNonEmpty(m.Text, m.Caption)
}

// Verdict is the outcome of classifying a message.
type Verdict int

const (
	// Clean means the message carries no disallowed link.
	Clean Verdict = iota
	// Violation means the message must be enforced against.
	Violation
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	if v == Violation {
		return "violation"
	}
	return "clean"
}

// MemberStatus is a chat member's role as reported by the platform.
type MemberStatus string

// Member statuses as reported by the Bot API.
const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// IsAdmin reports whether the status exempts a member from moderation.
func (s MemberStatus) IsAdmin() bool {
	return s == StatusCreator || s == StatusAdministrator
}
