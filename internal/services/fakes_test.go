package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tbourn/go-link-guard/internal/domain"
)

var errNetwork = errors.New("network unreachable")

// ----- Fake platform -----

type sentMessage struct {
	chatID int64
	text   string
}

type fakePlatform struct {
	mu sync.Mutex

	// behaviour
	status    domain.MemberStatus
	memberErr error
	deleteErr error
	banErr    error
	sendErr   map[int64]error // per chat; nil entry = ok

	// captured calls
	calls    []string
	deleted  []int
	banned   []int64
	sent     []sentMessage
	sendSeen chan int64
}

func (p *fakePlatform) record(call string) {
	p.calls = append(p.calls, call)
}

func (p *fakePlatform) ChatMemberStatus(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(fmt.Sprintf("get_member %d %d", chatID, userID))
	return p.status, p.memberErr
}

func (p *fakePlatform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(OpDelete)
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.deleted = append(p.deleted, messageID)
	return nil
}

func (p *fakePlatform) BanChatMember(ctx context.Context, chatID, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(OpBan)
	if p.banErr != nil {
		return p.banErr
	}
	p.banned = append(p.banned, userID)
	return nil
}

func (p *fakePlatform) SendMessage(ctx context.Context, chatID int64, text string) error {
	p.mu.Lock()
	p.record(OpWarn)
	err := p.sendErr[chatID]
	if err == nil {
		p.sent = append(p.sent, sentMessage{chatID: chatID, text: text})
	}
	seen := p.sendSeen
	p.mu.Unlock()

	if seen != nil {
		seen <- chatID
	}
	return err
}

func (p *fakePlatform) snapshot() (calls []string, sent []sentMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...), append([]sentMessage(nil), p.sent...)
}
