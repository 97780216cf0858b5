// Package telegram adapts the Bot API client (go-telegram-bot-api) to the
// bot's ports: it is the message source for the update loop and the
// platform the moderation services act through.
//
// The underlying client has no per-call context support; methods check the
// context before issuing a request and otherwise rely on the HTTP client's
// timeout.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-link-guard/internal/config"
	"github.com/tbourn/go-link-guard/internal/domain"
)

// httpSlack is added on top of the long-poll timeout so the HTTP client does
// not abort a getUpdates call the server is still legitimately holding.
const httpSlack = 10 * time.Second

// Client is a connected bot.
type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout time.Duration
	log         zerolog.Logger
}

// New authenticates against the Bot API (getMe) and returns a Client.
func New(cfg config.TelegramConfig, log zerolog.Logger) (*Client, error) {
	_ = tgbotapi.SetLogger(botLogger{log: log})

	httpClient := &http.Client{Timeout: cfg.PollTimeout + httpSlack}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, cfg.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticate: %w", err)
	}
	api.Debug = cfg.Debug

	return &Client{api: api, pollTimeout: cfg.PollTimeout, log: log}, nil
}

// Username returns the bot's @username as reported by getMe.
func (c *Client) Username() string { return c.api.Self.UserName }

// ID returns the bot's user ID.
func (c *Client) ID() int64 { return c.api.Self.ID }

// ChatMemberStatus returns userID's status in chatID.
func (c *Client) ChatMemberStatus(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", fmt.Errorf("getChatMember: %w", err)
	}
	return domain.MemberStatus(member.Status), nil
}

// DeleteMessage removes a message from a chat.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("deleteMessage: %w", err)
	}
	return nil
}

// BanChatMember bans userID from chatID permanently.
func (c *Client) BanChatMember(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("banChatMember: %w", err)
	}
	return nil
}

// SendMessage posts plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// Messages starts long polling and streams inbound messages until ctx is
// done, then stops polling and closes the channel. Bot commands are
// filtered out; updates that carry no new message are delivered as nil so
// the handler can skip them.
func (c *Client) Messages(ctx context.Context) <-chan *domain.Message {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(c.pollTimeout / time.Second)
	updates := c.api.GetUpdatesChan(u)

	out := make(chan *domain.Message)
	go func() {
		defer close(out)
		defer c.api.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := FromUpdate(upd)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// FromUpdate converts an update into the message to moderate. ok is false
// for bot commands, which are not moderated.
func FromUpdate(upd tgbotapi.Update) (msg *domain.Message, ok bool) {
	m := upd.Message
	if m == nil {
		return nil, true
	}
	if m.IsCommand() {
		return nil, false
	}
	out := &domain.Message{
		ID:      m.MessageID,
		Text:    m.Text,
		Caption: m.Caption,
	}
	if m.Chat != nil {
		out.ChatID = m.Chat.ID
	}
	if m.From != nil {
		out.SenderID = m.From.ID
		out.SenderUsername = m.From.UserName
	}
	return out, true
}

// botLogger routes the client library's log output into zerolog.
type botLogger struct {
	log zerolog.Logger
}

func (l botLogger) Println(v ...interface{}) {
	l.log.Warn().Str("component", "tgbotapi").Msg(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Str("component", "tgbotapi").Msgf(format, v...)
}
