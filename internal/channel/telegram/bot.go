// Package telegram serves the Telegram conversational channel.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/xiaot623/gogo/alertlink/internal/channel"
	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/session"
)

const (
	handleTimeout = 30 * time.Second
	// Telegram rejects longer messages.
	maxMessageRunes = 4096
)

// BotAPI is the subset of tgbotapi.BotAPI the channel uses.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot long-polls Telegram for messages and sends replies and alerts.
type Bot struct {
	api           BotAPI
	conversations channel.Conversations
	inbox         *session.Inbox
	pollTimeout   int
}

// Ensure Bot can deliver alerts.
var _ channel.Sender = (*Bot)(nil)

// Dial connects to the Bot API. The HTTP timeout outlasts one long poll.
func Dial(token string, pollTimeout int) (*tgbotapi.BotAPI, error) {
	client := &http.Client{Timeout: time.Duration(pollTimeout)*time.Second + 30*time.Second}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	return api, nil
}

// New creates a bot. Messages from one chat are handled in arrival order;
// different chats are handled concurrently.
func New(api BotAPI, conversations channel.Conversations, pollTimeout int) *Bot {
	return &Bot{
		api:           api,
		conversations: conversations,
		inbox:         session.NewInbox(),
		pollTimeout:   pollTimeout,
	}
}

// Run polls for updates until ctx is done, then waits for in-flight messages.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)

	log.Info().Msg("telegram polling started")
	defer b.inbox.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Info().Msg("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	addr := domain.NewAddress(domain.ChannelTelegram, strconv.FormatInt(msg.Chat.ID, 10))
	text := msg.Text
	b.inbox.Submit(addr.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()

		reply := b.conversations.Handle(ctx, addr, text)
		if reply == "" {
			return
		}
		if err := b.Send(ctx, addr, reply); err != nil {
			log.Warn().Err(err).Str("conversation", addr.String()).Msg("failed to send reply")
		}
	})
}

// Send delivers text to the chat in addr. It returns when Telegram accepts
// the message or ctx is done, whichever comes first.
func (b *Bot) Send(ctx context.Context, addr domain.Address, text string) error {
	if addr.Channel != domain.ChannelTelegram {
		return fmt.Errorf("%w: %q is not a telegram address", channel.ErrUnknownChannel, addr.String())
	}
	chatID, err := strconv.ParseInt(addr.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", addr.ID, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, truncate(text, maxMessageRunes))
	done := make(chan error, 1)
	go func() {
		_, err := b.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
