package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"daily-meal-notifier/internal/config"
	"daily-meal-notifier/internal/logging"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

var (
	// ErrBotInactive means the getMe liveness check failed; nothing was sent.
	ErrBotInactive = errors.New("bot is not active, check the bot token and network connection")
	// ErrDiscoveryExhausted means no chat could be discovered from recent updates.
	ErrDiscoveryExhausted = errors.New("no chat found")
)

// Delivery is the outcome of sending to one destination. Exactly one of
// Message and Err is set.
type Delivery struct {
	Target  ChatTarget
	Message *tgbotapi.Message
	Err     error
}

// OK reports whether the message reached Telegram.
func (d Delivery) OK() bool { return d.Err == nil }

// Client sends notifications through the Telegram Bot API.
type Client struct {
	api *tgbotapi.BotAPI
	log *zerolog.Logger

	mode     string
	fixed    []ChatTarget
	attempts int
	delay    time.Duration
}

// NewClient authorizes against the Bot API and prepares destination
// resolution according to cfg.TelegramChatMode.
func NewClient(cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	endpoint := cfg.TelegramAPIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	httpClient := &http.Client{Timeout: cfg.TelegramHTTPTimeout}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramBotToken, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	compLog := logging.Component(logger, "TelegramClient")
	compLog.Info().Str("username", api.Self.UserName).Msg("authorized on telegram")

	c := &Client{
		api:      api,
		log:      compLog,
		mode:     cfg.TelegramChatMode,
		attempts: cfg.DiscoveryAttempts,
		delay:    cfg.DiscoveryDelay,
	}
	if c.attempts < 1 {
		c.attempts = 1
	}

	if c.mode != config.ChatModeDiscover {
		targets, err := ParseChatTargets(cfg.TelegramGroupID)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_GROUP_ID: %w", err)
		}
		c.fixed = targets
	}

	return c, nil
}

// CheckStatus calls getMe and fails with ErrBotInactive unless the bot answers.
func (c *Client) CheckStatus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.GetMe(); err != nil {
		return fmt.Errorf("%w: %v", ErrBotInactive, err)
	}
	return nil
}

// DiscoverChat returns the chat of the newest inbound message the bot has
// received. Empty or failed getUpdates calls are retried with a fixed delay.
func (c *Client) DiscoverChat(ctx context.Context) (ChatTarget, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		updates, err := c.api.GetUpdates(tgbotapi.NewUpdate(0))
		if err == nil {
			if target, ok := newestChat(updates); ok {
				return target, nil
			}
			lastErr = errors.New("no messages in recent updates")
		} else {
			lastErr = err
		}

		if attempt == c.attempts {
			break
		}
		c.log.Warn().Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", c.attempts).
			Dur("retry_in", c.delay).
			Msg("chat discovery failed, retrying")

		select {
		case <-ctx.Done():
			return ChatTarget{}, ctx.Err()
		case <-time.After(c.delay):
		}
	}

	return ChatTarget{}, fmt.Errorf("%w after %d attempts (%v): send a message to the bot and try again",
		ErrDiscoveryExhausted, c.attempts, lastErr)
}

// SendMessage delivers text to every resolved destination. Liveness and
// discovery failures are returned; a failed send to one destination is
// logged and reported on its Delivery only.
func (c *Client) SendMessage(ctx context.Context, text string) ([]Delivery, error) {
	if err := c.CheckStatus(ctx); err != nil {
		return nil, err
	}

	targets, err := c.resolveTargets(ctx)
	if err != nil {
		return nil, err
	}

	deliveries := make([]Delivery, 0, len(targets))
	for _, target := range targets {
		d := Delivery{Target: target}
		c.log.Info().Str("chat", target.String()).Msg("sending message")

		msg, err := c.api.Send(newMessage(target, text))
		if err != nil {
			d.Err = fmt.Errorf("failed to send message to chat %s: %w", target, err)
			c.log.Error().Err(err).Str("chat", target.String()).Msg("failed to send message")
		} else {
			d.Message = &msg
			c.log.Info().Str("chat", target.String()).Int("message_id", msg.MessageID).Msg("message sent")
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func (c *Client) resolveTargets(ctx context.Context) ([]ChatTarget, error) {
	if c.mode != config.ChatModeDiscover {
		return c.fixed, nil
	}
	target, err := c.DiscoverChat(ctx)
	if err != nil {
		return nil, err
	}
	return []ChatTarget{target}, nil
}

func newestChat(updates []tgbotapi.Update) (ChatTarget, bool) {
	for i := len(updates) - 1; i >= 0; i-- {
		if msg := updates[i].Message; msg != nil && msg.Chat != nil {
			return ChatTarget{ID: msg.Chat.ID}, true
		}
	}
	return ChatTarget{}, false
}

func newMessage(target ChatTarget, text string) tgbotapi.MessageConfig {
	if target.Username != "" {
		return tgbotapi.NewMessageToChannel(target.Username, text)
	}
	return tgbotapi.NewMessage(target.ID, text)
}
