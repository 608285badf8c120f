// Package slack delivers portal notifications to Slack channels.
package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	slackgo "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/sellerdesk/support-portal/internal/config"
)

// ErrNotConfigured is returned when neither a bot token nor a webhook is set.
var ErrNotConfigured = errors.New("slack delivery not configured")

// Sender posts a plain-text message to a channel.
type Sender interface {
	Send(ctx context.Context, channel, text string) error
}

type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackgo.MsgOption) (string, string, error)
}

// Client posts through the Web API when a bot token is configured and falls
// back to the incoming webhook otherwise.
type Client struct {
	api        poster
	webhookURL string
	logger     *zap.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.SlackConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{webhookURL: strings.TrimSpace(cfg.WebhookURL), logger: logger}
	if token := strings.TrimSpace(cfg.BotToken); token != "" {
		var opts []slackgo.Option
		if cfg.APIURL != "" {
			opts = append(opts, slackgo.OptionAPIURL(strings.TrimRight(cfg.APIURL, "/")+"/"))
		}
		c.api = slackgo.New(token, opts...)
	}
	return c
}

// Enabled reports whether any delivery path is configured.
func (c *Client) Enabled() bool {
	return c != nil && (c.api != nil || c.webhookURL != "")
}

// Send posts text to channel.
func (c *Client) Send(ctx context.Context, channel, text string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	if c.api != nil {
		if _, _, err := c.api.PostMessageContext(ctx, channel, slackgo.MsgOptionText(text, false)); err != nil {
			return fmt.Errorf("slack post to %s: %w", channel, err)
		}
		return nil
	}
	msg := &slackgo.WebhookMessage{Channel: channel, Text: text}
	if err := slackgo.PostWebhookContext(ctx, c.webhookURL, msg); err != nil {
		return fmt.Errorf("slack webhook to %s: %w", channel, err)
	}
	c.logger.Debug("slack webhook delivered", zap.String("channel", channel))
	return nil
}
