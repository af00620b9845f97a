// Package notify delivers rendered digests to Slack or to a terminal.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/Afrawles/sprintdigest/internal/report"
)

// SlackNotifier posts through the Web API (chat.postMessage) with a bot
// token.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
}

var _ report.Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(token, channelID string, opts ...slack.Option) *SlackNotifier {
	opts = append([]slack.Option{slack.OptionHTTPClient(&http.Client{Timeout: 30 * time.Second})}, opts...)
	return &SlackNotifier{
		client:    slack.New(token, opts...),
		channelID: channelID,
	}
}

func (n *SlackNotifier) Name() string {
	return "slack"
}

func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		var slackErr slack.SlackErrorResponse
		if errors.As(err, &slackErr) {
			return fmt.Errorf("error sending message to Slack channel %s: %s", n.channelID, slackErr.Err)
		}
		return fmt.Errorf("error sending message to Slack channel %s: %w", n.channelID, err)
	}
	return nil
}

// WebhookNotifier posts to a Slack incoming webhook. The channel is fixed by
// the webhook itself.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
}

var _ report.Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, httpClient *http.Client) *WebhookNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookNotifier{url: url, httpClient: httpClient}
}

func (n *WebhookNotifier) Name() string {
	return "slack-webhook"
}

func (n *WebhookNotifier) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.url, n.httpClient, msg); err != nil {
		return fmt.Errorf("error posting to Slack webhook: %w", err)
	}
	return nil
}

// ConsoleNotifier prints the digest instead of sending it.
type ConsoleNotifier struct {
	w io.Writer
}

var _ report.Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Name() string {
	return "console"
}

func (n *ConsoleNotifier) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintln(n.w, text)
	return err
}

// Settings selects a destination. A webhook URL wins over a bot token.
type Settings struct {
	BotToken   string
	ChannelID  string
	WebhookURL string
	// APIURL overrides the Slack Web API base, e.g. for a proxy.
	APIURL string
}

var ErrNoDestination = errors.New("no Slack destination configured (set SLACK_WEBHOOK_URL or SLACK_BOT_TOKEN and SLACK_CHANNEL_ID)")

func New(s Settings) (report.Notifier, error) {
	if s.WebhookURL != "" {
		return NewWebhookNotifier(s.WebhookURL, nil), nil
	}
	if s.BotToken == "" || s.ChannelID == "" {
		return nil, ErrNoDestination
	}

	var opts []slack.Option
	if s.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(s.APIURL))
	}
	return NewSlackNotifier(s.BotToken, s.ChannelID, opts...), nil
}
