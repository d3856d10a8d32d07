package channels

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"charitybot/pkg/logger"
)

const slackAPICallTimeout = 15 * time.Second

// SlackChannel implements Messenger on the Slack Web API.
type SlackChannel struct {
	client *slack.Client
}

// NewSlackChannel creates a Web API client for token. apiURL overrides the
// Slack endpoint and is meant for tests; leave it empty in production.
func NewSlackChannel(token, apiURL string) *SlackChannel {
	opts := []slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: slackAPICallTimeout}),
	}
	if apiURL = strings.TrimSpace(apiURL); apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(strings.TrimRight(apiURL, "/")+"/"))
	}
	return &SlackChannel{client: slack.New(token, opts...)}
}

func (c *SlackChannel) FetchMessage(ctx context.Context, ref MessageRef) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, slackAPICallTimeout)
	defer cancel()

	resp, err := c.client.GetConversationHistoryContext(callCtx, &slack.GetConversationHistoryParameters{
		ChannelID: ref.ConversationID,
		Latest:    ref.Timestamp,
		Limit:     1,
		Inclusive: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to read message %s/%s: %w", ref.ConversationID, ref.Timestamp, err)
	}
	if resp == nil || len(resp.Messages) == 0 {
		return "", ErrMessageNotFound
	}

	msg := resp.Messages[0]
	// A deleted target makes history return the preceding message instead.
	if msg.Timestamp != "" && msg.Timestamp != ref.Timestamp {
		logger.WarnCF("slack", "History returned a different message than requested", map[string]interface{}{
			logger.FieldChannel:   ref.ConversationID,
			logger.FieldMessageTS: ref.Timestamp,
			"returned_ts":         msg.Timestamp,
		})
		return "", ErrMessageNotFound
	}

	logger.DebugCF("slack", "Fetched source message", map[string]interface{}{
		logger.FieldChannel:              ref.ConversationID,
		logger.FieldMessageTS:            ref.Timestamp,
		logger.FieldMessageContentLength: len(msg.Text),
		logger.FieldPreview:              truncateString(msg.Text, 80),
	})
	return msg.Text, nil
}

func (c *SlackChannel) PostMessage(ctx context.Context, conversationID, threadTS, text string) (MessageRef, error) {
	callCtx, cancel := context.WithTimeout(ctx, slackAPICallTimeout)
	defer cancel()

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	channelID, ts, err := c.client.PostMessageContext(callCtx, conversationID, opts...)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to post message to %s: %w", conversationID, err)
	}
	if channelID == "" {
		channelID = conversationID
	}
	return MessageRef{ConversationID: channelID, Timestamp: ts}, nil
}

func (c *SlackChannel) UpdateMessage(ctx context.Context, ref MessageRef, text string) error {
	callCtx, cancel := context.WithTimeout(ctx, slackAPICallTimeout)
	defer cancel()

	if _, _, _, err := c.client.UpdateMessageContext(callCtx, ref.ConversationID, ref.Timestamp, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to update message %s/%s: %w", ref.ConversationID, ref.Timestamp, err)
	}
	return nil
}
