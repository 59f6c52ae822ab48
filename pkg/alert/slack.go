package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Slack sends notifications via Slack incoming webhook.
type Slack struct {
	client     *http.Client
	webhookURL string
}

// NewSlack creates a new Slack notifier.
func NewSlack(webhookURL string) *Slack {
	return &Slack{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (s *Slack) Name() string { return "slack" }

func (s *Slack) Send(ctx context.Context, n *Notification) error {
	// Build Slack Block Kit message.
	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": fmt.Sprintf("📰 %s", n.Title),
			},
		},
	}

	if len(n.Highlights) > 0 {
		lines := make([]string, len(n.Highlights))
		for i, h := range n.Highlights {
			lines[i] = "• " + h
		}
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": strings.Join(lines, "\n"),
			},
		})
	}

	if top := n.top(); len(top) > 0 {
		var elements []map[string]any
		for i, item := range top {
			text := fmt.Sprintf("%d. %s [%s] *%.2f*", i+1, item.Title, item.Source, item.Score)
			if item.URL != "" {
				text = fmt.Sprintf("%d. <%s|%s> [%s] *%.2f*", i+1, item.URL, item.Title, item.Source, item.Score)
			}
			elements = append(elements, map[string]any{
				"type": "mrkdwn",
				"text": text,
			})
		}
		blocks = append(blocks, map[string]any{
			"type":     "context",
			"elements": elements,
		})
	}

	body, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, err := postJSON(ctx, s.client, s.webhookURL, body, nil)
	if err != nil {
		return fmt.Errorf("send slack webhook: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack webhook status %d", status)
	}
	return nil
}
