package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var lines []string
	for _, h := range n.Highlights {
		lines = append(lines, "• "+h)
	}

	var links []string
	for i, item := range n.top() {
		title := item.Title
		if item.URL != "" {
			title = fmt.Sprintf("[%s](%s)", item.Title, item.URL)
		}
		links = append(links, fmt.Sprintf("%d. %s [%s] **%.2f**", i+1, title, item.Source, item.Score))
	}

	embed := map[string]any{
		"title":       fmt.Sprintf("📰 %s", n.Title),
		"description": strings.Join(lines, "\n") + "\n\n" + strings.Join(links, "\n"),
		"color":       0xFF6600,
		"timestamp":   n.GeneratedAt.UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(map[string]any{
		"embeds": []map[string]any{embed},
	})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	status, err := postJSON(ctx, d.client, d.webhookURL, body, nil)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("discord webhook status %d", status)
	}
	return nil
}
