package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elonfeng/hotdigest/pkg/trend"
)

const topItems = 5

// Notification is the digest summary sent to alert destinations.
type Notification struct {
	RunID       string             `json:"run_id"`
	Title       string             `json:"title"`
	GeneratedAt time.Time          `json:"generated_at"`
	Keyword     string             `json:"keyword,omitempty"`
	Highlights  []string           `json:"highlights"`
	Items       []trend.RankedItem `json:"items"`
}

// NewNotification builds a digest notification carrying at most maxItems
// ranked items. maxItems <= 0 keeps them all.
func NewNotification(runID string, generatedAt time.Time, keyword string, highlights []string, items []trend.RankedItem, maxItems int) *Notification {
	return &Notification{
		RunID:       runID,
		Title:       fmt.Sprintf("Daily News Digest (%s)", generatedAt.Format("2006-01-02 15:04")),
		GeneratedAt: generatedAt,
		Keyword:     keyword,
		Highlights:  highlights,
		Items:       trend.Top(items, maxItems),
	}
}

// top returns the first few items for compact destinations.
func (n *Notification) top() []trend.RankedItem {
	return trend.Top(n.Items, topItems)
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Names lists the configured destinations.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return names
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// postJSON sends body to url and returns the response status code.
func postJSON(ctx context.Context, client *http.Client, url string, body []byte, headers map[string]string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
