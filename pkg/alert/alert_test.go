package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/hotdigest/pkg/source"
	"github.com/elonfeng/hotdigest/pkg/trend"
)

func sampleNotification() *Notification {
	items := []trend.RankedItem{
		{Item: source.Item{Source: "Hacker News | Product Hunt", Title: "Show <HN>: Foo", URL: "https://example.com/a"}, Score: 53.98, Category: trend.CategoryTechAI},
		{Item: source.Item{Source: "Weibo Hot Search", Title: "热搜"}, Score: 20, Category: trend.CategoryFinance},
	}
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return NewNotification("run-1", at, "", []string{"2 ranked stories collected across 3 active sources."}, items, 10)
}

type captured struct {
	body    []byte
	headers http.Header
}

func captureServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.body, _ = io.ReadAll(r.Body)
		c.headers = r.Header.Clone()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestNewNotification(t *testing.T) {
	n := sampleNotification()
	assert.Equal(t, "Daily News Digest (2025-03-10 12:00)", n.Title)
	assert.Len(t, n.Items, 2)

	n = NewNotification("run-1", time.Now(), "", nil, n.Items, 1)
	assert.Len(t, n.Items, 1)
}

func TestSlackSend(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)

	require.NoError(t, NewSlack(srv.URL).Send(context.Background(), sampleNotification()))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))

	var payload struct {
		Blocks []map[string]any `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(got.body, &payload))
	require.Len(t, payload.Blocks, 3)
	assert.Equal(t, "header", payload.Blocks[0]["type"])
	elements, ok := payload.Blocks[2]["elements"].([]any)
	require.True(t, ok)
	require.Len(t, elements, 2)
	first := elements[0].(map[string]any)
	assert.Equal(t, "1. <https://example.com/a|Show <HN>: Foo> [Hacker News | Product Hunt] *53.98*", first["text"])
}

func TestSlackNon200(t *testing.T) {
	srv, _ := captureServer(t, http.StatusAccepted)
	assert.Error(t, NewSlack(srv.URL).Send(context.Background(), sampleNotification()))
}

func TestDiscordSend(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)

	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), sampleNotification()))

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Timestamp   string `json:"timestamp"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(got.body, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Contains(t, payload.Embeds[0].Description, "1. [Show <HN>: Foo](https://example.com/a)")
	assert.Contains(t, payload.Embeds[0].Description, "2. 热搜 [Weibo Hot Search] **20.00**")
	assert.Equal(t, "2025-03-10T12:00:00Z", payload.Embeds[0].Timestamp)
}

func TestWebhookSignature(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)

	require.NoError(t, NewWebhook(srv.URL, "s3cret").Send(context.Background(), sampleNotification()))
	assert.Equal(t, "sha256="+Sign("s3cret", got.body), got.headers.Get("X-Signature-256"))
	assert.Equal(t, "hotdigest/1.0", got.headers.Get("User-Agent"))

	var n Notification
	require.NoError(t, json.Unmarshal(got.body, &n))
	assert.Equal(t, "run-1", n.RunID)
	assert.Len(t, n.Items, 2)
}

func TestWebhookNoSecret(t *testing.T) {
	srv, got := captureServer(t, http.StatusOK)

	require.NoError(t, NewWebhook(srv.URL, "").Send(context.Background(), sampleNotification()))
	assert.Empty(t, got.headers.Get("X-Signature-256"))
}

func TestWebhookErrorStatus(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError)
	err := NewWebhook(srv.URL, "").Send(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "status 500")
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, f.err
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{api: bot, chatID: 42}

	require.NoError(t, tg.Send(context.Background(), sampleNotification()))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.Contains(t, msg.Text, `<a href="https://example.com/a">Show &lt;HN&gt;: Foo</a>`)
}

func TestTelegramErrors(t *testing.T) {
	tg := &Telegram{api: &fakeBot{}, chatID: 0}
	assert.Error(t, tg.Send(context.Background(), sampleNotification()))

	tg = &Telegram{api: &fakeBot{err: errors.New("flood")}, chatID: 1}
	assert.ErrorContains(t, tg.Send(context.Background(), sampleNotification()), "flood")
}

func TestFormatTelegramTruncates(t *testing.T) {
	n := sampleNotification()
	n.Highlights = []string{strings.Repeat("x", 5000)}
	assert.LessOrEqual(t, len([]rune(FormatTelegram(n))), telegramMaxLen)
}

func TestFormatTelegramDropsWholeItemLines(t *testing.T) {
	n := sampleNotification()
	long := strings.Repeat("y", 1500)
	n.Items = nil
	for i := 0; i < 5; i++ {
		n.Items = append(n.Items, trend.RankedItem{
			Item:  source.Item{Source: "Hacker News", Title: long, URL: "https://example.com/" + long},
			Score: 10,
		})
	}

	text := FormatTelegram(n)
	assert.LessOrEqual(t, len([]rune(text)), telegramMaxLen)
	assert.Equal(t, 1, strings.Count(text, "<a href="))
	assert.Equal(t, 1, strings.Count(text, "</a>"))
	assert.True(t, strings.HasSuffix(text, "</a> <i>Hacker News</i> 10.00"))
	assert.True(t, strings.HasPrefix(text, "📰 <b>Daily News Digest (2025-03-10 12:00)</b>\n• 2 ranked stories"))
}

type stubNotifier struct {
	name string
	err  error
	got  *Notification
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(_ context.Context, n *Notification) error {
	s.got = n
	return s.err
}

func TestManagerBroadcast(t *testing.T) {
	ok := &stubNotifier{name: "ok"}
	bad := &stubNotifier{name: "bad", err: errors.New("down")}
	m := NewManager([]Notifier{ok, bad})

	assert.True(t, m.HasNotifiers())
	assert.Equal(t, []string{"ok", "bad"}, m.Names())

	n := sampleNotification()
	err := m.Broadcast(context.Background(), n)
	assert.ErrorContains(t, err, "bad: down")
	assert.Same(t, n, ok.got, "failures do not stop other destinations")

	assert.False(t, NewManager(nil).HasNotifiers())
	assert.NoError(t, NewManager(nil).Broadcast(context.Background(), n))
}
