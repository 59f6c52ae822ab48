package alert

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMaxLen = 4096

// messageSender is the part of tgbotapi.BotAPI used to deliver messages.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications to a chat through a bot.
type Telegram struct {
	api    messageSender
	chatID int64
}

// NewTelegram authenticates the bot and creates a notifier for chatID.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, n *Notification) error {
	if t.chatID == 0 {
		return fmt.Errorf("telegram chat id not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatTelegram(n))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatTelegram renders a notification as Telegram HTML. Lines that would
// push the message past the size limit are dropped whole, so no tag is cut.
func FormatTelegram(n *Notification) string {
	lines := []string{fmt.Sprintf("📰 <b>%s</b>", html.EscapeString(n.Title))}
	for _, h := range n.Highlights {
		lines = append(lines, "• "+html.EscapeString(h))
	}

	if top := n.top(); len(top) > 0 {
		lines = append(lines, "")
		for i, item := range top {
			title := html.EscapeString(item.Title)
			if item.URL != "" {
				title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(item.URL), title)
			}
			lines = append(lines, fmt.Sprintf("%d. %s <i>%s</i> %.2f", i+1, title, html.EscapeString(item.Source), item.Score))
		}
	}

	var b strings.Builder
	size := 0
	for i, line := range lines {
		need := utf8.RuneCountInString(line)
		if i > 0 {
			need++
		}
		if size+need > telegramMaxLen {
			break
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		size += need
	}
	return strings.TrimRight(b.String(), "\n")
}
