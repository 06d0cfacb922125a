// Package notify sends a short run summary to Telegram after a download session.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/artur/clipvault/internal/config"
	"github.com/artur/clipvault/internal/logger"
	"github.com/artur/clipvault/internal/session"
)

const (
	requestTimeout = 15 * time.Second
	maxFailures    = 3
	maxErrorLen    = 100
)

type Notifier interface {
	Notify(ctx context.Context, res *session.Result, sourceFile string) error
}

// Noop discards notifications
type Noop struct{}

func (Noop) Notify(context.Context, *session.Result, string) error { return nil }

// New returns a Telegram notifier when a token and chat are configured, and
// Noop otherwise. A bot that cannot be reached at startup is logged and
// replaced by Noop so the download run is not affected.
func New(cfg config.Notify, log logrus.FieldLogger) Notifier {
	log = logger.Component(log, "notify")
	if cfg.TelegramToken == "" || cfg.TelegramChatID == 0 {
		return Noop{}
	}

	t, err := NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, log)
	if err != nil {
		log.WithError(err).Warn("Telegram notifications disabled")
		return Noop{}
	}
	return t
}

type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    logrus.FieldLogger
}

func NewTelegram(token string, chatID int64, log logrus.FieldLogger) (*Telegram, error) {
	return newTelegram(token, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: requestTimeout}, log)
}

func newTelegram(token string, chatID int64, endpoint string, client tgbotapi.HTTPClient, log logrus.FieldLogger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	log.Infof("Authorized on account %s", api.Self.UserName)

	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func (t *Telegram) Notify(ctx context.Context, res *session.Result, sourceFile string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(res, sourceFile))
	msg.DisableWebPagePreview = true

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send summary: %w", err)
	}
	t.log.WithField("session_id", res.SessionID).Debug("Summary sent")
	return nil
}

// FormatSummary renders a plain-text run summary
func FormatSummary(res *session.Result, sourceFile string) string {
	var b strings.Builder
	total := res.Total()

	if res.Interrupted {
		b.WriteString("Download session interrupted\n")
	} else {
		b.WriteString("Download session finished\n")
	}
	if res.SessionID != "" {
		fmt.Fprintf(&b, "Session: %s\n", res.SessionID)
	}
	if sourceFile != "" {
		fmt.Fprintf(&b, "Source: %s\n", sourceFile)
	}
	fmt.Fprintf(&b, "Successful: %d/%d\n", len(res.Successful), total)
	fmt.Fprintf(&b, "Failed: %d/%d\n", len(res.Failed), total)
	fmt.Fprintf(&b, "Success rate: %.1f%%\n", res.SuccessRate())

	if len(res.Failed) > 0 {
		b.WriteString("\nFailed downloads:\n")
		for _, f := range res.Failed[:min(len(res.Failed), maxFailures)] {
			fmt.Fprintf(&b, "• %s\n  %s\n", f.URL, truncate(f.Error, maxErrorLen))
		}
		if extra := len(res.Failed) - maxFailures; extra > 0 {
			fmt.Fprintf(&b, "... and %d more\n", extra)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
