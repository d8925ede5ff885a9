package notify

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"

	"x2raindrop/internal/domain"
)

// maxListedErrors caps how many error lines are included in a summary message.
const maxListedErrors = 5

// Summary is what gets reported after a run.
type Summary struct {
	Command  string
	Result   domain.RunResult
	Requests int
	DryRun   bool
}

// TelegramNotifier sends run summaries to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbot.Bot
	chatID int64
	log    logrus.FieldLogger
}

// NewTelegramNotifier creates a notifier for the given bot token and chat.
// Extra options are passed to the bot client.
func NewTelegramNotifier(token string, chatID int64, logger logrus.FieldLogger, opts ...tgbot.Option) (*TelegramNotifier, error) {
	log := logger.WithField("component", "telegram_notifier")

	opts = append([]tgbot.Option{tgbot.WithSkipGetMe()}, opts...)
	b, err := tgbot.New(token, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &TelegramNotifier{bot: b, chatID: chatID, log: log}, nil
}

// Notify sends the summary message.
func (n *TelegramNotifier) Notify(ctx context.Context, s Summary) error {
	log := n.log.WithFields(logrus.Fields{"chat_id": n.chatID, "command": s.Command})

	_, err := n.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: n.chatID,
		Text:   FormatSummary(s),
	})
	if err != nil {
		log.WithError(err).Error("Failed to send run summary")
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	log.Debug("Run summary sent")
	return nil
}

// FormatSummary renders a plain-text run summary.
func FormatSummary(s Summary) string {
	var b strings.Builder
	title := "x2raindrop " + s.Command
	if s.DryRun {
		title += " (dry run)"
	}
	b.WriteString(title + "\n\n")

	r := s.Result
	fmt.Fprintf(&b, "Total: %d\n", r.Total)
	fmt.Fprintf(&b, "Newly synced: %d\n", r.NewlySynced)
	fmt.Fprintf(&b, "Already synced: %d\n", r.AlreadySynced)
	fmt.Fprintf(&b, "Failed: %d\n", r.Failed)
	fmt.Fprintf(&b, "Deleted from X: %d\n", r.DeletedFromSource)
	fmt.Fprintf(&b, "X API requests: %d\n", s.Requests)

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "\nErrors (%d):\n", len(r.Errors))
		for i, e := range r.Errors {
			if i == maxListedErrors {
				fmt.Fprintf(&b, "... and %d more\n", len(r.Errors)-maxListedErrors)
				break
			}
			b.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
