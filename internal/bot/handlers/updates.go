package handlers

import (
	"context"
	"time"

	"github.com/djedy/eventledger/internal/logger"
)

// sendPause spaces out broadcast messages to stay under Telegram's rate limit.
const sendPause = 100 * time.Millisecond

// RemindUpcoming sends the next-seven-days list to every chat. Nothing is
// sent when there are no upcoming events.
func (b *Bot) RemindUpcoming(ctx context.Context, chats []int64) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	events, err := b.ledger.UpcomingEvents(ctx)
	if err != nil {
		logger.Error("Reminder: load upcoming events", "error", err)
		return
	}
	if len(events) == 0 {
		logger.Debug("Reminder: nothing upcoming")
		return
	}

	text := "🔔 <b>Recordatorio</b>\n\n" + formatUpcoming(events)
	for i, chatID := range chats {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(sendPause):
			}
		}
		b.SendMessage(chatID, text)
	}
	logger.Info("Reminder sent", "chats", len(chats), "events", len(events))
}

// StartReminders calls RemindUpcoming every interval until ctx is done.
func (b *Bot) StartReminders(ctx context.Context, interval time.Duration, chats []int64) {
	if interval <= 0 || len(chats) == 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.RemindUpcoming(ctx, chats)
		}
	}
}
