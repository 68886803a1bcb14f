package handlers

import (
	"context"
	"strings"

	"github.com/djedy/eventledger/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		logger.Debug("Callback ack failed", "error", err)
	}
	chatID := q.Message.Chat.ID
	data := q.Data
	user := username(q.From)
	logger.LogButtonClick(user, data)
	updatesTotal.WithLabelValues("callback").Inc()

	switch {
	case data == CallbackMainMenu:
		b.sendMainMenu(chatID, "🏠 Menú principal")
	case data == CallbackNewEvent:
		b.startWizard(ctx, chatID, user)
	case data == CallbackEvents:
		b.showEvents(ctx, chatID)
	case data == CallbackUpcoming:
		b.showUpcoming(ctx, chatID)
	case data == CallbackBalance:
		b.showBalance(ctx, chatID)
	case data == CallbackRetentions:
		b.showRetentions(ctx, chatID)
	case data == CallbackReport:
		b.showReport(ctx, chatID, "")
	case data == CallbackReportPDF:
		b.sendReportPDF(ctx, chatID, "")
	case data == CallbackHelp:
		b.SendMessage(chatID, helpText)
	case strings.HasPrefix(data, CallbackEventCosts):
		b.showEventExpenses(ctx, chatID, strings.TrimPrefix(data, CallbackEventCosts))
	case strings.HasPrefix(data, CallbackEventDetail):
		b.showEvent(ctx, chatID, strings.TrimPrefix(data, CallbackEventDetail))
	default:
		logger.Warn("Unknown callback", "data", data)
		b.sendMainMenu(chatID, "🤔 Elige una opción:")
	}
}
