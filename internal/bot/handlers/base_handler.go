// Package handlers turns Telegram updates into ledger operations and
// renders the replies.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/djedy/eventledger/internal/conversation"
	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	CallbackNewEvent    = "nuevo_evento"
	CallbackEvents      = "ver_eventos"
	CallbackUpcoming    = "ver_proximos"
	CallbackBalance     = "ver_balance"
	CallbackReport      = "ver_reporte"
	CallbackReportPDF   = "ver_reporte_pdf"
	CallbackRetentions  = "ver_retenciones"
	CallbackHelp        = "ver_ayuda"
	CallbackEventDetail = "evento_"
	CallbackEventCosts  = "gastos_evento_"
	CallbackMainMenu    = "menu"
)

// Sender is the part of *tgbotapi.BotAPI the handlers talk to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api     Sender
	ledger  service.Ledger
	wizard  *conversation.Wizard
	allowed func(chatID int64) bool
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Bot)

// WithAllowList restricts the bot to the chats allowed reports true for.
func WithAllowList(allowed func(chatID int64) bool) Option {
	return func(b *Bot) { b.allowed = allowed }
}

// WithTimeout bounds the work done for a single update.
func WithTimeout(d time.Duration) Option {
	return func(b *Bot) { b.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bot) { b.now = now }
}

func NewBot(api Sender, ledger service.Ledger, wizard *conversation.Wizard, opts ...Option) *Bot {
	b := &Bot{
		api:     api,
		ledger:  ledger,
		wizard:  wizard,
		allowed: func(int64) bool { return true },
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) send(chatID int64, c tgbotapi.Chattable) {
	_, err := b.api.Send(c)
	if err != nil {
		logger.Error("Error sending message", "chat_id", chatID, "error", err)
	}
}

// SendMessage sends text as HTML.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(chatID, msg)
}

func (b *Bot) sendError(chatID int64, err error) {
	logger.Warn("Sending error to user", "chat_id", chatID, "error", err)
	errorsTotal.WithLabelValues(errorKind(err)).Inc()
	b.SendMessage(chatID, errorText(err))
}

func (b *Bot) sendMainMenu(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(chatID, msg)
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎉 Nuevo evento", CallbackNewEvent),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Eventos", CallbackEvents),
			tgbotapi.NewInlineKeyboardButtonData("📅 Próximos", CallbackUpcoming),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Balance", CallbackBalance),
			tgbotapi.NewInlineKeyboardButtonData("🏦 Retenciones", CallbackRetentions),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Reporte", CallbackReport),
			tgbotapi.NewInlineKeyboardButtonData("📄 Reporte PDF", CallbackReportPDF),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Ayuda", CallbackHelp),
		),
	)
}

// Commands is the list published to Telegram's command menu.
var Commands = []tgbotapi.BotCommand{
	{Command: "nuevoevento", Description: "Crear un evento paso a paso"},
	{Command: "eventos", Description: "Eventos en proceso"},
	{Command: "evento", Description: "Detalle de un evento"},
	{Command: "proximos", Description: "Eventos de los próximos 7 días"},
	{Command: "deposito", Description: "Registrar un depósito"},
	{Command: "pagocompleto", Description: "Liquidar un evento y repartir"},
	{Command: "gasto", Description: "Gasto de un evento"},
	{Command: "gastodirecto", Description: "Gasto general de la empresa"},
	{Command: "gastosevento", Description: "Gastos de un evento"},
	{Command: "balance", Description: "Saldos de las cuentas"},
	{Command: "reporte", Description: "Reporte mensual"},
	{Command: "reportepdf", Description: "Reporte mensual en PDF"},
	{Command: "retenciones", Description: "Depósitos retenidos"},
	{Command: "cancelar", Description: "Cancelar el asistente"},
	{Command: "ayuda", Description: "Ayuda"},
}

// PublishCommands registers Commands with Telegram.
func (b *Bot) PublishCommands() error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(Commands...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}

// HandleUpdate processes one update; it is safe to call concurrently.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	switch {
	case upd.Message != nil:
		if !b.allowed(upd.Message.Chat.ID) {
			logger.Warn("Ignoring message from chat not in allow-list", "chat_id", upd.Message.Chat.ID)
			return
		}
		b.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.Message == nil || !b.allowed(q.Message.Chat.ID) {
			return
		}
		b.handleCallback(ctx, q)
	}
}

// Run consumes updates until ctx is done or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	logger.Info("Bot started, waiting for updates")
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// UpdateParser decodes a webhook request; *tgbotapi.BotAPI implements it.
type UpdateParser interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// WebhookHandler serves Telegram webhook calls. GET answers a liveness
// probe, matching what the hosting platform expects.
func (b *Bot) WebhookHandler(parser UpdateParser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Bot de contabilidad activo"})
			return
		case http.MethodPost:
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Método no permitido"})
			return
		}

		upd, err := parser.HandleUpdate(r)
		if err != nil {
			logger.Warn("Bad webhook request", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		b.HandleUpdate(r.Context(), *upd)
		w.WriteHeader(http.StatusOK)
	})
}

func username(u *tgbotapi.User) string {
	if u == nil {
		return "desconocido"
	}
	if u.UserName != "" {
		return u.UserName
	}
	return u.FirstName
}
