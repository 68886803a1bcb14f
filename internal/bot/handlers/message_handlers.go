package handlers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/djedy/eventledger/internal/conversation"
	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var eventIDPattern = regexp.MustCompile(`^[Ee]\d{3,}$`)

var knownCommands = map[string]bool{"start": true, "comandos": true, "help": true}

func init() {
	for _, c := range Commands {
		knownCommands[c.Command] = true
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	user := username(m.From)
	chatID := m.Chat.ID

	if !m.IsCommand() {
		updatesTotal.WithLabelValues("text").Inc()
		logger.Debug("Text message", "user", user, "chat_id", chatID)
		b.handleUserInput(ctx, m)
		return
	}

	cmd := m.Command()
	args := strings.Fields(m.CommandArguments())
	logger.LogCommand(user, "/"+cmd)
	if knownCommands[cmd] {
		updatesTotal.WithLabelValues(cmd).Inc()
	} else {
		updatesTotal.WithLabelValues("unknown").Inc()
	}

	switch cmd {
	case "start":
		b.sendMainMenu(chatID, welcomeText)
	case "ayuda", "comandos", "help":
		b.SendMessage(chatID, helpText)
	case "nuevoevento":
		b.startWizard(ctx, chatID, user)
	case "cancelar":
		b.cancelWizard(ctx, chatID)
	case "eventos":
		b.showEvents(ctx, chatID)
	case "evento":
		if len(args) != 1 {
			b.SendMessage(chatID, "❌ Usa: /evento [ID]\nEjemplo: /evento E001")
			return
		}
		b.showEvent(ctx, chatID, args[0])
	case "proximos":
		b.showUpcoming(ctx, chatID)
	case "deposito":
		b.handleDeposit(ctx, chatID, user, args)
	case "pagocompleto":
		b.handleFullPayment(ctx, chatID, user, args)
	case "gasto":
		b.handleEventExpense(ctx, chatID, user, args)
	case "gastodirecto":
		b.handleDirectExpense(ctx, chatID, user, args)
	case "gastosevento":
		if len(args) != 1 {
			b.SendMessage(chatID, "❌ Usa: /gastosevento [ID]\nEjemplo: /gastosevento E001")
			return
		}
		b.showEventExpenses(ctx, chatID, args[0])
	case "balance":
		b.showBalance(ctx, chatID)
	case "retenciones":
		b.showRetentions(ctx, chatID)
	case "reporte":
		b.showReport(ctx, chatID, strings.Join(args, " "))
	case "reportepdf":
		b.sendReportPDF(ctx, chatID, strings.Join(args, " "))
	default:
		b.sendMainMenu(chatID, "🤔 No conozco ese comando. Elige una opción:")
	}
}

// handleUserInput routes plain text: first to a running wizard, then to the
// one-line entry shortcuts.
func (b *Bot) handleUserInput(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	out, ok, err := b.wizard.Handle(ctx, chatID, m.Text)
	if err != nil {
		logger.LogError(username(m.From), fmt.Sprintf("Wizard failed: %v", err))
		b.sendError(chatID, err)
		return
	}
	if ok {
		b.replyWizard(chatID, out)
		return
	}

	p := conversation.Parse(m.Text)
	if !p.Complete() {
		b.sendMainMenu(chatID, "🤔 No entendí el mensaje. Prueba \"gasto 120 cables\" o elige una opción:")
		return
	}

	user := username(m.From)
	switch p.Kind {
	case conversation.KindExpense:
		b.handleDirectExpense(ctx, chatID, user, []string{p.Amount, p.Subject})
	case conversation.KindIncome:
		if !eventIDPattern.MatchString(p.Subject) {
			b.SendMessage(chatID, "💡 Para registrar un depósito indica el ID del evento, por ejemplo: <code>depósito 500 E001</code>")
			return
		}
		b.handleDeposit(ctx, chatID, user, []string{p.Subject, p.Amount})
	default:
		b.SendMessage(chatID, "🔁 Las transferencias entre cuentas no están disponibles. El reparto se hace con /pagocompleto.")
	}
}

func (b *Bot) startWizard(ctx context.Context, chatID int64, user string) {
	if err := b.wizard.Start(ctx, chatID, user); err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, wizardPrompts[conversation.StepName]+"\n\n/cancelar para salir")
}

func (b *Bot) cancelWizard(ctx context.Context, chatID int64) {
	active, err := b.wizard.Cancel(ctx, chatID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	if !active {
		b.sendMainMenu(chatID, "No hay nada que cancelar.")
		return
	}
	b.sendMainMenu(chatID, "🚫 Creación de evento cancelada.")
}

func (b *Bot) replyWizard(chatID int64, out conversation.Outcome) {
	switch {
	case out.Event != nil:
		b.sendMainMenu(chatID, formatCreated(*out.Event))
	case out.Input != nil:
		b.SendMessage(chatID, errorText(out.Input)+"\n\n"+wizardPrompts[out.Step])
	default:
		b.SendMessage(chatID, wizardPrompts[out.Step])
	}
}

func (b *Bot) handleDeposit(ctx context.Context, chatID int64, user string, args []string) {
	if len(args) != 2 {
		b.SendMessage(chatID, "❌ Formato: /deposito [ID] [MONTO]\nEjemplo: /deposito E001 500")
		return
	}
	amount, err := service.ParseAmount(args[1])
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	res, err := b.ledger.RegisterDeposit(ctx, args[0], amount, user)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatDeposit(res, amount))
}

func (b *Bot) handleFullPayment(ctx context.Context, chatID int64, user string, args []string) {
	if len(args) != 2 {
		b.SendMessage(chatID, "❌ Formato: /pagocompleto [ID] [MONTO]\nEjemplo: /pagocompleto E001 1500")
		return
	}
	amount, err := service.ParseAmount(args[1])
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	res, err := b.ledger.RegisterFullPayment(ctx, args[0], amount, user)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatFullPayment(res))
}

func (b *Bot) handleEventExpense(ctx context.Context, chatID int64, user string, args []string) {
	if len(args) < 3 {
		b.SendMessage(chatID, "❌ Formato: /gasto [ID] [MONTO] [DESCRIPCIÓN]\nEjemplo: /gasto E001 200 transporte")
		return
	}
	amount, err := service.ParseAmount(args[1])
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	description := strings.Join(args[2:], " ")
	res, err := b.ledger.RegisterEventExpense(ctx, args[0], amount, description, user)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatEventExpense(res, amount, description))
}

func (b *Bot) handleDirectExpense(ctx context.Context, chatID int64, user string, args []string) {
	if len(args) < 2 {
		b.SendMessage(chatID, "❌ Formato: /gastodirecto [MONTO] [DESCRIPCIÓN]\nEjemplo: /gastodirecto 150 publicidad")
		return
	}
	amount, err := service.ParseAmount(args[0])
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	res, err := b.ledger.RegisterDirectExpense(ctx, amount, strings.Join(args[1:], " "), "", user)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatDirectExpense(res))
}

func (b *Bot) showEvents(ctx context.Context, chatID int64) {
	events, err := b.ledger.ActiveEvents(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, formatEvents(events))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(events) > 0 {
		msg.ReplyMarkup = eventsKeyboard(events)
	}
	b.send(chatID, msg)
}

func (b *Bot) showEvent(ctx context.Context, chatID int64, id string) {
	e, err := b.ledger.EventByID(ctx, id)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, formatEvent(e))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📉 Gastos", CallbackEventCosts+e.ID),
			tgbotapi.NewInlineKeyboardButtonData("◀️ Menú", CallbackMainMenu),
		),
	)
	b.send(chatID, msg)
}

func (b *Bot) showEventExpenses(ctx context.Context, chatID int64, id string) {
	e, err := b.ledger.EventByID(ctx, id)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	expenses, err := b.ledger.EventExpenses(ctx, e.ID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatEventExpenses(e, expenses))
}

func (b *Bot) showUpcoming(ctx context.Context, chatID int64) {
	events, err := b.ledger.UpcomingEvents(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatUpcoming(events))
}

func (b *Bot) showBalance(ctx context.Context, chatID int64) {
	balances, err := b.ledger.AccountBalances(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatBalances(balances, b.now()))
}

func (b *Bot) showRetentions(ctx context.Context, chatID int64) {
	r, err := b.ledger.Retentions(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatRetentions(r))
}

func (b *Bot) showReport(ctx context.Context, chatID int64, month string) {
	r, err := b.ledger.MonthlyReport(ctx, month)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.SendMessage(chatID, formatReport(r))
}

func eventsKeyboard(events []repository.Event) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range events {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s · %s", e.ID, e.Name), CallbackEventDetail+e.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
