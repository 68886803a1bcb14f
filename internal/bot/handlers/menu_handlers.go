package handlers

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/djedy/eventledger/internal/conversation"
	"github.com/djedy/eventledger/internal/report"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	"github.com/shopspring/decimal"
)

var esc = html.EscapeString

const welcomeText = `👋 <b>¡Hola! Soy el bot de contabilidad de DJ EDY</b> 🎧

Llevo la cuenta de cada evento: depósitos, gastos y el reparto final
65% Personal · 25% Ahorros · 10% DJ EDY.

Usa el menú o escribe /ayuda para ver los comandos.`

const helpText = `📖 <b>COMANDOS</b>

🎉 <b>Eventos</b>
/nuevoevento - crear un evento paso a paso
/eventos - eventos en proceso
/evento E001 - detalle de un evento
/proximos - eventos de los próximos 7 días

💵 <b>Dinero</b>
/deposito E001 500 - registrar un depósito
/pagocompleto E001 1500 - liquidar y repartir
/gasto E001 200 transporte - gasto de un evento
/gastodirecto 150 publicidad - gasto general
/gastosevento E001 - gastos de un evento

📊 <b>Consultas</b>
/balance - saldos de las cuentas
/retenciones - depósitos retenidos
/reporte marzo - reporte del mes
/reportepdf marzo - reporte en PDF

/cancelar - cancelar el asistente

✍️ También puedes escribir "gasto 120 cables" o "depósito 500 E001".`

var wizardPrompts = map[string]string{
	conversation.StepName:    "🎉 <b>Nuevo evento</b>\n\n¿Cómo se llama el evento?",
	conversation.StepClient:  "👤 ¿Quién es el cliente? (escribe <i>no</i> para omitir)",
	conversation.StepBudget:  "💰 ¿Cuál es el presupuesto total?",
	conversation.StepDeposit: "💵 ¿Cuánto dejó de depósito inicial? (escribe <i>no</i> si nada)",
	conversation.StepDate:    "📅 ¿Fecha del evento? Formato DD-MM-AAAA (o <i>no</i>)",
}

// errorText maps ledger errors to the message shown in chat.
func errorText(err error) string {
	var partial *service.PartialWriteError
	var verr *service.ValidationError
	switch {
	case errors.As(err, &partial):
		return fmt.Sprintf("⚠️ <b>Operación incompleta</b>\n\nFalló el paso <code>%s</code> después de guardar: %s.\nRevisa la hoja antes de repetir la operación.",
			esc(partial.Step), esc(strings.Join(partial.Committed, ", ")))
	case errors.Is(err, service.ErrEventCompleted):
		return "❌ El evento ya está completado."
	case errors.As(err, &verr):
		return fmt.Sprintf("❌ Dato inválido (%s): %s", esc(verr.Field), esc(verr.Reason))
	case errors.Is(err, service.ErrEventNotFound):
		return "❌ Evento no encontrado. Revisa el ID con /eventos."
	case errors.Is(err, service.ErrAccountNotFound):
		return "❌ Falta una cuenta en balance_cuentas."
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "⚠️ El almacenamiento no responde. Intenta de nuevo en unos segundos."
	default:
		return "❌ Error: " + esc(err.Error())
	}
}

func eventLine(e repository.Event) string {
	line := fmt.Sprintf("<b>%s</b> - %s", esc(e.ID), esc(e.Name))
	if e.Client != "" {
		line += fmt.Sprintf(" (%s)", esc(e.Client))
	}
	return line
}

func formatEvents(events []repository.Event) string {
	if len(events) == 0 {
		return "📭 No hay eventos en proceso."
	}
	var sb strings.Builder
	sb.WriteString("📋 <b>EVENTOS EN PROCESO</b>\n")
	for _, e := range events {
		sb.WriteString("\n" + eventLine(e) + "\n")
		fmt.Fprintf(&sb, "   💰 %s / %s · pendiente %s\n", report.Money(e.PaidTotal), report.Money(e.Budget), report.Money(e.Pending))
		if e.EventDate != "" {
			fmt.Fprintf(&sb, "   📅 %s\n", esc(e.EventDate))
		}
	}
	return sb.String()
}

func formatEvent(e repository.Event) string {
	var sb strings.Builder
	sb.WriteString("🎉 " + eventLine(e) + "\n\n")
	status := "⏳ En proceso"
	if e.Completed() {
		status = "✅ Completado"
	}
	sb.WriteString("Estado: " + status + "\n")
	if e.EventDate != "" {
		sb.WriteString("📅 Fecha: " + esc(e.EventDate) + "\n")
	}
	fmt.Fprintf(&sb, "🎯 Presupuesto: %s\n", report.Money(e.Budget))
	fmt.Fprintf(&sb, "💵 Pagado: %s\n", report.Money(e.PaidTotal))
	fmt.Fprintf(&sb, "⏳ Pendiente: %s\n", report.Money(e.Pending))
	fmt.Fprintf(&sb, "📉 Gastos: %s\n", report.Money(e.ExpensesTotal))
	fmt.Fprintf(&sb, "📊 Neto: %s", report.Money(e.Net()))
	if e.Notes != "" {
		sb.WriteString("\n📝 " + esc(e.Notes))
	}
	return sb.String()
}

func formatCreated(e repository.Event) string {
	return fmt.Sprintf("✅ <b>EVENTO CREADO</b>\n\n%s\n🎯 Presupuesto: %s\n💵 Depósito: %s\n⏳ Pendiente: %s\n\nRegistra pagos con /deposito %s MONTO",
		eventLine(e), report.Money(e.Budget), report.Money(e.PaidTotal), report.Money(e.Pending), esc(e.ID))
}

func formatDeposit(r service.DepositResult, amount decimal.Decimal) string {
	return fmt.Sprintf("💵 <b>DEPÓSITO REGISTRADO</b>\n\n📋 %s - %s\n💰 Monto: %s\n\n📊 Pagado: %s de %s\n⏳ Pendiente: %s\n\n🏦 Queda retenido hasta el pago completo.",
		esc(r.EventID), esc(r.EventName), report.Money(amount), report.Money(r.PaidTotal), report.Money(r.Budget), report.Money(r.Pending))
}

func formatEventExpense(r service.ExpenseResult, amount decimal.Decimal, description string) string {
	return fmt.Sprintf("📉 <b>GASTO REGISTRADO</b>\n\n📋 %s - %s\n💰 Gasto: %s\n📝 %s\n\n📊 <b>Impacto:</b>\n   Presupuesto: %s\n   Gastos: %s\n   Neto: %s",
		esc(r.EventID), esc(r.EventName), report.Money(amount), esc(description), report.Money(r.Budget), report.Money(r.ExpensesTotal), report.Money(r.NetRemaining))
}

func formatDirectExpense(r service.DirectExpenseResult) string {
	return fmt.Sprintf("📉 <b>GASTO DIRECTO</b>\n\n💰 Monto: %s\n📝 %s\n🏷️ %s\n🏢 Cuenta: %s\n\n✅ Restado del balance actual.",
		report.Money(r.Amount), esc(r.Description), esc(r.Category), repository.AccountCompany)
}

func formatFullPayment(r service.FullPaymentResult) string {
	return fmt.Sprintf("🎉 <b>EVENTO COMPLETADO</b>\n\n📋 %s - %s\n🎯 Presupuesto: %s\n📉 Gastos: %s\n📊 Neto: %s\n\n<b>Reparto:</b>\n🎧 Personal (65%%): %s\n💰 Ahorros (25%%): %s\n🏢 DJ EDY (10%%): %s",
		esc(r.EventID), esc(r.EventName), report.Money(r.Budget), report.Money(r.Expenses), report.Money(r.Net),
		report.Money(r.Split.Personal), report.Money(r.Split.Savings), report.Money(r.Split.Company))
}

var accountIcons = map[string]string{
	repository.AccountPersonal: "🎧",
	repository.AccountSavings:  "💰",
	repository.AccountCompany:  "🏢",
}

func formatBalances(balances []repository.AccountBalance, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("💰 <b>BALANCE DE CUENTAS</b>\n\n")
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Total())
		fmt.Fprintf(&sb, "%s <b>%s:</b> %s\n", accountIcons[b.Account], esc(b.Account), report.Money(b.Total()))
		if b.Account == repository.AccountCompany {
			if b.Pending.IsPositive() {
				fmt.Fprintf(&sb, "   └ Depósitos retenidos: %s\n", report.Money(b.Pending))
			}
			if !b.Current.IsZero() {
				fmt.Fprintf(&sb, "   └ Fondo empresa: %s\n", report.Money(b.Current))
			}
		} else if !b.Pending.IsZero() {
			fmt.Fprintf(&sb, "   └ Pendiente: %s\n", report.Money(b.Pending))
		}
	}
	fmt.Fprintf(&sb, "\n📈 <b>Total general:</b> %s\n\n🔄 Actualizado: %s", report.Money(total), now.Format(service.EventDateLayout))
	return sb.String()
}

func formatUpcoming(events []repository.Event) string {
	if len(events) == 0 {
		return "📭 No hay eventos en los próximos 7 días."
	}
	var sb strings.Builder
	sb.WriteString("📅 <b>PRÓXIMOS EVENTOS</b>\n")
	for _, e := range events {
		fmt.Fprintf(&sb, "\n%s %s\n   ⏳ Pendiente: %s\n", esc(e.EventDate), eventLine(e), report.Money(e.Pending))
	}
	return sb.String()
}

func formatRetentions(r service.Retentions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏦 <b>DEPÓSITOS RETENIDOS</b>\n\nTotal retenido: %s\n", report.Money(r.Held))
	if len(r.Events) == 0 {
		sb.WriteString("\n📭 Ningún evento en proceso tiene pagos.")
		return sb.String()
	}
	for _, e := range r.Events {
		fmt.Fprintf(&sb, "\n%s\n   💵 %s de %s\n", eventLine(e), report.Money(e.PaidTotal), report.Money(e.Budget))
	}
	return sb.String()
}

func formatEventExpenses(e repository.Event, expenses []repository.Transaction) string {
	if len(expenses) == 0 {
		return fmt.Sprintf("📭 No hay gastos para %s - %s", esc(e.ID), esc(e.Name))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>GASTOS - %s</b>\n\n", esc(e.ID))
	total := decimal.Zero
	for i, t := range expenses {
		total = total.Add(t.Amount)
		fmt.Fprintf(&sb, "%d. %s - %s\n   📅 %s\n", i+1, report.Money(t.Amount), esc(t.Description), t.Date.Format(service.EventDateLayout))
	}
	fmt.Fprintf(&sb, "\n💰 <b>Total:</b> %s\n🎯 <b>Presupuesto:</b> %s\n📊 <b>Neto:</b> %s",
		report.Money(total), report.Money(e.Budget), report.Money(e.Budget.Sub(total)))
	return sb.String()
}

func formatReport(r service.MonthlyReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>REPORTE %s</b>\n\n", esc(strings.ToUpper(r.Label)))
	fmt.Fprintf(&sb, "🎉 <b>Eventos:</b> %d\n   ✅ Completados: %d\n   ⏳ En proceso: %d\n\n", r.EventsTotal, r.EventsCompleted, r.EventsInProgress)
	fmt.Fprintf(&sb, "💵 <b>Ingresos:</b> %s\n", report.Money(r.Income))
	fmt.Fprintf(&sb, "📉 <b>Gastos:</b> %s\n   En eventos: %s\n   Directos: %s\n", report.Money(r.TotalExpenses), report.Money(r.EventExpenses), report.Money(r.DirectExpenses))
	fmt.Fprintf(&sb, "📈 <b>Balance:</b> %s", report.Money(r.Balance))

	if len(r.ExpensesByCategory) > 0 {
		sb.WriteString("\n\n🏷️ <b>Gastos por categoría:</b>")
		for _, k := range sortedKeys(r.ExpensesByCategory) {
			fmt.Fprintf(&sb, "\n   %s: %s", esc(k), report.Money(r.ExpensesByCategory[k]))
		}
	}
	return sb.String()
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
