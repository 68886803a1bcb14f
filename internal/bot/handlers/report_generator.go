package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/report"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendReportPDF renders the monthly report for month and sends it as a
// document.
func (b *Bot) sendReportPDF(ctx context.Context, chatID int64, month string) {
	r, err := b.ledger.MonthlyReport(ctx, month)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	balances, err := b.ledger.AccountBalances(ctx)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	pdf, err := report.MonthlyPDF(r, balances, b.now())
	if err != nil {
		logger.Error("PDF generation failed", "chat_id", chatID, "error", err)
		b.sendError(chatID, err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  reportFileName(r.Label),
		Bytes: pdf,
	})
	doc.Caption = fmt.Sprintf("📄 Reporte %s", r.Label)
	b.send(chatID, doc)
}

func reportFileName(label string) string {
	return "reporte_" + strings.ReplaceAll(strings.ToLower(label), " ", "_") + ".pdf"
}
