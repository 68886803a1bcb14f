// Package report renders the monthly summary as a PDF with charts.
package report

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/djedy/eventledger/internal/logger"
	"github.com/djedy/eventledger/internal/repository"
	"github.com/djedy/eventledger/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const font = "Helvetica"

// Money formats an amount as $1,234.50.
func Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

type pdfWriter struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	img int
}

// MonthlyPDF renders r together with the current account balances.
func MonthlyPDF(r service.MonthlyReport, balances []repository.AccountBalance, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetMargins(10, 10, 10)
	pdf.SetTitle(w.tr("Reporte "+r.Label), false)
	pdf.AddPage()

	pdf.SetFont(font, "B", 20)
	pdf.SetTextColor(30, 30, 30)
	w.line(190, 10, "DJ EDY - Reporte mensual", "C")
	pdf.SetFont(font, "", 12)
	w.line(190, 8, "Periodo: "+r.Label, "C")
	w.line(190, 8, "Generado: "+generated.Format("02-01-2006 15:04"), "C")
	pdf.Ln(8)

	pdf.SetFont(font, "B", 16)
	w.line(190, 10, "Eventos", "L")
	pdf.SetFont(font, "", 12)
	w.line(190, 7, fmt.Sprintf("Completados: %d", r.EventsCompleted), "L")
	w.line(190, 7, fmt.Sprintf("En proceso: %d", r.EventsInProgress), "L")
	w.line(190, 7, fmt.Sprintf("Total: %d", r.EventsTotal), "L")
	pdf.Ln(4)

	pdf.SetFont(font, "B", 16)
	w.line(190, 10, "Finanzas", "L")
	pdf.SetFont(font, "", 12)
	w.line(190, 7, "Ingresos: "+Money(r.Income), "L")
	w.line(190, 7, "Gastos: "+Money(r.TotalExpenses), "L")
	w.line(190, 7, "   En eventos: "+Money(r.EventExpenses), "L")
	w.line(190, 7, "   Directos: "+Money(r.DirectExpenses), "L")
	w.line(190, 7, "Balance del mes: "+Money(r.Balance), "L")
	pdf.Ln(4)

	if bar, err := summaryChart(r); err != nil {
		logger.Warn("Skipping summary chart", "error", err)
	} else if bar != nil {
		w.image(bar, "", 10, pdf.GetY(), 120, 55)
		pdf.SetY(pdf.GetY() + 60)
	}

	startY := pdf.GetY() + 8
	if pie, legend, err := pieChart(r.ExpensesByCategory); err != nil {
		logger.Warn("Skipping expense chart", "error", err)
	} else if pie != nil {
		w.image(pie, "Gastos por categoria", 10, startY, 90, 60)
		w.legend(legend, 10, startY+62)
	}
	if pie, legend, err := pieChart(r.IncomeByAccount); err != nil {
		logger.Warn("Skipping income chart", "error", err)
	} else if pie != nil {
		w.image(pie, "Ingresos por cuenta", 110, startY, 90, 60)
		w.legend(legend, 110, startY+62)
	}

	pdf.AddPage()
	pdf.SetFont(font, "B", 16)
	w.line(190, 10, "Saldos de cuentas", "L")
	pdf.SetFont(font, "", 12)
	for _, b := range balances {
		w.line(190, 7, fmt.Sprintf("%s: %s (pendiente %s, total %s)",
			b.Account, Money(b.Current), Money(b.Pending), Money(b.Total())), "L")
	}

	if len(r.Events) > 0 {
		pdf.Ln(6)
		pdf.SetFont(font, "B", 16)
		w.line(190, 10, "Eventos del mes", "L")
		pdf.SetFont(font, "", 11)
		for _, e := range r.Events {
			w.line(190, 6, fmt.Sprintf("%s  %s  [%s]  %s / %s", e.ID, e.Name, e.Status, Money(e.PaidTotal), Money(e.Budget)), "L")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *pdfWriter) line(width, height float64, text, align string) {
	w.pdf.CellFormat(width, height, w.tr(text), "", 1, align, false, 0, "")
}

func (w *pdfWriter) legend(items []string, x, y float64) {
	w.pdf.SetXY(x, y)
	w.pdf.SetFont(font, "", 10)
	for _, item := range items {
		w.pdf.SetX(x)
		w.pdf.CellFormat(90, 5, w.tr(item), "", 1, "L", false, 0, "")
	}
}

func (w *pdfWriter) image(png []byte, title string, x, y, width, height float64) {
	if title != "" {
		w.pdf.SetFont(font, "B", 12)
		w.pdf.SetXY(x, y-6)
		w.pdf.CellFormat(width, 6, w.tr(title), "", 0, "C", false, 0, "")
	}
	w.img++
	name := fmt.Sprintf("chart%d", w.img)
	options := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader(name, options, bytes.NewReader(png))
	w.pdf.ImageOptions(name, x, y, width, height, false, options, 0, "")
}

// summaryChart returns nil when there is nothing to plot.
func summaryChart(r service.MonthlyReport) ([]byte, error) {
	income, _ := r.Income.Float64()
	expenses, _ := r.TotalExpenses.Float64()
	if income <= 0 && expenses <= 0 {
		return nil, nil
	}
	graph := chart.BarChart{
		Width:    480,
		Height:   220,
		BarWidth: 80,
		XAxis:    chart.Style{FontSize: 9},
		YAxis:    chart.YAxis{Style: chart.Style{FontSize: 8}},
		Bars: []chart.Value{
			{Label: "Ingresos", Value: income, Style: chart.Style{FillColor: drawing.ColorFromHex("5A9BD5"), StrokeColor: drawing.ColorFromHex("5A9BD5")}},
			{Label: "Gastos", Value: expenses, Style: chart.Style{FillColor: drawing.ColorFromHex("ED7D31"), StrokeColor: drawing.ColorFromHex("ED7D31")}},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// pieChart plots the positive entries of data; nil when none are positive.
func pieChart(data map[string]decimal.Decimal) ([]byte, []string, error) {
	keys := make([]string, 0, len(data))
	total := decimal.Zero
	for k, v := range data {
		if v.IsPositive() {
			keys = append(keys, k)
			total = total.Add(v)
		}
	}
	if len(keys) == 0 {
		return nil, nil, nil
	}
	sort.Strings(keys)

	values := make([]chart.Value, 0, len(keys))
	legend := make([]string, 0, len(keys))
	for i, k := range keys {
		v := data[k]
		f, _ := v.Float64()
		percent := v.Div(total).Mul(decimal.NewFromInt(100)).Round(0)
		legend = append(legend, fmt.Sprintf("%s - %s (%s%%)", k, Money(v), percent.String()))
		values = append(values, chart.Value{
			Value: f,
			Style: chart.Style{FillColor: chart.GetDefaultColor(i)},
		})
	}
	graph := chart.PieChart{
		Width:  300,
		Height: 200,
		Values: values,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), legend, nil
}
