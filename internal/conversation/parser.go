package conversation

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindIncome   Kind = "ingreso"
	KindExpense  Kind = "gasto"
	KindTransfer Kind = "transferencia"
)

// Partial steps reported when the text is not a complete entry.
const (
	PartialStart      = "start"
	PartialAmountOnly = "amount_only"
	PartialSubject    = "event_only"
)

// Parsed is a best-effort reading of a free-text message. Amount keeps the
// user's digits with a dot as decimal separator.
type Parsed struct {
	Kind    Kind
	Amount  string
	Subject string
	Partial string
}

// Complete reports whether kind, amount and subject were all found.
func (p Parsed) Complete() bool {
	return p.Kind != "" && p.Amount != "" && p.Subject != "" && p.Partial == ""
}

const amountPattern = `(\d+(?:[.,]\d+)?)`

var entryPatterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{KindIncome, regexp.MustCompile(`^(?:depósito|deposito|ingreso)\s+` + amountPattern + `\s+(.+)$`)},
	{KindExpense, regexp.MustCompile(`^(?:gasto|pago|compra)\s+` + amountPattern + `\s+(.+)$`)},
	{KindTransfer, regexp.MustCompile(`^(?:transferencia|mover|enviar)\s+` + amountPattern + `\s+(?:a\s+)?(.+)$`)},
	// A bare "500 boda" is read as income.
	{KindIncome, regexp.MustCompile(`^` + amountPattern + `\s+(.+)$`)},
}

var (
	kindWords = map[string]Kind{
		"depósito":      KindIncome,
		"deposito":      KindIncome,
		"ingreso":       KindIncome,
		"gasto":         KindExpense,
		"pago":          KindExpense,
		"compra":        KindExpense,
		"transferencia": KindTransfer,
		"mover":         KindTransfer,
		"enviar":        KindTransfer,
	}
	amountOnly = regexp.MustCompile(`^` + amountPattern + `$`)
)

// Parse matches text against the one-line entry forms ("gasto 120 cena",
// "depósito 500 E001", "transferencia 200 a ahorros", "500 boda").
func Parse(text string) Parsed {
	original := strings.TrimSpace(text)
	normalized := strings.ToLower(original)

	for _, p := range entryPatterns {
		m := p.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		// Keep the subject's original case when lowering kept the byte length.
		subject := m[2]
		if len(original) == len(normalized) {
			subject = original[len(original)-len(m[2]):]
		}
		subject = strings.TrimSpace(subject)
		return Parsed{
			Kind:    p.kind,
			Amount:  strings.Replace(m[1], ",", ".", 1),
			Subject: subject,
		}
	}

	fields := strings.Fields(normalized)
	if len(fields) > 0 {
		if kind, ok := kindWords[fields[0]]; ok {
			return Parsed{Kind: kind, Partial: PartialStart}
		}
	}
	if m := amountOnly.FindStringSubmatch(normalized); m != nil {
		return Parsed{Amount: strings.Replace(m[1], ",", ".", 1), Partial: PartialAmountOnly}
	}
	return Parsed{Subject: original, Partial: PartialSubject}
}
