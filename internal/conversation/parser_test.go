package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompleteEntries(t *testing.T) {
	cases := []struct {
		text string
		want Parsed
	}{
		{"depósito 500 Boda María", Parsed{Kind: KindIncome, Amount: "500", Subject: "Boda María"}},
		{"Deposito 1500,50 E001", Parsed{Kind: KindIncome, Amount: "1500.50", Subject: "E001"}},
		{"gasto 120 supermercado", Parsed{Kind: KindExpense, Amount: "120", Subject: "supermercado"}},
		{"compra 80.5 cables XLR", Parsed{Kind: KindExpense, Amount: "80.5", Subject: "cables XLR"}},
		{"transferencia 200 a ahorros", Parsed{Kind: KindTransfer, Amount: "200", Subject: "ahorros"}},
		{"mover 200 Personal", Parsed{Kind: KindTransfer, Amount: "200", Subject: "Personal"}},
		{"500 boda", Parsed{Kind: KindIncome, Amount: "500", Subject: "boda"}},
	}
	for _, tc := range cases {
		got := Parse(tc.text)
		assert.Equal(t, tc.want, got, tc.text)
		assert.True(t, got.Complete(), tc.text)
	}
}

func TestParsePartialEntries(t *testing.T) {
	assert.Equal(t, Parsed{Kind: KindExpense, Partial: PartialStart}, Parse("gasto"))
	assert.Equal(t, Parsed{Kind: KindIncome, Partial: PartialStart}, Parse("ingreso mañana"))
	assert.Equal(t, Parsed{Amount: "45.5", Partial: PartialAmountOnly}, Parse("45,5"))
	assert.Equal(t, Parsed{Subject: "hola bot", Partial: PartialSubject}, Parse("  hola bot "))

	assert.False(t, Parse("gasto").Complete())
	assert.False(t, Parse("45").Complete())
}
