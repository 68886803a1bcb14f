package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 8: "H", 12: "L", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for n, want := range cases {
		assert.Equal(t, want, columnLetter(n), "column %d", n)
	}
}

func TestSheetRanges(t *testing.T) {
	events, _ := SchemaFor(TableEvents)
	assert.Equal(t, "'eventos'!A:L", fullRange(events))
	assert.Equal(t, "'eventos'!A3:L3", rowRange(events, 3))

	balances, _ := SchemaFor(TableBalances)
	assert.Equal(t, "'balance_cuentas'!A1:D1", rowRange(balances, 1))
}

func TestCellString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{float64(1500), "1500"},
		{1500.5, "1500.5"},
		{1e21, "1000000000000000000000"},
		{"E001", "E001"},
		{true, "true"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, cellString(c.in))
	}

	d := parseDecimal(cellString(float64(1500)))
	assert.Equal(t, "1500", d.String())
}
