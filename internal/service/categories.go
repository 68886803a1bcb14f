package service

import "strings"

const CategoryGeneralExpense = "gasto_general"

var expenseKeywords = []struct {
	category string
	words    []string
}{
	{"marketing", []string{"publicidad", "promo", "marketing"}},
	{"equipo", []string{"equipo", "compra"}},
	{"transporte", []string{"transporte", "gasolina"}},
	{"comida", []string{"comida", "almuerzo", "cena", "restaurante"}},
	{"alquiler", []string{"alquiler", "renta"}},
}

// ClassifyExpense picks a category from keywords in the description.
// The first matching row of the table wins.
func ClassifyExpense(description string) string {
	d := strings.ToLower(description)
	for _, row := range expenseKeywords {
		for _, w := range row.words {
			if strings.Contains(d, w) {
				return row.category
			}
		}
	}
	return CategoryGeneralExpense
}
