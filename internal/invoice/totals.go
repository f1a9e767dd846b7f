package invoice

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals reúne os valores derivados de uma nota.
type Totals struct {
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// ComputeTotals calcula imposto (value × tax/100) e total, arredondados a duas casas.
// Valor ou alíquota ausentes resultam em zero para ambos.
func ComputeTotals(value, tax decimal.NullDecimal) Totals {
	if !value.Valid || !tax.Valid {
		return Totals{TaxAmount: decimal.Zero, Total: decimal.Zero}
	}
	taxAmount := value.Decimal.Mul(tax.Decimal).Div(hundred).Round(2)
	return Totals{
		TaxAmount: taxAmount,
		Total:     value.Decimal.Add(taxAmount).Round(2),
	}
}
