package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatDocument aplica a máscara de CPF ou CNPJ. Outros valores são devolvidos intactos.
func FormatDocument(doc string) string {
	d := OnlyDigits(doc)
	switch len(d) {
	case CPFLength:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case CNPJLength:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
	default:
		return doc
	}
}

// FormatCurrency formata valores em Real: R$ 1.234,56.
func FormatCurrency(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + b.String() + "," + frac
}
