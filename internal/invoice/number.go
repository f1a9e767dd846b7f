package invoice

import "fmt"

const numberDigits = 6

// FormatNumber monta o número AAAA-NNNNNN.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("%04d-%0*d", year, numberDigits, seq)
}

// NumberPrefix devolve o prefixo comum às notas do ano.
func NumberPrefix(year int) string {
	return fmt.Sprintf("%04d-", year)
}
