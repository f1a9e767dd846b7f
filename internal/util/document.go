package util

// Tamanhos dos documentos brasileiros, apenas dígitos.
const (
	CPFLength  = 11
	CNPJLength = 14
)

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateCPF confere tamanho e dígitos verificadores de um CPF, com ou sem máscara.
func ValidateCPF(cpf string) bool {
	digits := OnlyDigits(cpf)
	if len(digits) != CPFLength || allSame(digits) {
		return false
	}

	for i := 9; i < 11; i++ {
		sum := 0
		for pos := 0; pos < i; pos++ {
			sum += digitAt(digits, pos) * ((i + 1) - pos)
		}
		check := ((sum * 10) % 11) % 10
		if check != digitAt(digits, i) {
			return false
		}
	}
	return true
}

// ValidateCNPJ confere tamanho e dígitos verificadores de um CNPJ, com ou sem máscara.
func ValidateCNPJ(cnpj string) bool {
	digits := OnlyDigits(cnpj)
	if len(digits) != CNPJLength || allSame(digits) {
		return false
	}

	return cnpjDigit(digits[:12], cnpjWeights1) == digitAt(digits, 12) &&
		cnpjDigit(digits[:13], cnpjWeights2) == digitAt(digits, 13)
}

// ValidateDocument aceita CPF (11 dígitos) ou CNPJ (14 dígitos).
func ValidateDocument(doc string) bool {
	switch len(OnlyDigits(doc)) {
	case CPFLength:
		return ValidateCPF(doc)
	case CNPJLength:
		return ValidateCNPJ(doc)
	default:
		return false
	}
}

func cnpjDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digitAt(digits, i) * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func digitAt(s string, i int) int {
	return int(s[i] - '0')
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
