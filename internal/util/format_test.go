package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatDocument(t *testing.T) {
	assert.Equal(t, "529.982.247-25", FormatDocument("52998224725"))
	assert.Equal(t, "11.222.333/0001-81", FormatDocument("11222333000181"))
	assert.Equal(t, "12-34", FormatDocument("12-34"))
}

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":           "R$ 0,00",
		"5.5":         "R$ 5,50",
		"1150":        "R$ 1.150,00",
		"1234567.891": "R$ 1.234.567,89",
		"-42.1":       "-R$ 42,10",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), in)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("1234567"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("12345678"))
	assert.NoError(t, ValidatePassword("çãõéíóúâ"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("joao@email.com"))
	assert.ErrorIs(t, ValidateEmail("  "), ErrEmailRequired)
	assert.ErrorIs(t, ValidateEmail("joao"), ErrEmailInvalid)
	assert.ErrorIs(t, ValidateEmail("João <joao@email.com>"), ErrEmailInvalid)
}
