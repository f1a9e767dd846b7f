package invoice

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name      string
		value     decimal.NullDecimal
		tax       decimal.NullDecimal
		taxAmount string
		total     string
	}{
		{"basic", nd("1000.00"), nd("15.00"), "150.00", "1150.00"},
		{"zero tax", nd("250.50"), nd("0"), "0.00", "250.50"},
		{"rounds to cents", nd("10.05"), nd("5"), "0.50", "10.55"},
		{"fractional tax", nd("99.99"), nd("2.5"), "2.50", "102.49"},
		{"missing value", decimal.NullDecimal{}, nd("15"), "0.00", "0.00"},
		{"missing tax", nd("100"), decimal.NullDecimal{}, "0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.value, tt.tax)
			assert.Equal(t, tt.taxAmount, got.TaxAmount.StringFixed(2))
			assert.Equal(t, tt.total, got.Total.StringFixed(2))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "2024-000001", FormatNumber(2024, 1))
	assert.Equal(t, "2024-123456", FormatNumber(2024, 123456))
	assert.Equal(t, "2024-", NumberPrefix(2024))
}

func TestRetryOnNumberCollision(t *testing.T) {
	collision := &pgconn.PgError{Code: "23505", ConstraintName: numberConstraint}

	t.Run("succeeds after collision", func(t *testing.T) {
		calls := 0
		err := retryOnNumberCollision(func() error {
			calls++
			if calls == 1 {
				return fmt.Errorf("inserir: %w", collision)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := retryOnNumberCollision(func() error {
			calls++
			return collision
		})
		assert.ErrorIs(t, err, collision)
		assert.Equal(t, maxNumberRetries, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		other := &pgconn.PgError{Code: "23505", ConstraintName: "outra_constraint"}
		err := retryOnNumberCollision(func() error {
			calls++
			return other
		})
		assert.ErrorIs(t, err, other)
		assert.Equal(t, 1, calls)
	})
}
