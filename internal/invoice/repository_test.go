package invoice

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flaviohmm/mei-backend/internal/db"
)

// Anos fora do calendário real isolam os dados de cada teste.
const (
	yearConcurrent = 2091
	yearSeeded     = 2092
	yearCollision  = 2093
	yearCRUD       = 2094
)

func newTestRepository(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN não definido; testes de repositório ignorados")
	}
	require.NoError(t, db.MigrateUp(dsn))

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)

	years := []int{yearConcurrent, yearSeeded, yearCollision, yearCRUD}
	cleanup := func() {
		for _, year := range years {
			_, err := pool.Exec(ctx, `DELETE FROM invoices WHERE invoice_number LIKE $1`, NumberPrefix(year)+"%")
			require.NoError(t, err)
			_, err = pool.Exec(ctx, `DELETE FROM invoice_sequences WHERE year = $1`, year)
			require.NoError(t, err)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		pool.Close()
	})

	return NewRepository(pool), pool
}

func draftInvoice(name string) Invoice {
	due := time.Date(2030, 1, 31, 0, 0, 0, 0, time.UTC)
	return Invoice{
		ClientType:         ClientPF,
		Document:           "529.982.247-25",
		Name:               name,
		Email:              "cliente@email.com",
		Phone:              "(11) 99999-1234",
		Address:            "Rua Teste, 123",
		Neighborhood:       "Centro",
		City:               "São Paulo",
		State:              "SP",
		ZipCode:            "01234-567",
		ServiceDescription: "Serviço",
		ServiceType:        ServiceDev,
		Value:              nd("1000.00"),
		Tax:                nd("15.00"),
		PaymentMethod:      PaymentPix,
		IssueDate:          due.AddDate(0, 0, -30),
		DueDate:            due,
		IsActive:           true,
	}
}

func TestRepositoryCreateConcurrentNumbering(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	const n = 25
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := repo.Create(ctx, draftInvoice(fmt.Sprintf("Cliente %d", i)), yearConcurrent)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, created.InvoiceNumber)
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	want := make([]string, n)
	for i := range want {
		want[i] = FormatNumber(yearConcurrent, i+1)
	}
	assert.Equal(t, want, numbers)
}

func TestRepositoryCreateSeedsFromExistingSuffix(t *testing.T) {
	repo, pool := newTestRepository(t)
	ctx := context.Background()

	legacy := draftInvoice("Nota importada")
	legacy.InvoiceNumber = FormatNumber(yearSeeded, 41)
	_, err := insertInvoice(ctx, pool, legacy)
	require.NoError(t, err)

	first, err := repo.Create(ctx, draftInvoice("Primeira"), yearSeeded)
	require.NoError(t, err)
	assert.Equal(t, FormatNumber(yearSeeded, 42), first.InvoiceNumber)

	second, err := repo.Create(ctx, draftInvoice("Segunda"), yearSeeded)
	require.NoError(t, err)
	assert.Equal(t, FormatNumber(yearSeeded, 43), second.InvoiceNumber)
}

func TestRepositoryCreateSkipsNumbersTakenOutsideSequence(t *testing.T) {
	repo, pool := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, draftInvoice("Primeira"), yearCollision)
	require.NoError(t, err)
	require.Equal(t, FormatNumber(yearCollision, 1), first.InvoiceNumber)

	// Nota gravada por fora da sequência ocupa o próximo número.
	outside := draftInvoice("Fora da sequência")
	outside.InvoiceNumber = FormatNumber(yearCollision, 2)
	_, err = insertInvoice(ctx, pool, outside)
	require.NoError(t, err)

	next, err := repo.Create(ctx, draftInvoice("Segunda"), yearCollision)
	require.NoError(t, err)
	assert.Equal(t, FormatNumber(yearCollision, 3), next.InvoiceNumber)
}

func TestRepositoryCRUD(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, draftInvoice("Maria"), yearCRUD)
	require.NoError(t, err)
	assert.Equal(t, "1000", created.Value.Decimal.String())
	assert.Nil(t, created.AdditionalInfo)

	info := "Pagamento em duas parcelas"
	created.Name = "Maria Souza"
	created.AdditionalInfo = &info
	updated, err := repo.Update(ctx, *created)
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", updated.Name)
	assert.Equal(t, created.InvoiceNumber, updated.InvoiceNumber)
	require.NotNil(t, updated.AdditionalInfo)

	require.NoError(t, repo.SetActive(ctx, created.ID, false))
	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	inactive := false
	listed, err := repo.List(ctx, Filter{IsActive: &inactive, Search: created.InvoiceNumber, Ordering: DefaultOrdering}, testToday)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), ErrNotFound)
}
