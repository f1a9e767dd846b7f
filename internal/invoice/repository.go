package invoice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/Flaviohmm/mei-backend/internal/db"
)

const (
	numberConstraint = "invoices_invoice_number_key"
	maxNumberRetries = 3
)

const invoiceColumns = `id, invoice_number, client_type, document, name, email, phone, address, neighborhood, city, state,
        zip_code, service_description, service_type, value, tax, additional_info, payment_method, due_date, issue_date,
        created_at, updated_at, is_active`

// Repository provê acesso à tabela de notas fiscais.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create reserva o próximo número do ano e insere a nota na mesma transação.
func (r *Repository) Create(ctx context.Context, inv Invoice, year int) (*Invoice, error) {
	var created *Invoice
	err := retryOnNumberCollision(func() error {
		return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
			seq, err := nextNumber(ctx, tx, year)
			if err != nil {
				return fmt.Errorf("reservar número: %w", err)
			}
			inv.InvoiceNumber = FormatNumber(year, seq)
			created, err = insertInvoice(ctx, tx, inv)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// retryOnNumberCollision repete fn quando o número colide com nota gravada em paralelo
// por fora da sequência; a nova transação relê o maior sufixo existente.
func retryOnNumberCollision(fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		constraint, dup := db.UniqueViolation(err)
		if !dup || constraint != numberConstraint || attempt >= maxNumberRetries {
			return err
		}
		log.Warn().Int("attempt", attempt).Msg("número de nota em uso, tentando novamente")
	}
}

// nextNumber incrementa a sequência do ano sem ficar atrás do maior sufixo já gravado,
// inclusive de notas inseridas por fora da sequência.
func nextNumber(ctx context.Context, tx pgx.Tx, year int) (int, error) {
	const query = `
        INSERT INTO invoice_sequences (year, last_value)
        VALUES ($1, COALESCE((
            SELECT MAX(CAST(split_part(invoice_number, '-', 2) AS INTEGER))
            FROM invoices
            WHERE invoice_number LIKE $2
        ), 0) + 1)
        ON CONFLICT (year) DO UPDATE
            SET last_value = GREATEST(invoice_sequences.last_value, EXCLUDED.last_value - 1) + 1
        RETURNING last_value
    `
	var seq int
	err := tx.QueryRow(ctx, query, year, NumberPrefix(year)+"%").Scan(&seq)
	return seq, err
}

func insertInvoice(ctx context.Context, q db.DBTX, inv Invoice) (*Invoice, error) {
	query := `
        INSERT INTO invoices (id, invoice_number, client_type, document, name, email, phone, address, neighborhood, city,
            state, zip_code, service_description, service_type, value, tax, additional_info, payment_method, due_date,
            issue_date, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
        RETURNING ` + invoiceColumns

	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	row := q.QueryRow(ctx, query,
		inv.ID, inv.InvoiceNumber, string(inv.ClientType), inv.Document, inv.Name, inv.Email, inv.Phone,
		inv.Address, inv.Neighborhood, inv.City, inv.State, inv.ZipCode, inv.ServiceDescription,
		string(inv.ServiceType), inv.Value, inv.Tax, inv.AdditionalInfo, string(inv.PaymentMethod),
		inv.DueDate, inv.IssueDate, inv.IsActive,
	)
	return scanInvoice(row)
}

// Get busca uma nota pelo id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return scanInvoice(row)
}

// Update grava todos os campos editáveis; o número nunca muda.
func (r *Repository) Update(ctx context.Context, inv Invoice) (*Invoice, error) {
	query := `
        UPDATE invoices
        SET client_type = $2, document = $3, name = $4, email = $5, phone = $6, address = $7, neighborhood = $8,
            city = $9, state = $10, zip_code = $11, service_description = $12, service_type = $13, value = $14,
            tax = $15, additional_info = $16, payment_method = $17, due_date = $18, issue_date = $19,
            updated_at = now()
        WHERE id = $1
        RETURNING ` + invoiceColumns

	row := r.pool.QueryRow(ctx, query,
		inv.ID, string(inv.ClientType), inv.Document, inv.Name, inv.Email, inv.Phone, inv.Address,
		inv.Neighborhood, inv.City, inv.State, inv.ZipCode, inv.ServiceDescription, string(inv.ServiceType),
		inv.Value, inv.Tax, inv.AdditionalInfo, string(inv.PaymentMethod), inv.DueDate, inv.IssueDate,
	)
	return scanInvoice(row)
}

// Delete remove a nota definitivamente.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive liga ou desliga a nota.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE invoices SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List devolve as notas que atendem ao filtro, já ordenadas.
func (r *Repository) List(ctx context.Context, filter Filter, today time.Time) ([]Invoice, error) {
	where, args := filter.where(today)
	query := `SELECT ` + invoiceColumns + ` FROM invoices` + where + filter.orderBy()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return invoices, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv                                    Invoice
		clientType, serviceType, paymentMethod string
	)
	err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &clientType, &inv.Document, &inv.Name, &inv.Email, &inv.Phone,
		&inv.Address, &inv.Neighborhood, &inv.City, &inv.State, &inv.ZipCode, &inv.ServiceDescription,
		&serviceType, &inv.Value, &inv.Tax, &inv.AdditionalInfo, &paymentMethod, &inv.DueDate,
		&inv.IssueDate, &inv.CreatedAt, &inv.UpdatedAt, &inv.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	inv.ClientType = ClientType(clientType)
	inv.ServiceType = ServiceType(serviceType)
	inv.PaymentMethod = PaymentMethod(paymentMethod)
	return &inv, nil
}
