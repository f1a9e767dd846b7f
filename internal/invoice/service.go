package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Flaviohmm/mei-backend/internal/util"
)

// Store é a persistência usada pelo serviço.
type Store interface {
	Create(ctx context.Context, inv Invoice, year int) (*Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, inv Invoice) (*Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, filter Filter, today time.Time) ([]Invoice, error)
}

// Service reúne as regras de negócio das notas fiscais.
// O usuário autenticado chega explicitamente em cada operação.
type Service struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewService cria uma nova instância do serviço.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		now:    util.Now,
		logger: logger.With().Str("component", "invoices").Logger(),
	}
}

func (s *Service) today() time.Time {
	return util.Today(s.now())
}

// Export é o conjunto filtrado completo para relatórios.
type Export struct {
	Invoices   []Detail  `json:"invoices"`
	TotalCount int       `json:"total_count"`
	ExportDate time.Time `json:"export_date"`
}

// Create valida os campos, atribui o número e grava a nota.
func (s *Service) Create(ctx context.Context, caller uuid.UUID, in Input) (*Invoice, error) {
	now := s.now()
	draft := Invoice{
		Value:    decimal.NewNullDecimal(decimal.Zero),
		Tax:      decimal.NewNullDecimal(decimal.Zero),
		IsActive: true,
	}
	if err := in.apply(&draft, modeCreate, util.Today(now)).OrNil(); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, draft, now.Year())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", caller.String()).Str("invoice_id", created.ID.String()).
		Str("invoice_number", created.InvoiceNumber).Msg("nota fiscal criada")
	return created, nil
}

// Update substitui (partial=false) ou altera parcialmente (partial=true) a nota.
func (s *Service) Update(ctx context.Context, caller, id uuid.UUID, in Input, partial bool) (*Invoice, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m := modeReplace
	if partial {
		m = modePatch
	}
	merged := *current
	if err := in.apply(&merged, m, s.today()).OrNil(); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, merged)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", caller.String()).Str("invoice_id", id.String()).Bool("partial", partial).Msg("nota fiscal atualizada")
	return updated, nil
}

// Get recupera uma nota.
func (s *Service) Get(ctx context.Context, caller, id uuid.UUID) (*Invoice, error) {
	s.logger.Debug().Str("user_id", caller.String()).Str("invoice_id", id.String()).Msg("consulta nota fiscal")
	return s.store.Get(ctx, id)
}

// Delete remove a nota definitivamente.
func (s *Service) Delete(ctx context.Context, caller, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", caller.String()).Str("invoice_id", id.String()).Msg("nota fiscal removida")
	return nil
}

// Activate reativa a nota.
func (s *Service) Activate(ctx context.Context, caller, id uuid.UUID) error {
	return s.setActive(ctx, caller, id, true)
}

// Deactivate desativa a nota sem removê-la.
func (s *Service) Deactivate(ctx context.Context, caller, id uuid.UUID) error {
	return s.setActive(ctx, caller, id, false)
}

func (s *Service) setActive(ctx context.Context, caller, id uuid.UUID, active bool) error {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", caller.String()).Str("invoice_id", id.String()).Bool("active", active).Msg("status da nota alterado")
	return nil
}

// List devolve as notas do filtro.
func (s *Service) List(ctx context.Context, caller uuid.UUID, filter Filter) ([]Invoice, error) {
	s.logger.Debug().Str("user_id", caller.String()).Msg("listagem de notas")
	return s.store.List(ctx, filter, s.today())
}

// Statistics calcula contagens e somas sobre o conjunto filtrado.
func (s *Service) Statistics(ctx context.Context, caller uuid.UUID, filter Filter) (*Statistics, error) {
	today := s.today()
	invoices, err := s.store.List(ctx, filter, today)
	if err != nil {
		return nil, err
	}
	stats := Summarize(invoices, today)
	s.logger.Debug().Str("user_id", caller.String()).Int("total", stats.TotalInvoices).Msg("estatísticas de notas")
	return &stats, nil
}

// Export serializa o conjunto filtrado completo com a data da exportação.
func (s *Service) Export(ctx context.Context, caller uuid.UUID, filter Filter) (*Export, error) {
	now := s.now()
	invoices, err := s.store.List(ctx, filter, util.Today(now))
	if err != nil {
		return nil, err
	}

	details := make([]Detail, len(invoices))
	for i, inv := range invoices {
		details[i] = inv.Detail()
	}
	s.logger.Info().Str("user_id", caller.String()).Int("count", len(details)).Msg("exportação de notas")
	return &Export{Invoices: details, TotalCount: len(details), ExportDate: now}, nil
}
