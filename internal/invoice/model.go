package invoice

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Flaviohmm/mei-backend/internal/util"
)

// ErrNotFound indica nota fiscal inexistente.
var ErrNotFound = errors.New("nota fiscal não encontrada")

// DateLayout é o formato das datas na API.
const DateLayout = "2006-01-02"

// ClientType distingue pessoa física de jurídica.
type ClientType string

const (
	ClientPF ClientType = "pf"
	ClientPJ ClientType = "pj"
)

// ClientTypes lista os tipos de cliente na ordem de exibição.
var ClientTypes = []ClientType{ClientPF, ClientPJ}

// Label devolve o rótulo em português.
func (c ClientType) Label() string {
	switch c {
	case ClientPF:
		return "Pessoa Física"
	case ClientPJ:
		return "Pessoa Jurídica"
	default:
		return string(c)
	}
}

// ServiceType classifica o serviço prestado.
type ServiceType string

const (
	ServiceDev        ServiceType = "dev"
	ServiceDesign     ServiceType = "design"
	ServiceConsulting ServiceType = "consulting"
)

// ServiceTypes lista os tipos de serviço na ordem de exibição.
var ServiceTypes = []ServiceType{ServiceDev, ServiceDesign, ServiceConsulting}

func (s ServiceType) Label() string {
	switch s {
	case ServiceDev:
		return "Desenvolvimento de Software"
	case ServiceDesign:
		return "Design Gráfico"
	case ServiceConsulting:
		return "Consultoria"
	default:
		return string(s)
	}
}

// PaymentMethod é a forma de pagamento combinada.
type PaymentMethod string

const (
	PaymentPix      PaymentMethod = "pix"
	PaymentCredit   PaymentMethod = "credit"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
)

// PaymentMethods lista as formas de pagamento na ordem de exibição.
var PaymentMethods = []PaymentMethod{PaymentPix, PaymentCredit, PaymentTransfer, PaymentCash}

func (p PaymentMethod) Label() string {
	switch p {
	case PaymentPix:
		return "PIX"
	case PaymentCredit:
		return "Cartão de Crédito"
	case PaymentTransfer:
		return "Transferência Bancária"
	case PaymentCash:
		return "Dinheiro"
	default:
		return string(p)
	}
}

// Invoice é a nota fiscal de serviço.
type Invoice struct {
	ID                 uuid.UUID           `json:"id"`
	InvoiceNumber      string              `json:"invoice_number"`
	ClientType         ClientType          `json:"client_type" validate:"required,oneof=pf pj"`
	Document           string              `json:"document" validate:"required,document"`
	Name               string              `json:"name" validate:"required,max=200"`
	Email              string              `json:"email" validate:"required,email,max=254"`
	Phone              string              `json:"phone" validate:"required,br_phone"`
	Address            string              `json:"address" validate:"required,max=200"`
	Neighborhood       string              `json:"neighborhood" validate:"required,max=100"`
	City               string              `json:"city" validate:"required,max=100"`
	State              string              `json:"state" validate:"required,uf"`
	ZipCode            string              `json:"zip_code" validate:"required,cep"`
	ServiceDescription string              `json:"service_description" validate:"required"`
	ServiceType        ServiceType         `json:"service_type" validate:"required,oneof=dev design consulting"`
	Value              decimal.NullDecimal `json:"value"`
	Tax                decimal.NullDecimal `json:"tax"`
	AdditionalInfo     *string             `json:"additional_info"`
	PaymentMethod      PaymentMethod       `json:"payment_method" validate:"required,oneof=pix credit transfer cash"`
	DueDate            time.Time           `json:"due_date"`
	IssueDate          time.Time           `json:"issue_date"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	IsActive           bool                `json:"is_active"`
}

func (inv Invoice) String() string {
	return "NF " + inv.InvoiceNumber + " - " + inv.Name
}

// IsOverdue indica nota ativa com vencimento anterior a today.
func (inv Invoice) IsOverdue(today time.Time) bool {
	return inv.IsActive && inv.DueDate.Before(today)
}

// Money serializa valores monetários com duas casas: "1150.00".
type Money struct {
	decimal.Decimal
}

// NewMoney envolve um decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}

func nullableMoney(d decimal.NullDecimal) *Money {
	if !d.Valid {
		return nil
	}
	m := NewMoney(d.Decimal)
	return &m
}

// Detail é a representação completa da nota.
type Detail struct {
	ID                   string        `json:"id"`
	InvoiceNumber        string        `json:"invoice_number"`
	ClientType           ClientType    `json:"client_type"`
	ClientTypeDisplay    string        `json:"client_type_display"`
	Document             string        `json:"document"`
	Name                 string        `json:"name"`
	Email                string        `json:"email"`
	Phone                string        `json:"phone"`
	Address              string        `json:"address"`
	Neighborhood         string        `json:"neighborhood"`
	City                 string        `json:"city"`
	State                string        `json:"state"`
	StateDisplay         string        `json:"state_display"`
	ZipCode              string        `json:"zip_code"`
	ServiceDescription   string        `json:"service_description"`
	ServiceType          ServiceType   `json:"service_type"`
	ServiceTypeDisplay   string        `json:"service_type_display"`
	Value                *Money        `json:"value"`
	Tax                  *Money        `json:"tax"`
	AdditionalInfo       *string       `json:"additional_info"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	PaymentMethodDisplay string        `json:"payment_method_display"`
	DueDate              string        `json:"due_date"`
	IssueDate            string        `json:"issue_date"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	IsActive             bool          `json:"is_active"`
	TotalValue           Money         `json:"total_value"`
	TaxAmount            Money         `json:"tax_amount"`
	DisplayTotal         string        `json:"display_total"`
}

// Summary é a representação enxuta usada na listagem.
type Summary struct {
	ID            string      `json:"id"`
	InvoiceNumber string      `json:"invoice_number"`
	Name          string      `json:"name"`
	ServiceType   ServiceType `json:"service_type"`
	Value         *Money      `json:"value"`
	TotalValue    Money       `json:"total_value"`
	DueDate       string      `json:"due_date"`
	IssueDate     string      `json:"issue_date"`
	CreatedAt     time.Time   `json:"created_at"`
	IsActive      bool        `json:"is_active"`
}

// Detail monta a representação completa com os valores calculados.
func (inv Invoice) Detail() Detail {
	totals := ComputeTotals(inv.Value, inv.Tax)
	return Detail{
		ID:                   inv.ID.String(),
		InvoiceNumber:        inv.InvoiceNumber,
		ClientType:           inv.ClientType,
		ClientTypeDisplay:    inv.ClientType.Label(),
		Document:             inv.Document,
		Name:                 inv.Name,
		Email:                inv.Email,
		Phone:                inv.Phone,
		Address:              inv.Address,
		Neighborhood:         inv.Neighborhood,
		City:                 inv.City,
		State:                inv.State,
		StateDisplay:         util.States[inv.State],
		ZipCode:              inv.ZipCode,
		ServiceDescription:   inv.ServiceDescription,
		ServiceType:          inv.ServiceType,
		ServiceTypeDisplay:   inv.ServiceType.Label(),
		Value:                nullableMoney(inv.Value),
		Tax:                  nullableMoney(inv.Tax),
		AdditionalInfo:       inv.AdditionalInfo,
		PaymentMethod:        inv.PaymentMethod,
		PaymentMethodDisplay: inv.PaymentMethod.Label(),
		DueDate:              formatDate(inv.DueDate),
		IssueDate:            formatDate(inv.IssueDate),
		CreatedAt:            inv.CreatedAt,
		UpdatedAt:            inv.UpdatedAt,
		IsActive:             inv.IsActive,
		TotalValue:           NewMoney(totals.Total),
		TaxAmount:            NewMoney(totals.TaxAmount),
		DisplayTotal:         util.FormatCurrency(totals.Total),
	}
}

// Summary monta a representação de listagem.
func (inv Invoice) Summary() Summary {
	totals := ComputeTotals(inv.Value, inv.Tax)
	return Summary{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		Name:          inv.Name,
		ServiceType:   inv.ServiceType,
		Value:         nullableMoney(inv.Value),
		TotalValue:    NewMoney(totals.Total),
		DueDate:       formatDate(inv.DueDate),
		IssueDate:     formatDate(inv.IssueDate),
		CreatedAt:     inv.CreatedAt,
		IsActive:      inv.IsActive,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
