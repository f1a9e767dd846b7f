package invoice

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Flaviohmm/mei-backend/internal/util"
)

const msgRequired = "Este campo é obrigatório."

// Input carrega os campos enviados pelo cliente. Ponteiro nil significa campo ausente.
type Input struct {
	ClientType         *string          `json:"client_type"`
	Document           *string          `json:"document"`
	Name               *string          `json:"name"`
	Email              *string          `json:"email"`
	Phone              *string          `json:"phone"`
	Address            *string          `json:"address"`
	Neighborhood       *string          `json:"neighborhood"`
	City               *string          `json:"city"`
	State              *string          `json:"state"`
	ZipCode            *string          `json:"zip_code"`
	ServiceDescription *string          `json:"service_description"`
	ServiceType        *string          `json:"service_type"`
	Value              *decimal.Decimal `json:"value"`
	Tax                *decimal.Decimal `json:"tax"`
	AdditionalInfo     NullableString   `json:"additional_info"`
	PaymentMethod      *string          `json:"payment_method"`
	DueDate            *string          `json:"due_date"`
	IssueDate          *string          `json:"issue_date"`
}

// NullableString distingue campo ausente (Set=false) de null explícito (Set=true, Value=nil).
type NullableString struct {
	Set   bool
	Value *string
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

type mode int

const (
	modeCreate mode = iota
	modeReplace
	modePatch
)

type textField struct {
	name   string
	value  *string
	target *string
}

func (in Input) textFields(inv *Invoice) []textField {
	return []textField{
		{"client_type", in.ClientType, (*string)(&inv.ClientType)},
		{"document", in.Document, &inv.Document},
		{"name", in.Name, &inv.Name},
		{"email", in.Email, &inv.Email},
		{"phone", in.Phone, &inv.Phone},
		{"address", in.Address, &inv.Address},
		{"neighborhood", in.Neighborhood, &inv.Neighborhood},
		{"city", in.City, &inv.City},
		{"state", in.State, &inv.State},
		{"zip_code", in.ZipCode, &inv.ZipCode},
		{"service_description", in.ServiceDescription, &inv.ServiceDescription},
		{"service_type", in.ServiceType, (*string)(&inv.ServiceType)},
		{"payment_method", in.PaymentMethod, (*string)(&inv.PaymentMethod)},
	}
}

// apply copia os campos presentes para inv e valida o resultado.
// Na criação e na substituição todos os campos obrigatórios devem vir; no PATCH
// só os campos enviados são validados, e a relação entre datas é conferida no registro combinado.
func (in Input) apply(inv *Invoice, m mode, today time.Time) *util.ValidationError {
	verr := util.NewValidationError()
	provided := map[string]bool{}
	requireAll := m != modePatch

	for _, f := range in.textFields(inv) {
		if f.value == nil {
			if requireAll {
				verr.Add(f.name, msgRequired)
			}
			continue
		}
		provided[f.name] = true
		*f.target = strings.TrimSpace(*f.value)
	}
	if in.AdditionalInfo.Set {
		inv.AdditionalInfo = nil
		if in.AdditionalInfo.Value != nil {
			info := strings.TrimSpace(*in.AdditionalInfo.Value)
			inv.AdditionalInfo = &info
		}
	}

	for field, msgs := range util.ValidateStruct(inv).Fields {
		if provided[field] && !verr.Has(field) {
			verr.Fields[field] = append(verr.Fields[field], msgs...)
		}
	}
	if provided["document"] && !verr.Has("document") {
		inv.Document = util.FormatDocument(inv.Document)
	}

	if in.Value != nil {
		inv.Value = decimal.NewNullDecimal(*in.Value)
	}
	if in.Value != nil || m == modeCreate {
		checkValue(verr, inv.Value)
	}
	if in.Tax != nil {
		inv.Tax = decimal.NewNullDecimal(*in.Tax)
		checkTax(verr, *in.Tax)
	}

	datesChanged := false
	if in.IssueDate != nil {
		datesChanged = true
		if t, ok := parseDate(verr, "issue_date", *in.IssueDate); ok {
			inv.IssueDate = t
		}
	}
	if in.DueDate != nil {
		datesChanged = true
		if t, ok := parseDate(verr, "due_date", *in.DueDate); ok {
			inv.DueDate = t
			if t.Before(today) {
				verr.Add("due_date", "A data de vencimento não pode ser anterior à data atual")
			}
		}
	} else if requireAll {
		verr.Add("due_date", msgRequired)
	}
	if m == modeCreate && inv.IssueDate.IsZero() && !verr.Has("issue_date") {
		inv.IssueDate = today
	}

	if datesChanged && !verr.Has("due_date") && !verr.Has("issue_date") &&
		!inv.IssueDate.IsZero() && inv.DueDate.Before(inv.IssueDate) {
		verr.Add(util.NonFieldErrors, "A data de vencimento deve ser posterior à data de emissão")
	}

	return verr
}

func checkValue(verr *util.ValidationError, v decimal.NullDecimal) {
	if !v.Valid || !v.Decimal.IsPositive() {
		verr.Add("value", "O valor deve ser maior que zero")
		return
	}
	checkDigits(verr, "value", v.Decimal, 8)
}

func checkTax(verr *util.ValidationError, d decimal.Decimal) {
	if d.IsNegative() || d.GreaterThan(hundred) {
		verr.Add("tax", "A taxa de imposto deve estar entre 0% e 100%")
		return
	}
	checkDigits(verr, "tax", d, 3)
}

// checkDigits aplica os limites das colunas NUMERIC: duas casas decimais e maxWhole dígitos inteiros.
func checkDigits(verr *util.ValidationError, field string, d decimal.Decimal, maxWhole int) {
	if d.Exponent() < -2 {
		verr.Add(field, "Certifique-se de que não haja mais de 2 casas decimais.")
		return
	}
	if d.Abs().GreaterThanOrEqual(decimal.New(1, int32(maxWhole))) {
		verr.Add(field, fmt.Sprintf("Certifique-se de que não haja mais de %d dígitos antes do ponto decimal.", maxWhole))
	}
}

func parseDate(verr *util.ValidationError, field, raw string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		verr.Add(field, "Formato inválido para data. Use o formato AAAA-MM-DD.")
		return time.Time{}, false
	}
	return t, true
}
