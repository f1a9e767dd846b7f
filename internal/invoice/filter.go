package invoice

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Flaviohmm/mei-backend/internal/util"
)

// DefaultOrdering lista as notas mais recentes primeiro.
const DefaultOrdering = "-created_at"

var orderColumns = map[string]string{
	"created_at": "created_at",
	"issue_date": "issue_date",
	"due_date":   "due_date",
	"value":      "value",
}

var searchColumns = []string{"name", "email", "document", "invoice_number", "service_description"}

// Filter restringe e ordena a listagem; campos vazios não filtram.
type Filter struct {
	ClientType    ClientType
	ServiceType   ServiceType
	PaymentMethod PaymentMethod
	State         string
	IsActive      *bool
	Search        string
	StartDate     *time.Time
	EndDate       *time.Time
	Overdue       bool
	Ordering      string
}

// ParseFilter interpreta os parâmetros de consulta da listagem.
func ParseFilter(q url.Values) (Filter, error) {
	verr := util.NewValidationError()
	f := Filter{
		Search:   strings.TrimSpace(q.Get("search")),
		Ordering: DefaultOrdering,
		Overdue:  q.Get("overdue") == "true",
	}

	if v := q.Get("client_type"); v != "" {
		if !slices.Contains(ClientTypes, ClientType(v)) {
			verr.Add("client_type", invalidChoice(v))
		}
		f.ClientType = ClientType(v)
	}
	if v := q.Get("service_type"); v != "" {
		if !slices.Contains(ServiceTypes, ServiceType(v)) {
			verr.Add("service_type", invalidChoice(v))
		}
		f.ServiceType = ServiceType(v)
	}
	if v := q.Get("payment_method"); v != "" {
		if !slices.Contains(PaymentMethods, PaymentMethod(v)) {
			verr.Add("payment_method", invalidChoice(v))
		}
		f.PaymentMethod = PaymentMethod(v)
	}
	if v := q.Get("state"); v != "" {
		if !util.IsValidState(v) {
			verr.Add("state", invalidChoice(v))
		}
		f.State = v
	}
	if v := q.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			verr.Add("is_active", "Informe um valor booleano válido.")
		} else {
			f.IsActive = &active
		}
	}
	if v := q.Get("start_date"); v != "" {
		if t, ok := parseDate(verr, "start_date", v); ok {
			f.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, ok := parseDate(verr, "end_date", v); ok {
			f.EndDate = &t
		}
	}
	if v := strings.TrimSpace(q.Get("ordering")); v != "" {
		if _, ok := orderColumns[strings.TrimPrefix(v, "-")]; ok {
			f.Ordering = v
		}
	}

	if err := verr.OrNil(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func invalidChoice(v string) string {
	return fmt.Sprintf("Faça uma escolha válida. %s não é uma das escolhas disponíveis.", v)
}

// SearchTerms divide a busca em termos; todos precisam casar.
func (f Filter) SearchTerms() []string {
	return strings.Fields(f.Search)
}

// where monta a cláusula WHERE com placeholders numerados a partir de $1.
func (f Filter) where(today time.Time) (string, []any) {
	var (
		clauses []string
		args    []any
		idx     = 1
	)
	add := func(format string, arg any) {
		clauses = append(clauses, fmt.Sprintf(format, idx))
		args = append(args, arg)
		idx++
	}

	if f.ClientType != "" {
		add("client_type = $%d", string(f.ClientType))
	}
	if f.ServiceType != "" {
		add("service_type = $%d", string(f.ServiceType))
	}
	if f.PaymentMethod != "" {
		add("payment_method = $%d", string(f.PaymentMethod))
	}
	if f.State != "" {
		add("state = $%d", f.State)
	}
	if f.IsActive != nil {
		add("is_active = $%d", *f.IsActive)
	}
	if f.StartDate != nil {
		add("issue_date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("issue_date <= $%d", *f.EndDate)
	}
	if f.Overdue {
		add("due_date < $%d AND is_active", today)
	}
	for _, term := range f.SearchTerms() {
		ors := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", col, idx)
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		args = append(args, "%"+escapeLike(term)+"%")
		idx++
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderBy traduz Ordering para SQL; valores desconhecidos caem no padrão.
func (f Filter) orderBy() string {
	ordering := f.Ordering
	col, ok := orderColumns[strings.TrimPrefix(ordering, "-")]
	if !ok {
		ordering = DefaultOrdering
		col = orderColumns["created_at"]
	}
	dir := "ASC"
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
