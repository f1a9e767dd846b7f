package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientTypeCounts conta notas ativas por tipo de cliente.
type ClientTypeCounts struct {
	PessoaFisica   int `json:"pessoa_fisica"`
	PessoaJuridica int `json:"pessoa_juridica"`
}

// Statistics resume o conjunto filtrado.
type Statistics struct {
	TotalInvoices   int                 `json:"total_invoices"`
	ActiveInvoices  int                 `json:"active_invoices"`
	OverdueInvoices int                 `json:"overdue_invoices"`
	TotalValue      Money               `json:"total_value"`
	ClientTypes     ClientTypeCounts    `json:"client_types"`
	ServiceTypes    map[ServiceType]int `json:"service_types"`
}

// Summarize calcula as estatísticas; apenas notas ativas entram no valor total e nas quebras por tipo.
func Summarize(invoices []Invoice, today time.Time) Statistics {
	stats := Statistics{
		TotalInvoices: len(invoices),
		ServiceTypes:  make(map[ServiceType]int, len(ServiceTypes)),
	}
	for _, st := range ServiceTypes {
		stats.ServiceTypes[st] = 0
	}

	total := decimal.Zero
	for _, inv := range invoices {
		if !inv.IsActive {
			continue
		}
		stats.ActiveInvoices++
		if inv.IsOverdue(today) {
			stats.OverdueInvoices++
		}
		total = total.Add(ComputeTotals(inv.Value, inv.Tax).Total)

		switch inv.ClientType {
		case ClientPF:
			stats.ClientTypes.PessoaFisica++
		case ClientPJ:
			stats.ClientTypes.PessoaJuridica++
		}
		if _, ok := stats.ServiceTypes[inv.ServiceType]; ok {
			stats.ServiceTypes[inv.ServiceType]++
		}
	}
	stats.TotalValue = NewMoney(total)
	return stats
}
