package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleInvoice(client ClientType, service ServiceType, value, tax string, due time.Time, active bool) Invoice {
	return Invoice{
		ClientType:  client,
		ServiceType: service,
		Value:       nd(value),
		Tax:         nd(tax),
		DueDate:     due,
		IssueDate:   due.AddDate(0, 0, -30),
		IsActive:    active,
	}
}

func TestSummarize(t *testing.T) {
	past := testToday.AddDate(0, 0, -1)
	future := testToday.AddDate(0, 0, 10)

	invoices := []Invoice{
		sampleInvoice(ClientPF, ServiceDev, "1000.00", "15.00", future, true),
		sampleInvoice(ClientPJ, ServiceDev, "500.00", "10.00", past, true),
		sampleInvoice(ClientPJ, ServiceConsulting, "200.00", "0", testToday, true),
		sampleInvoice(ClientPF, ServiceDesign, "9999.00", "5.00", past, false),
	}

	stats := Summarize(invoices, testToday)
	assert.Equal(t, 4, stats.TotalInvoices)
	assert.Equal(t, 3, stats.ActiveInvoices)
	assert.Equal(t, 1, stats.OverdueInvoices)
	assert.Equal(t, "1900.00", stats.TotalValue.StringFixed(2))
	assert.Equal(t, ClientTypeCounts{PessoaFisica: 1, PessoaJuridica: 2}, stats.ClientTypes)
	assert.Equal(t, map[ServiceType]int{ServiceDev: 2, ServiceDesign: 0, ServiceConsulting: 1}, stats.ServiceTypes)
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, testToday)
	assert.Zero(t, stats.TotalInvoices)
	assert.Equal(t, "0.00", stats.TotalValue.StringFixed(2))
	assert.Len(t, stats.ServiceTypes, len(ServiceTypes))
}

func TestInvoiceDetail(t *testing.T) {
	inv := sampleInvoice(ClientPF, ServiceDev, "1000.00", "15.00", testToday, true)
	inv.InvoiceNumber = FormatNumber(2024, 7)
	inv.Name = "João Silva"
	inv.State = "SP"
	inv.PaymentMethod = PaymentPix

	d := inv.Detail()
	assert.Equal(t, "2024-000007", d.InvoiceNumber)
	assert.Equal(t, "Pessoa Física", d.ClientTypeDisplay)
	assert.Equal(t, "Desenvolvimento de Software", d.ServiceTypeDisplay)
	assert.Equal(t, "PIX", d.PaymentMethodDisplay)
	assert.Equal(t, "São Paulo", d.StateDisplay)
	assert.Equal(t, "1150.00", d.TotalValue.StringFixed(2))
	assert.Equal(t, "150.00", d.TaxAmount.StringFixed(2))
	assert.Equal(t, "R$ 1.150,00", d.DisplayTotal)
	assert.Equal(t, "2024-05-10", d.DueDate)
	assert.Equal(t, "NF 2024-000007 - João Silva", inv.String())

	raw, err := NewMoney(d.TotalValue.Decimal).MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"1150.00"`, string(raw))
}

func TestIsOverdue(t *testing.T) {
	assert.True(t, sampleInvoice(ClientPF, ServiceDev, "1", "0", testToday.AddDate(0, 0, -1), true).IsOverdue(testToday))
	assert.False(t, sampleInvoice(ClientPF, ServiceDev, "1", "0", testToday, true).IsOverdue(testToday))
	assert.False(t, sampleInvoice(ClientPF, ServiceDev, "1", "0", testToday.AddDate(0, 0, -1), false).IsOverdue(testToday))
}
