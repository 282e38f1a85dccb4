package invoice

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mmeshcher/novastore/internal/model"
)

func TestPaymentLabel(t *testing.T) {
	tests := []struct {
		name string
		in   *model.PaymentSummary
		want string
	}{
		{name: "none", in: nil, want: "—"},
		{name: "empty method", in: &model.PaymentSummary{}, want: "—"},
		{name: "card", in: &model.PaymentSummary{Method: model.PaymentCard, Last4: "4242"}, want: "Card •••• 4242"},
		{name: "card without digits", in: &model.PaymentSummary{Method: model.PaymentCard}, want: "Card •••• ????"},
		{name: "paypal", in: &model.PaymentSummary{Method: model.PaymentPayPal, PayPalEmail: "a@b.co"}, want: "PayPal a@b.co"},
		{name: "paypal without email", in: &model.PaymentSummary{Method: model.PaymentPayPal}, want: "PayPal"},
		{name: "cod", in: &model.PaymentSummary{Method: model.PaymentCOD}, want: "Cash on Delivery"},
		{name: "unknown", in: &model.PaymentSummary{Method: "voucher"}, want: "voucher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaymentLabel(tt.in))
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []model.Order{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}

	SortNewestFirst(orders)

	assert.Equal(t, "new", orders[0].ID)
	assert.Equal(t, "mid", orders[1].ID)
	assert.Equal(t, "old", orders[2].ID)
}

func sampleOrder() model.Order {
	return model.Order{
		ID:     "o-1",
		Status: model.OrderStatusCreated,
		Items: []model.LineItem{
			{ProductID: "p1", Title: "Cable", Price: decimal.RequireFromString("9.99"), Qty: 3},
			{ProductID: "p2", Title: "Case", Price: decimal.RequireFromString("20"), Qty: 0},
		},
		Payment:   &model.PaymentSummary{Method: model.PaymentCard, Last4: "1111"},
		CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuild(t *testing.T) {
	inv := Build(sampleOrder(), &model.Identity{Name: "Dana", Email: "d@x.io"}, DefaultCompany)

	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "29.97", model.FormatMoney(inv.Lines[0].Subtotal))
	assert.Equal(t, 1, inv.Lines[1].Qty, "quantity is at least one")
	assert.Equal(t, "49.97", model.FormatMoney(inv.Total))
	assert.Equal(t, "Card •••• 1111", inv.Payment)
	assert.Equal(t, BillTo{Name: "Dana", Email: "d@x.io", Address: "—"}, inv.BillTo)
	assert.Equal(t, "NovaStore", inv.Company.Name)
}

func TestBuild_WithoutCustomer(t *testing.T) {
	inv := Build(model.Order{ID: "o-2"}, nil, DefaultCompany)

	assert.Equal(t, "Customer", inv.BillTo.Name)
	assert.Empty(t, inv.Lines)
	assert.True(t, inv.Total.IsZero())
	assert.Equal(t, "—", inv.Payment)
}

func TestWriteXLSX(t *testing.T) {
	inv := Build(sampleOrder(), &model.Identity{Name: "Dana", Email: "d@x.io", Address: "Haifa"}, DefaultCompany)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, inv))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)

	assert.Equal(t, "NovaStore", rows[0][0])
	assert.Equal(t, []string{"Invoice", "#o-1"}, rows[3])
	assert.Equal(t, []string{"Item", "Qty", "Price", "Subtotal"}, rows[12])
	assert.Equal(t, []string{"Cable", "3", "9.99", "29.97"}, rows[13])
	assert.Equal(t, []string{"Total", "", "", "49.97"}, rows[len(rows)-1])
}
