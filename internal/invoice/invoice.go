// Package invoice собирает счёт по заказу и выгружает его в XLSX.
package invoice

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/novastore/internal/model"
)

// Company содержит реквизиты продавца в шапке счёта.
type Company struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// DefaultCompany содержит реквизиты магазина по умолчанию.
var DefaultCompany = Company{
	Name:    "NovaStore",
	Email:   "support@novastore.com",
	Phone:   "+972-52-893-8327",
	Address: "123 Market St, Tel Aviv",
}

// BillTo описывает получателя счёта.
type BillTo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// Line описывает строку счёта.
type Line struct {
	Title    string          `json:"title"`
	Qty      int             `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Invoice описывает счёт по одному заказу.
type Invoice struct {
	OrderID   string            `json:"orderId"`
	CreatedAt time.Time         `json:"createdAt"`
	Status    model.OrderStatus `json:"status"`
	Company   Company           `json:"company"`
	BillTo    BillTo            `json:"billTo"`
	Payment   string            `json:"payment"`
	Lines     []Line            `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
}

// SortNewestFirst упорядочивает заказы по времени создания, новые первыми.
func SortNewestFirst(orders []model.Order) {
	slices.SortStableFunc(orders, func(a, b model.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// PaymentLabel возвращает подпись способа оплаты для счёта.
func PaymentLabel(p *model.PaymentSummary) string {
	if p == nil || p.Method == "" {
		return "—"
	}

	switch p.Method {
	case model.PaymentCard:
		last4 := p.Last4
		if last4 == "" {
			last4 = "????"
		}
		return "Card •••• " + last4
	case model.PaymentPayPal:
		if p.PayPalEmail == "" {
			return "PayPal"
		}
		return "PayPal " + p.PayPalEmail
	case model.PaymentCOD:
		return "Cash on Delivery"
	default:
		return string(p.Method)
	}
}

// Build собирает счёт по заказу. Количество в строке не меньше 1,
// итог равен сумме подытогов строк.
func Build(o model.Order, customer *model.Identity, company Company) Invoice {
	inv := Invoice{
		OrderID:   o.ID,
		CreatedAt: o.CreatedAt,
		Status:    o.Status,
		Company:   company,
		BillTo:    BillTo{Name: "Customer", Address: "—"},
		Payment:   PaymentLabel(o.Payment),
		Lines:     make([]Line, 0, len(o.Items)),
		Total:     decimal.Zero,
	}

	if customer != nil {
		if customer.Name != "" {
			inv.BillTo.Name = customer.Name
		}
		inv.BillTo.Email = customer.Email
		if customer.Address != "" {
			inv.BillTo.Address = customer.Address
		}
	}

	for _, it := range o.Items {
		qty := max(1, it.Qty)
		sub := it.Price.Mul(decimal.NewFromInt(int64(qty)))
		inv.Lines = append(inv.Lines, Line{
			Title:    it.Title,
			Qty:      qty,
			Price:    it.Price,
			Subtotal: sub,
		})
		inv.Total = inv.Total.Add(sub)
	}

	return inv
}
