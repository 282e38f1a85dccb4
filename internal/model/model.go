// Package model содержит доменные сущности витрины NovaStore.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Identity представляет авторизованного пользователя, как его вернул удалённый API.
type Identity struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// SignupRequest содержит поля формы регистрации.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`

	// ConfirmPassword проверяется локально и в удалённый API не отправляется.
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// Credentials содержит данные для входа.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate описывает частичное обновление профиля.
type ProfileUpdate struct {
	Name            string `json:"name" validate:"required"`
	Phone           string `json:"phone"`
	Address         string `json:"address"`
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty" validate:"omitempty,min=6"`
}

// Product описывает товар каталога.
type Product struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
	Desc     string          `json:"desc,omitempty"`
	Category string          `json:"cat,omitempty"`
}

// LineItem описывает позицию корзины. Отображаемые поля фиксируются в момент добавления.
type LineItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	Image     string          `json:"image,omitempty"`
	Desc      string          `json:"desc,omitempty"`
}

// Subtotal возвращает стоимость позиции: цена × количество.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Qty)))
}

// PaymentMethod описывает способ оплаты.
type PaymentMethod string

const (
	PaymentCard   PaymentMethod = "card"
	PaymentPayPal PaymentMethod = "paypal"
	PaymentCOD    PaymentMethod = "cod"
)

// PaymentSummary содержит обезличенные сведения об оплате, которые уходят в заказ.
type PaymentSummary struct {
	Method      PaymentMethod `json:"method"`
	Last4       string        `json:"last4,omitempty"`
	PayPalEmail string        `json:"paypalEmail,omitempty"`
}

// OrderRequest описывает тело запроса на создание заказа.
type OrderRequest struct {
	Items   []LineItem      `json:"items"`
	Total   decimal.Decimal `json:"total"`
	UserID  string          `json:"userId"`
	Payment PaymentSummary  `json:"payment"`
}

// OrderStatus описывает статус заказа.
type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusDelivered OrderStatus = "delivered"
)

// Order описывает оформленный заказ пользователя.
type Order struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId,omitempty"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	Payment   *PaymentSummary `json:"payment,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ContactMessage описывает сообщение из формы обратной связи.
// Company служит ловушкой для ботов: люди его не заполняют.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message" validate:"required"`
	Company string `json:"company,omitempty"`
}

// FormatMoney форматирует денежную сумму с двумя знаками после запятой.
func FormatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}
