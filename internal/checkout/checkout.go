// Package checkout проверяет платёжные данные формы оформления заказа.
// Все функции чистые: без состояния, сети и хранилища.
package checkout

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/validation"
)

// Card содержит поля оплаты картой.
type Card struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// Draft описывает черновик оплаты: выбранный способ и его поля. Никогда не сохраняется.
type Draft struct {
	Method      model.PaymentMethod `json:"method"`
	Card        Card                `json:"card"`
	PayPalEmail string              `json:"paypalEmail"`
}

// Поля черновика, которые могут не пройти проверку.
const (
	FieldMethod      = "method"
	FieldCardName    = "card.name"
	FieldCardNumber  = "card.number"
	FieldCardExpiry  = "card.expiry"
	FieldCardCVV     = "card.cvv"
	FieldPayPalEmail = "paypalEmail"
)

// ValidationFailure возвращается, если поля не соответствуют выбранному способу оплаты.
type ValidationFailure struct {
	Method model.PaymentMethod
	Fields []string
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("invalid %s payment details: %s", e.Method, strings.Join(e.Fields, ", "))
}

// Validate проверяет черновик для активного способа оплаты.
func Validate(d Draft, now time.Time) error {
	var bad []string

	switch d.Method {
	case model.PaymentCard:
		if !validation.IsValidCardholderName(d.Card.Name) {
			bad = append(bad, FieldCardName)
		}
		if !validation.IsValidCardNumber(d.Card.Number) {
			bad = append(bad, FieldCardNumber)
		}
		if !validation.IsValidExpiry(d.Card.Expiry, now) {
			bad = append(bad, FieldCardExpiry)
		}
		if !validation.IsValidCVV(d.Card.CVV) {
			bad = append(bad, FieldCardCVV)
		}
	case model.PaymentPayPal:
		if !validation.IsValidPayeeEmail(d.PayPalEmail) {
			bad = append(bad, FieldPayPalEmail)
		}
	case model.PaymentCOD:
	default:
		bad = append(bad, FieldMethod)
	}

	if len(bad) > 0 {
		return &ValidationFailure{Method: d.Method, Fields: bad}
	}
	return nil
}

// CanSubmit сообщает, доступна ли кнопка оплаты: есть личность, черновик валиден
// и предыдущая отправка не выполняется.
func CanSubmit(identity *model.Identity, d Draft, submitting bool, now time.Time) bool {
	if identity == nil || submitting {
		return false
	}
	return Validate(d, now) == nil
}

// Summary возвращает обезличенную сводку об оплате: способ и последние 4 цифры карты
// или адрес плательщика. Полный номер и код безопасности в сводку не попадают.
func Summary(d Draft) model.PaymentSummary {
	s := model.PaymentSummary{Method: d.Method}
	switch d.Method {
	case model.PaymentCard:
		s.Last4 = validation.LastFour(d.Card.Number)
	case model.PaymentPayPal:
		s.PayPalEmail = d.PayPalEmail
	}
	return s
}
