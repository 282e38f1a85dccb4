// Package service реализует бизнес-логику витрины поверх сессии, корзины и удалённого API.
package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/novastore/internal/cart"
	"github.com/mmeshcher/novastore/internal/catalog"
	"github.com/mmeshcher/novastore/internal/checkout"
	"github.com/mmeshcher/novastore/internal/invoice"
	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/session"
	"github.com/mmeshcher/novastore/internal/validation"
)

var (
	// ErrCheckoutInProgress возвращается при повторной отправке заказа до завершения предыдущей.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound возвращается, если заказа нет среди заказов пользователя.
	ErrOrderNotFound = errors.New("order not found")
)

// API описывает операции удалённого API, используемые сервисом напрямую.
type API interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (*model.Product, error)
	CreateOrder(ctx context.Context, req model.OrderRequest) (string, error)
	ListMyOrders(ctx context.Context, userID string) ([]model.Order, error)
	SendContact(ctx context.Context, msg model.ContactMessage) error
}

// Session описывает держатель сессии.
type Session interface {
	Current() *model.Identity
	Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error)
	Login(ctx context.Context, email, password string) (*model.Identity, error)
	Logout() string
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.Identity, error)
}

// Cart описывает держатель корзины.
type Cart interface {
	Items() []model.LineItem
	Add(p model.Product, qty int)
	SetQuantity(productID string, qty int)
	Remove(productID string)
	Clear()
	Total() decimal.Decimal
}

// CheckoutState описывает состояние формы оплаты для интерфейса.
type CheckoutState struct {
	Valid     bool            `json:"valid"`
	Fields    []string        `json:"invalidFields,omitempty"`
	CanSubmit bool            `json:"canSubmit"`
	Total     decimal.Decimal `json:"total"`
}

// Service содержит бизнес-логику витрины.
type Service struct {
	api     API
	session Session
	cart    Cart
	forms   *validation.FormValidator
	logger  *zap.Logger

	now        func() time.Time
	submitting atomic.Bool
}

// NewService создаёт сервис витрины.
func NewService(api API, sess Session, c Cart, logger *zap.Logger) *Service {
	return &Service{
		api:     api,
		session: sess,
		cart:    c,
		forms:   validation.NewFormValidator(),
		logger:  logger,
		now:     time.Now,
	}
}

// CurrentUser возвращает текущую личность или nil.
func (s *Service) CurrentUser() *model.Identity {
	return s.session.Current()
}

// Signup проверяет форму регистрации и регистрирует пользователя.
func (s *Service) Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)

	if err := s.forms.Struct(req); err != nil {
		return nil, err
	}
	return s.session.Signup(ctx, req)
}

// Login проверяет форму входа и выполняет вход.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.forms.Struct(creds); err != nil {
		return nil, err
	}
	return s.session.Login(ctx, creds.Email, creds.Password)
}

// Logout завершает сессию и возвращает путь для перехода.
func (s *Service) Logout() string {
	return s.session.Logout()
}

// UpdateProfile проверяет форму профиля и отправляет изменения.
func (s *Service) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.Identity, error) {
	if s.session.Current() == nil {
		return nil, session.ErrNotAuthenticated
	}

	upd.Name = strings.TrimSpace(upd.Name)
	upd.Email = strings.TrimSpace(upd.Email)
	upd.Phone = strings.TrimSpace(upd.Phone)
	upd.Address = strings.TrimSpace(upd.Address)

	if err := s.forms.Struct(upd); err != nil {
		return nil, err
	}
	return s.session.UpdateProfile(ctx, upd)
}

// Products возвращает каталог с учётом поиска, категории и сортировки.
func (s *Service) Products(ctx context.Context, q catalog.Query) ([]model.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(products, q), nil
}

// Suggest возвращает подсказки поиска.
func (s *Service) Suggest(ctx context.Context, text string, limit int) ([]model.Product, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Suggest(products, text, limit), nil
}

// TopProducts возвращает самые дорогие товары для главной страницы.
func (s *Service) TopProducts(ctx context.Context, n int) ([]model.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Top(products, n), nil
}

// Product возвращает карточку товара.
func (s *Service) Product(ctx context.Context, productID string) (*model.Product, error) {
	return s.api.GetProduct(ctx, productID)
}

// CartItems возвращает позиции корзины.
func (s *Service) CartItems() []model.LineItem {
	return s.cart.Items()
}

// CartTotal возвращает сумму корзины.
func (s *Service) CartTotal() decimal.Decimal {
	return s.cart.Total()
}

// AddToCart получает актуальную карточку товара и добавляет её снимок в корзину.
func (s *Service) AddToCart(ctx context.Context, productID string, qty int) error {
	p, err := s.api.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	s.cart.Add(*p, qty)
	return nil
}

// SetCartQuantity устанавливает количество позиции.
func (s *Service) SetCartQuantity(productID string, qty int) {
	s.cart.SetQuantity(productID, qty)
}

// RemoveFromCart удаляет позицию из корзины.
func (s *Service) RemoveFromCart(productID string) {
	s.cart.Remove(productID)
}

// ClearCart очищает корзину.
func (s *Service) ClearCart() {
	s.cart.Clear()
}

// CheckoutStatus пересчитывает валидность черновика оплаты и флаг доступности отправки.
func (s *Service) CheckoutStatus(d checkout.Draft) CheckoutState {
	now := s.now()
	st := CheckoutState{
		Valid:     true,
		CanSubmit: checkout.CanSubmit(s.session.Current(), d, s.submitting.Load(), now),
		Total:     s.cart.Total(),
	}

	var vf *checkout.ValidationFailure
	if err := checkout.Validate(d, now); errors.As(err, &vf) {
		st.Valid = false
		st.Fields = vf.Fields
	}
	return st
}

// PlaceOrder проверяет черновик оплаты и создаёт заказ из текущей корзины.
// При успехе корзина очищается; при ошибке корзина и черновик остаются нетронутыми.
func (s *Service) PlaceOrder(ctx context.Context, d checkout.Draft) (string, error) {
	user := s.session.Current()
	if user == nil {
		return "", session.ErrNotAuthenticated
	}

	if err := checkout.Validate(d, s.now()); err != nil {
		return "", err
	}

	if !s.submitting.CompareAndSwap(false, true) {
		return "", ErrCheckoutInProgress
	}
	defer s.submitting.Store(false)

	items := s.cart.Items()
	if len(items) == 0 {
		return "", ErrEmptyCart
	}

	req := model.OrderRequest{
		Items:   items,
		Total:   cart.Total(items),
		UserID:  user.ID,
		Payment: checkout.Summary(d),
	}

	orderID, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		return "", err
	}

	s.cart.Clear()
	s.logger.Info("order placed",
		zap.String("orderID", orderID),
		zap.String("userID", user.ID),
		zap.String("method", string(d.Method)),
		zap.Int("items", len(items)),
	)
	return orderID, nil
}

// MyOrders возвращает заказы текущего пользователя, новые первыми.
func (s *Service) MyOrders(ctx context.Context) ([]model.Order, error) {
	user := s.session.Current()
	if user == nil {
		return nil, session.ErrNotAuthenticated
	}

	orders, err := s.api.ListMyOrders(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	invoice.SortNewestFirst(orders)
	return orders, nil
}

// Invoice собирает счёт по заказу текущего пользователя.
func (s *Service) Invoice(ctx context.Context, orderID string) (*invoice.Invoice, error) {
	orders, err := s.MyOrders(ctx)
	if err != nil {
		return nil, err
	}

	for _, o := range orders {
		if o.ID == orderID {
			inv := invoice.Build(o, s.session.Current(), invoice.DefaultCompany)
			return &inv, nil
		}
	}
	return nil, ErrOrderNotFound
}

// SendContact отправляет сообщение обратной связи. Заполненное поле-ловушка
// означает бота: сообщение молча отбрасывается.
func (s *Service) SendContact(ctx context.Context, msg model.ContactMessage) error {
	if msg.Company != "" {
		s.logger.Info("contact message dropped by honeypot", zap.String("email", msg.Email))
		return nil
	}

	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)

	if err := s.forms.Struct(msg); err != nil {
		return err
	}
	return s.api.SendContact(ctx, msg)
}
