// Package handler содержит HTTP-обработчики API витрины.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/novastore/internal/catalog"
	"github.com/mmeshcher/novastore/internal/checkout"
	"github.com/mmeshcher/novastore/internal/invoice"
	"github.com/mmeshcher/novastore/internal/middleware"
	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/remote"
	"github.com/mmeshcher/novastore/internal/service"
	"github.com/mmeshcher/novastore/internal/session"
	"github.com/mmeshcher/novastore/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	CurrentUser() *model.Identity
	Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error)
	Login(ctx context.Context, creds model.Credentials) (*model.Identity, error)
	Logout() string
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.Identity, error)

	Products(ctx context.Context, q catalog.Query) ([]model.Product, error)
	Suggest(ctx context.Context, text string, limit int) ([]model.Product, error)
	TopProducts(ctx context.Context, n int) ([]model.Product, error)
	Product(ctx context.Context, productID string) (*model.Product, error)

	CartItems() []model.LineItem
	CartTotal() decimal.Decimal
	AddToCart(ctx context.Context, productID string, qty int) error
	SetCartQuantity(productID string, qty int)
	RemoveFromCart(productID string)
	ClearCart()

	CheckoutStatus(d checkout.Draft) service.CheckoutState
	PlaceOrder(ctx context.Context, d checkout.Draft) (string, error)
	MyOrders(ctx context.Context) ([]model.Order, error)
	Invoice(ctx context.Context, orderID string) (*invoice.Invoice, error)
	SendContact(ctx context.Context, msg model.ContactMessage) error
}

// Handler реализует HTTP-обработчики API витрины.
type Handler struct {
	service           Service
	logger            *zap.Logger
	sessionMiddleware *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service:           s,
		logger:            logger,
		sessionMiddleware: middleware.NewSessionMiddleware(currentUser{s}),
	}
}

// currentUser отдаёт middleware текущую личность из сервиса.
type currentUser struct {
	service Service
}

func (c currentUser) Current() *model.Identity {
	return c.service.CurrentUser()
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит ошибку сервиса в HTTP-ответ. Сообщения удалённого API
// передаются клиенту без изменений.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var (
		rej  *remote.RemoteRejection
		form *validation.FormError
		vf   *checkout.ValidationFailure
	)

	switch {
	case errors.As(err, &rej):
		status := rej.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorResponse{Error: rej.Message})
	case errors.As(err, &form):
		msg := "Please fill required fields"
		fields := make([]string, 0, len(form.Fields))
		for _, f := range form.Fields {
			fields = append(fields, f.Field)
			if f.Rule == "eqfield" {
				msg = "Passwords do not match"
			}
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Fields: fields})
	case errors.As(err, &vf):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Please fill payment details correctly", Fields: vf.Fields})
	case errors.Is(err, session.ErrNotAuthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Please log in"})
	case errors.Is(err, service.ErrCheckoutInProgress):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "Order is already being placed"})
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "Your cart is empty"})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Order not found"})
	default:
		h.logger.Error(op+" error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: http.StatusText(http.StatusBadRequest)})
		return false
	}
	return true
}

// Signup обрабатывает регистрацию; при успехе пользователь сразу авторизован.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decode(w, r, &req) {
		return
	}

	id, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.writeError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// Login выполняет вход.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.Credentials
	if !decode(w, r, &req) {
		return
	}

	id, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// Logout завершает сессию и сообщает интерфейсу, куда перейти.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"redirect": h.service.Logout()})
}

// GetSession возвращает текущую личность или 204 без сессии.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := h.service.CurrentUser()
	if id == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

// UpdateProfile сохраняет изменения профиля текущего пользователя.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}

	id, err := h.service.UpdateProfile(r.Context(), req)
	if err != nil {
		h.writeError(w, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, id)
}

type productResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Image    string `json:"image,omitempty"`
	Desc     string `json:"desc,omitempty"`
	Category string `json:"cat,omitempty"`
}

func toProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:       p.ID,
		Title:    p.Title,
		Price:    model.FormatMoney(p.Price),
		Image:    p.Image,
		Desc:     p.Desc,
		Category: p.Category,
	}
}

func toProductsResponse(ps []model.Product) []productResponse {
	resp := make([]productResponse, 0, len(ps))
	for _, p := range ps {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}

func intParam(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

// ListProducts возвращает каталог с учётом параметров q, cat и sort.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := catalog.Query{
		Text:     r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("cat"),
		Sort:     catalog.Sort(r.URL.Query().Get("sort")),
	}

	products, err := h.service.Products(r.Context(), q)
	if err != nil {
		h.writeError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductsResponse(products))
}

// SuggestProducts возвращает подсказки для строки поиска.
func (h *Handler) SuggestProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Suggest(r.Context(), r.URL.Query().Get("q"), intParam(r, "limit"))
	if err != nil {
		h.writeError(w, "suggest products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductsResponse(products))
}

// TopProducts возвращает самые дорогие товары.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.TopProducts(r.Context(), intParam(r, "n"))
	if err != nil {
		h.writeError(w, "top products", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductsResponse(products))
}

// ListCategories возвращает разделы каталога.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

// GetProduct возвращает карточку товара.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

type lineItemResponse struct {
	ProductID string `json:"productId"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Qty       int    `json:"qty"`
	Subtotal  string `json:"subtotal"`
	Image     string `json:"image,omitempty"`
	Desc      string `json:"desc,omitempty"`
}

type cartResponse struct {
	Items []lineItemResponse `json:"items"`
	Total string             `json:"total"`
}

func (h *Handler) cartResponse() cartResponse {
	items := h.service.CartItems()
	resp := cartResponse{
		Items: make([]lineItemResponse, 0, len(items)),
		Total: model.FormatMoney(h.service.CartTotal()),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, lineItemResponse{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     model.FormatMoney(it.Price),
			Qty:       it.Qty,
			Subtotal:  model.FormatMoney(it.Subtotal()),
			Image:     it.Image,
			Desc:      it.Desc,
		})
	}
	return resp
}

// GetCart возвращает позиции корзины и итог.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cartResponse())
}

// quantity принимает число или строку из поля ввода.
type quantity struct {
	value int
}

func (q *quantity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		q.value = validation.SanitizeQuantity(s)
		return nil
	}
	return json.Unmarshal(b, &q.value)
}

type addItemRequest struct {
	ProductID string    `json:"productId"`
	Qty       *quantity `json:"qty"`
}

// AddCartItem добавляет товар в корзину.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "productId is required"})
		return
	}

	qty := 1
	if req.Qty != nil {
		qty = req.Qty.value
	}

	if err := h.service.AddToCart(r.Context(), req.ProductID, qty); err != nil {
		h.writeError(w, "add cart item", err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartResponse())
}

type setQuantityRequest struct {
	Qty quantity `json:"qty"`
}

// SetCartItemQuantity устанавливает количество позиции.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decode(w, r, &req) {
		return
	}

	h.service.SetCartQuantity(chi.URLParam(r, "id"), req.Qty.value)
	writeJSON(w, http.StatusOK, h.cartResponse())
}

// RemoveCartItem удаляет позицию из корзины.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.service.RemoveFromCart(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, h.cartResponse())
}

// ClearCart очищает корзину.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCart()
	writeJSON(w, http.StatusOK, h.cartResponse())
}

type formattedDraft struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

type checkoutStatusResponse struct {
	Valid         bool           `json:"valid"`
	InvalidFields []string       `json:"invalidFields,omitempty"`
	CanSubmit     bool           `json:"canSubmit"`
	Total         string         `json:"total"`
	Formatted     formattedDraft `json:"formatted"`
}

// ValidateCheckout пересчитывает валидность формы оплаты; вызывается на каждое изменение ввода.
func (h *Handler) ValidateCheckout(w http.ResponseWriter, r *http.Request) {
	var d checkout.Draft
	if !decode(w, r, &d) {
		return
	}

	st := h.service.CheckoutStatus(d)
	writeJSON(w, http.StatusOK, checkoutStatusResponse{
		Valid:         st.Valid,
		InvalidFields: st.Fields,
		CanSubmit:     st.CanSubmit,
		Total:         model.FormatMoney(st.Total),
		Formatted: formattedDraft{
			Number: validation.FormatCardNumber(d.Card.Number),
			Expiry: validation.FormatExpiry(d.Card.Expiry),
			CVV:    validation.SanitizeCVV(d.Card.CVV),
		},
	})
}

// PlaceOrder оформляет заказ из корзины.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var d checkout.Draft
	if !decode(w, r, &d) {
		return
	}

	orderID, err := h.service.PlaceOrder(r.Context(), d)
	if err != nil {
		h.writeError(w, "place order", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"orderId":  orderID,
		"redirect": "/order-success/" + orderID,
	})
}

type orderResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Total     string `json:"total"`
	Payment   string `json:"payment"`
	Items     int    `json:"items"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// GetOrders возвращает заказы текущего пользователя, новые первыми.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.MyOrders(r.Context())
	if err != nil {
		h.writeError(w, "get orders", err)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		created := ""
		if !o.CreatedAt.IsZero() {
			created = o.CreatedAt.Format(time.RFC3339)
		}
		resp = append(resp, orderResponse{
			ID:        o.ID,
			Status:    string(o.Status),
			Total:     model.FormatMoney(o.Total),
			Payment:   invoice.PaymentLabel(o.Payment),
			Items:     len(o.Items),
			CreatedAt: created,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type invoiceLineResponse struct {
	Title    string `json:"title"`
	Qty      int    `json:"qty"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

type invoiceResponse struct {
	OrderID   string                `json:"orderId"`
	CreatedAt string                `json:"createdAt,omitempty"`
	Status    string                `json:"status"`
	Company   invoice.Company       `json:"company"`
	BillTo    invoice.BillTo        `json:"billTo"`
	Payment   string                `json:"payment"`
	Lines     []invoiceLineResponse `json:"lines"`
	Total     string                `json:"total"`
}

// GetInvoice возвращает счёт по заказу в JSON или XLSX (format=xlsx).
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	inv, err := h.service.Invoice(r.Context(), orderID)
	if err != nil {
		h.writeError(w, "get invoice", err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="invoice_`+orderID+`.xlsx"`)
		if err := invoice.WriteXLSX(w, *inv); err != nil {
			h.logger.Error("write invoice xlsx error", zap.Error(err), zap.String("order", orderID))
		}
		return
	}

	resp := invoiceResponse{
		OrderID: inv.OrderID,
		Status:  string(inv.Status),
		Company: inv.Company,
		BillTo:  inv.BillTo,
		Payment: inv.Payment,
		Lines:   make([]invoiceLineResponse, 0, len(inv.Lines)),
		Total:   model.FormatMoney(inv.Total),
	}
	if !inv.CreatedAt.IsZero() {
		resp.CreatedAt = inv.CreatedAt.Format(time.RFC3339)
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, invoiceLineResponse{
			Title:    l.Title,
			Qty:      l.Qty,
			Price:    model.FormatMoney(l.Price),
			Subtotal: model.FormatMoney(l.Subtotal),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SendContact принимает сообщение из формы обратной связи.
func (h *Handler) SendContact(w http.ResponseWriter, r *http.Request) {
	var msg model.ContactMessage
	if !decode(w, r, &msg) {
		return
	}

	if err := h.service.SendContact(r.Context(), msg); err != nil {
		h.writeError(w, "send contact", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
