package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/novastore/internal/cart"
	"github.com/mmeshcher/novastore/internal/catalog"
	"github.com/mmeshcher/novastore/internal/checkout"
	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/remote"
	"github.com/mmeshcher/novastore/internal/session"
	"github.com/mmeshcher/novastore/internal/storage"
	"github.com/mmeshcher/novastore/internal/validation"
)

type stubAPI struct {
	identity *model.Identity
	authErr  error

	products   []model.Product
	productErr error

	orderID      string
	orderErr     error
	orderCalls   int
	lastOrder    model.OrderRequest
	orderStarted chan struct{}
	orderRelease chan struct{}

	orders    []model.Order
	ordersErr error

	contactCalls int
	contactErr   error
}

func (s *stubAPI) Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error) {
	return s.identity, s.authErr
}

func (s *stubAPI) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	return s.identity, s.authErr
}

func (s *stubAPI) UpdateUser(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Identity, error) {
	return s.identity, s.authErr
}

func (s *stubAPI) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.products, s.productErr
}

func (s *stubAPI) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	if s.productErr != nil {
		return nil, s.productErr
	}
	for _, p := range s.products {
		if p.ID == productID {
			return &p, nil
		}
	}
	return nil, &remote.RemoteRejection{StatusCode: 404, Message: "Product not found"}
}

func (s *stubAPI) CreateOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	s.orderCalls++
	s.lastOrder = req
	if s.orderStarted != nil {
		close(s.orderStarted)
		<-s.orderRelease
	}
	return s.orderID, s.orderErr
}

func (s *stubAPI) ListMyOrders(ctx context.Context, userID string) ([]model.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubAPI) SendContact(ctx context.Context, msg model.ContactMessage) error {
	s.contactCalls++
	return s.contactErr
}

var now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, api *stubAPI) (*Service, *session.Holder, *cart.Holder) {
	t.Helper()

	ctx := context.Background()
	logger := zap.NewNop()
	store := storage.NewMemoryStorage()

	sess := session.NewHolder(ctx, store, api, logger)
	c := cart.NewHolder(ctx, store, logger)

	svc := NewService(api, sess, c, logger)
	svc.now = func() time.Time { return now }
	return svc, sess, c
}

func loggedIn(t *testing.T, svc *Service) {
	t.Helper()
	if _, err := svc.Login(context.Background(), model.Credentials{Email: "d@x.io", Password: "secret"}); err != nil {
		t.Fatalf("Login error: %v", err)
	}
}

func cardDraft() checkout.Draft {
	return checkout.Draft{
		Method: model.PaymentCard,
		Card: checkout.Card{
			Name:   "Dana Levi",
			Number: "4242 4242 4242 4242",
			Expiry: "11/27",
			CVV:    "321",
		},
	}
}

var cable = model.Product{ID: "p1", Title: "Cable", Price: decimal.RequireFromString("9.99")}

func TestPlaceOrder_Success(t *testing.T) {
	api := &stubAPI{
		identity: &model.Identity{ID: "u1", Email: "d@x.io"},
		products: []model.Product{cable},
		orderID:  "o-1",
	}
	svc, _, c := newTestService(t, api)
	loggedIn(t, svc)

	if err := svc.AddToCart(context.Background(), "p1", 2); err != nil {
		t.Fatalf("AddToCart error: %v", err)
	}

	id, err := svc.PlaceOrder(context.Background(), cardDraft())
	if err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}
	if id != "o-1" {
		t.Fatalf("order id = %q, want o-1", id)
	}
	if len(c.Items()) != 0 {
		t.Fatalf("cart must be cleared after success, got %+v", c.Items())
	}

	req := api.lastOrder
	if req.UserID != "u1" || len(req.Items) != 1 || req.Items[0].Qty != 2 {
		t.Fatalf("unexpected order request: %+v", req)
	}
	if req.Total.StringFixed(2) != "19.98" {
		t.Fatalf("total = %s, want 19.98", req.Total)
	}
	if req.Payment != (model.PaymentSummary{Method: model.PaymentCard, Last4: "4242"}) {
		t.Fatalf("payment summary must be redacted, got %+v", req.Payment)
	}
}

// changingCart меняет корзину сразу после снимка позиций, как параллельный запрос.
type changingCart struct {
	*cart.Holder
}

func (c changingCart) Items() []model.LineItem {
	items := c.Holder.Items()
	c.Holder.Add(cable, 5)
	return items
}

func TestPlaceOrder_TotalMatchesSentItems(t *testing.T) {
	api := &stubAPI{
		identity: &model.Identity{ID: "u1", Email: "d@x.io"},
		products: []model.Product{cable},
		orderID:  "o-1",
	}
	logger := zap.NewNop()
	store := storage.NewMemoryStorage()
	sess := session.NewHolder(context.Background(), store, api, logger)
	c := cart.NewHolder(context.Background(), store, logger)
	c.Add(cable, 2)

	svc := NewService(api, sess, changingCart{c}, logger)
	svc.now = func() time.Time { return now }
	loggedIn(t, svc)

	if _, err := svc.PlaceOrder(context.Background(), cardDraft()); err != nil {
		t.Fatalf("PlaceOrder error: %v", err)
	}

	req := api.lastOrder
	if len(req.Items) != 1 || req.Items[0].Qty != 2 {
		t.Fatalf("unexpected items: %+v", req.Items)
	}
	if !req.Total.Equal(cart.Total(req.Items)) {
		t.Fatalf("total = %s, want sum of sent items %s", req.Total, cart.Total(req.Items))
	}
}

func TestPlaceOrder_RejectionKeepsCart(t *testing.T) {
	api := &stubAPI{
		identity: &model.Identity{ID: "u1"},
		products: []model.Product{cable},
		orderErr: &remote.RemoteRejection{StatusCode: 400, Message: "Out of stock"},
	}
	svc, _, c := newTestService(t, api)
	loggedIn(t, svc)
	_ = svc.AddToCart(context.Background(), "p1", 1)

	_, err := svc.PlaceOrder(context.Background(), cardDraft())

	var rej *remote.RemoteRejection
	if !errors.As(err, &rej) || rej.Message != "Out of stock" {
		t.Fatalf("expected rejection with message, got %v", err)
	}
	if len(c.Items()) != 1 {
		t.Fatalf("cart must be intact after rejection")
	}

	api.orderErr = nil
	api.orderID = "o-2"
	if _, err := svc.PlaceOrder(context.Background(), cardDraft()); err != nil {
		t.Fatalf("retry must be possible immediately, got %v", err)
	}
}

func TestPlaceOrder_ValidationFailureSkipsNetwork(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1"}, products: []model.Product{cable}}
	svc, _, _ := newTestService(t, api)
	loggedIn(t, svc)
	_ = svc.AddToCart(context.Background(), "p1", 1)

	d := cardDraft()
	d.Card.Number = "4242424242424241"

	_, err := svc.PlaceOrder(context.Background(), d)

	var vf *checkout.ValidationFailure
	if !errors.As(err, &vf) {
		t.Fatalf("expected ValidationFailure, got %v", err)
	}
	if api.orderCalls != 0 {
		t.Fatalf("invalid draft must not reach the network")
	}
}

func TestPlaceOrder_RequiresIdentity(t *testing.T) {
	api := &stubAPI{}
	svc, _, _ := newTestService(t, api)

	_, err := svc.PlaceOrder(context.Background(), checkout.Draft{Method: model.PaymentCOD})
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1"}}
	svc, _, _ := newTestService(t, api)
	loggedIn(t, svc)

	_, err := svc.PlaceOrder(context.Background(), checkout.Draft{Method: model.PaymentCOD})
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrder_RejectsDoubleSubmit(t *testing.T) {
	api := &stubAPI{
		identity:     &model.Identity{ID: "u1"},
		products:     []model.Product{cable},
		orderID:      "o-1",
		orderStarted: make(chan struct{}),
		orderRelease: make(chan struct{}),
	}
	svc, _, _ := newTestService(t, api)
	loggedIn(t, svc)
	_ = svc.AddToCart(context.Background(), "p1", 1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.PlaceOrder(context.Background(), checkout.Draft{Method: model.PaymentCOD})
		done <- err
	}()

	<-api.orderStarted

	if st := svc.CheckoutStatus(checkout.Draft{Method: model.PaymentCOD}); st.CanSubmit {
		t.Fatalf("CanSubmit must be false while submitting")
	}
	if _, err := svc.PlaceOrder(context.Background(), checkout.Draft{Method: model.PaymentCOD}); !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}

	close(api.orderRelease)
	if err := <-done; err != nil {
		t.Fatalf("first PlaceOrder error: %v", err)
	}
	if api.orderCalls != 1 {
		t.Fatalf("order calls = %d, want 1", api.orderCalls)
	}
}

func TestCheckoutStatus(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1"}}
	svc, _, _ := newTestService(t, api)

	st := svc.CheckoutStatus(cardDraft())
	if !st.Valid || st.CanSubmit {
		t.Fatalf("anonymous user: want valid and not submittable, got %+v", st)
	}

	loggedIn(t, svc)
	st = svc.CheckoutStatus(checkout.Draft{Method: model.PaymentPayPal, PayPalEmail: "a@b"})
	if st.Valid || st.CanSubmit || len(st.Fields) != 1 || st.Fields[0] != checkout.FieldPayPalEmail {
		t.Fatalf("unexpected state: %+v", st)
	}

	if st := svc.CheckoutStatus(cardDraft()); !st.CanSubmit {
		t.Fatalf("valid card with identity must be submittable: %+v", st)
	}
}

func TestUpdateProfile_WithoutIdentity(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1"}}
	svc, _, _ := newTestService(t, api)

	_, err := svc.UpdateProfile(context.Background(), model.ProfileUpdate{})
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestUpdateProfile_TrimsAndValidates(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1", Name: "Dana", Email: "d@x.io"}}
	svc, _, _ := newTestService(t, api)
	loggedIn(t, svc)

	_, err := svc.UpdateProfile(context.Background(), model.ProfileUpdate{Name: "   ", Email: "d@x.io"})
	var fe *validation.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormError for blank name, got %v", err)
	}

	if _, err := svc.UpdateProfile(context.Background(), model.ProfileUpdate{Name: " Dana ", Email: " d@x.io "}); err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
}

func TestSignup_ValidatesForm(t *testing.T) {
	api := &stubAPI{identity: &model.Identity{ID: "u1"}}
	svc, sess, _ := newTestService(t, api)

	_, err := svc.Signup(context.Background(), model.SignupRequest{Name: "D", Email: "d@x.io", Password: "123", ConfirmPassword: "124"})
	var fe *validation.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormError, got %v", err)
	}
	if len(fe.Fields) != 1 || fe.Fields[0].Field != "confirmPassword" {
		t.Fatalf("fields = %+v, want confirmPassword", fe.Fields)
	}
	if sess.Current() != nil {
		t.Fatalf("invalid signup must not create a session")
	}

	// Длина пароля проверяется удалённым API.
	if _, err := svc.Signup(context.Background(), model.SignupRequest{Name: "D", Email: "d@x.io", Password: "123", ConfirmPassword: "123"}); err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if sess.Current() == nil {
		t.Fatalf("signup must log the user in")
	}
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	api := &stubAPI{}
	svc, _, c := newTestService(t, api)

	err := svc.AddToCart(context.Background(), "nope", 1)

	var rej *remote.RemoteRejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected RemoteRejection, got %v", err)
	}
	if len(c.Items()) != 0 {
		t.Fatalf("cart must stay empty")
	}
}

func TestProducts_FiltersCatalog(t *testing.T) {
	api := &stubAPI{products: []model.Product{
		cable,
		{ID: "p2", Title: "Phone", Price: decimal.RequireFromString("999"), Category: "phones"},
	}}
	svc, _, _ := newTestService(t, api)

	res, err := svc.Products(context.Background(), catalog.Query{Category: "phones"})
	if err != nil {
		t.Fatalf("Products error: %v", err)
	}
	if len(res) != 1 || res[0].ID != "p2" {
		t.Fatalf("unexpected products: %+v", res)
	}

	sug, err := svc.Suggest(context.Background(), "", 5)
	if err != nil || sug != nil {
		t.Fatalf("empty suggest must return nothing, got %+v, %v", sug, err)
	}
}

func TestMyOrdersAndInvoice(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	api := &stubAPI{
		identity: &model.Identity{ID: "u1", Name: "Dana", Email: "d@x.io"},
		orders: []model.Order{
			{ID: "o-old", CreatedAt: base, Items: []model.LineItem{{Title: "Cable", Price: decimal.RequireFromString("5"), Qty: 2}}},
			{ID: "o-new", CreatedAt: base.Add(time.Hour)},
		},
	}
	svc, _, _ := newTestService(t, api)

	if _, err := svc.MyOrders(context.Background()); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	loggedIn(t, svc)

	orders, err := svc.MyOrders(context.Background())
	if err != nil {
		t.Fatalf("MyOrders error: %v", err)
	}
	if orders[0].ID != "o-new" {
		t.Fatalf("orders must be newest first, got %s", orders[0].ID)
	}

	inv, err := svc.Invoice(context.Background(), "o-old")
	if err != nil {
		t.Fatalf("Invoice error: %v", err)
	}
	if inv.Total.StringFixed(2) != "10.00" || inv.BillTo.Name != "Dana" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}

	if _, err := svc.Invoice(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSendContact(t *testing.T) {
	api := &stubAPI{}
	svc, _, _ := newTestService(t, api)

	err := svc.SendContact(context.Background(), model.ContactMessage{Name: "bot", Email: "b@x.io", Message: "spam", Company: "ACME"})
	if err != nil || api.contactCalls != 0 {
		t.Fatalf("honeypot message must be dropped silently, err=%v calls=%d", err, api.contactCalls)
	}

	err = svc.SendContact(context.Background(), model.ContactMessage{Name: "Dana", Email: "d@x.io"})
	var fe *validation.FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormError for empty message, got %v", err)
	}

	if err := svc.SendContact(context.Background(), model.ContactMessage{Name: "Dana", Email: "d@x.io", Message: "Hi"}); err != nil {
		t.Fatalf("SendContact error: %v", err)
	}
	if api.contactCalls != 1 {
		t.Fatalf("contact calls = %d, want 1", api.contactCalls)
	}
}
