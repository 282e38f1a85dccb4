// Package remote предоставляет клиент удалённого REST API магазина.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/tidwall/gjson"

	"github.com/mmeshcher/novastore/internal/model"
)

// RemoteRejection возвращается на любой ответ API, отличный от 2xx.
// Message содержит человекочитаемое сообщение из тела ответа.
type RemoteRejection struct {
	StatusCode int
	Message    string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("remote rejected request (%d): %s", e.StatusCode, e.Message)
}

// ErrNotConfigured возвращается, если у клиента не задан адрес API.
var ErrNotConfigured = errors.New("remote api client not configured")

// Client инкапсулирует HTTP-взаимодействие с удалённым API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент API по указанному адресу. Нулевой timeout отключает ограничение.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
	}
}

// Signup регистрирует пользователя и возвращает его профиль.
func (c *Client) Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error) {
	body := signupPayload{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	}

	var id model.Identity
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, body, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

type signupPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Login проверяет учётные данные и возвращает профиль пользователя.
func (c *Client) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	var id model.Identity
	body := model.Credentials{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// UpdateUser отправляет частичное обновление профиля и возвращает обновлённую запись.
func (c *Client) UpdateUser(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Identity, error) {
	var id model.Identity
	if err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID), nil, upd, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// ListProducts возвращает каталог товаров.
func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct возвращает товар по идентификатору.
func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateOrder создаёт заказ и возвращает его идентификатор.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &raw); err != nil {
		return "", err
	}

	res := gjson.GetManyBytes(raw, "orderId", "_id")
	for _, r := range res {
		if r.Exists() && r.String() != "" {
			return r.String(), nil
		}
	}
	return "", fmt.Errorf("order id missing in response")
}

// ListMyOrders возвращает заказы пользователя.
func (c *Client) ListMyOrders(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	q := url.Values{"userId": []string{userID}}
	if err := c.do(ctx, http.MethodGet, "/my/orders", q, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SendContact отправляет сообщение из формы обратной связи.
func (c *Client) SendContact(ctx context.Context, msg model.ContactMessage) error {
	return c.do(ctx, http.MethodPost, "/contact", nil, msg, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c == nil || c.baseURL == "" {
		return ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteRejection{
			StatusCode: resp.StatusCode,
			Message:    rejectionMessage(resp.StatusCode, data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func rejectionMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"error", "message"} {
			if r := gjson.GetBytes(body, field); r.Type == gjson.String && r.Str != "" {
				return r.Str
			}
		}
	}
	return http.StatusText(status)
}
