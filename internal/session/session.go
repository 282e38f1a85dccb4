// Package session хранит текущую авторизованную личность пользователя витрины.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/novastore/internal/model"
	"github.com/mmeshcher/novastore/internal/storage"
)

// LandingPath задаёт путь, на который интерфейс переходит после выхода.
const LandingPath = "/"

const persistTimeout = 5 * time.Second

// ErrNotAuthenticated возвращается при обновлении профиля без активной сессии.
var ErrNotAuthenticated = errors.New("not authenticated")

// API описывает операции удалённого API, нужные сессии.
type API interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error)
	Login(ctx context.Context, email, password string) (*model.Identity, error)
	UpdateUser(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Identity, error)
}

// Holder владеет текущей личностью и её копией в локальном хранилище.
type Holder struct {
	mu      sync.Mutex
	current *model.Identity

	store  storage.Storage
	api    API
	logger *zap.Logger
}

// NewHolder создаёт держатель сессии и восстанавливает личность из хранилища.
// Отсутствующая или повреждённая запись означает отсутствие сессии.
func NewHolder(ctx context.Context, store storage.Storage, api API, logger *zap.Logger) *Holder {
	h := &Holder{
		store:  store,
		api:    api,
		logger: logger,
	}
	h.current = h.load(ctx)
	return h
}

func (h *Holder) load(ctx context.Context) *model.Identity {
	raw, ok, err := h.store.Read(ctx, storage.KeyUser)
	if err != nil {
		h.logger.Warn("read persisted session", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var id *model.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		h.logger.Warn("discard malformed persisted session", zap.Error(err))
		return nil
	}
	if id == nil || id.ID == "" {
		return nil
	}
	return id
}

// Current возвращает копию текущей личности или nil.
func (h *Holder) Current() *model.Identity {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return nil
	}
	id := *h.current
	return &id
}

// Signup регистрирует пользователя и сразу делает его текущим.
func (h *Holder) Signup(ctx context.Context, req model.SignupRequest) (*model.Identity, error) {
	id, err := h.api.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	h.adopt(id)
	return h.Current(), nil
}

// Login выполняет вход и делает пользователя текущим.
func (h *Holder) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	id, err := h.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	h.adopt(id)
	return h.Current(), nil
}

// Logout сбрасывает сессию и возвращает путь для перехода. Повторный вызов безопасен.
func (h *Holder) Logout() string {
	h.adopt(nil)
	return LandingPath
}

// UpdateProfile отправляет изменения профиля и заменяет текущую личность ответом API.
func (h *Holder) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.Identity, error) {
	cur := h.Current()
	if cur == nil || cur.ID == "" {
		return nil, ErrNotAuthenticated
	}

	id, err := h.api.UpdateUser(ctx, cur.ID, upd)
	if err != nil {
		return nil, err
	}
	if !h.adoptIf(cur.ID, id) {
		return nil, ErrNotAuthenticated
	}
	return h.Current(), nil
}

func (h *Holder) adopt(id *model.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.replace(id)
}

// adoptIf заменяет личность, только если текущим всё ещё остаётся пользователь expectedID.
// Ответ API, пришедший после выхода или смены пользователя, отбрасывается.
func (h *Holder) adoptIf(expectedID string, id *model.Identity) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.current.ID != expectedID {
		h.logger.Info("drop profile update for inactive session", zap.String("user", expectedID))
		return false
	}
	h.replace(id)
	return true
}

// replace вызывается под h.mu.
func (h *Holder) replace(id *model.Identity) {
	h.current = id

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if id == nil {
		if err := h.store.Remove(ctx, storage.KeyUser); err != nil {
			h.logger.Warn("remove persisted session", zap.Error(err))
		}
		return
	}

	data, err := json.Marshal(id)
	if err != nil {
		h.logger.Warn("encode session", zap.Error(err))
		return
	}
	if err := h.store.Write(ctx, storage.KeyUser, string(data)); err != nil {
		h.logger.Warn("persist session", zap.Error(err))
	}
}
