// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"net/http"

	"github.com/mmeshcher/novastore/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentitySource возвращает текущую личность или nil.
type IdentitySource interface {
	Current() *model.Identity
}

// SessionMiddleware пропускает запрос дальше только при активной сессии.
type SessionMiddleware struct {
	source IdentitySource
}

// NewSessionMiddleware создаёт middleware проверки сессии.
func NewSessionMiddleware(source IdentitySource) *SessionMiddleware {
	return &SessionMiddleware{source: source}
}

// Middleware отвечает 401 без активной сессии и кладёт личность в контекст запроса.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.source.Current()
		if id == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext извлекает личность пользователя из контекста запроса.
func GetIdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	return id, ok
}
