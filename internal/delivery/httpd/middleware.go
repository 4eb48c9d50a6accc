package httpd

import (
	"context"
	"net/http"
	"strings"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service"
)

type contextKey string

const identityKey contextKey = "identity"

// authenticate проверяет bearer-токен и кладёт личность в контекст запроса.
// Дальше сервисы получают идентификатор действующего пользователя явно.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		identity, err := h.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			if identity == nil {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			if identity.Role != role {
				writeError(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func identityFromContext(ctx context.Context) *service.Identity {
	identity, _ := ctx.Value(identityKey).(*service.Identity)
	return identity
}
