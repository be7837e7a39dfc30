package auth

import (
	"net/http"
	"strings"

	"github.com/examstack/examstack/internal/rbac"
)

// Middleware validates the bearer token and attaches the caller's identity
// and role to the request context.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			id, err := svc.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithIdentity(r.Context(), id)
			ctx = rbac.WithRole(ctx, id.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
