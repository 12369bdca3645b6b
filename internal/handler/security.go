package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/storeframe/orderd/internal/auth"
)

type identityKey struct{}

// identityFrom extracts the authenticated identity from the request context.
func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}

// authenticate verifies the Bearer token and injects the caller identity into
// the request context. Missing or invalid tokens get 401.
func (h *Handler) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := h.auth.ParseToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin gates a route on the admin role. Must run inside authenticate.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			respondError(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	}
}
