package shared

import (
	"context"
	"net/http"
	"strings"

	"github.com/bizledger/bizledger/internal/platform/httpx"
)

// OwnerHeader carries the authenticated owner id set by the identity proxy.
const OwnerHeader = "X-Owner-ID"

type ownerContextKey struct{}

// ContextWithOwner stores the owner id in context.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, owner)
}

// OwnerFromContext extracts the owner id from context.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerContextKey{}).(string)
	return owner, ok && owner != ""
}

// RequireOwner rejects requests without an owner header and stores the owner
// in the request context otherwise.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), owner)))
	})
}
