package auth

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	HeaderUserName = "X-User-Name"
)

const (
	RoleAdmin       = "admin"
	RoleStorekeeper = "storekeeper"
	RoleTechnician  = "technician"
)

type UserContext struct {
	UserID int64
	Role   string
	Name   string
}

func (u *UserContext) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IDPtr is the user id as an optional audit column value.
func (u *UserContext) IDPtr() *int64 {
	if u == nil || u.UserID == 0 {
		return nil
	}
	id := u.UserID
	return &id
}

type ctxKey struct{}

func WithUser(ctx context.Context, u *UserContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns nil for unauthenticated requests.
func FromContext(ctx context.Context) *UserContext {
	u, _ := ctx.Value(ctxKey{}).(*UserContext)
	return u
}

// UserIDString is used for scoping idempotency keys.
func UserIDString(r *http.Request) string {
	if u := FromContext(r.Context()); u != nil {
		return strconv.FormatInt(u.UserID, 10)
	}
	return ""
}

// Authenticate trusts the identity headers set by the gateway.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
		if err != nil || id <= 0 || role == "" {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		u := &UserContext{UserID: id, Role: role, Name: r.Header.Get(HeaderUserName)}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := FromContext(r.Context())
			if u == nil {
				httpx.Fail(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, u.Role) {
				httpx.Fail(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
