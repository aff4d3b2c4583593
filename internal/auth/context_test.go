package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	var seen *UserContext
	h := Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	tests := []struct {
		name   string
		id     string
		role   string
		status int
	}{
		{"missing headers", "", "", http.StatusUnauthorized},
		{"bad id", "abc", "admin", http.StatusUnauthorized},
		{"missing role", "4", "", http.StatusUnauthorized},
		{"ok", "4", "Admin", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.id != "" {
				req.Header.Set(HeaderUserID, tt.id)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			req.Header.Set(HeaderUserName, "Asha")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
				assert.Equal(t, int64(4), seen.UserID)
				assert.Equal(t, RoleAdmin, seen.Role)
				assert.Equal(t, "Asha", seen.Name)
				assert.True(t, seen.IsAdmin())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := Authenticate(RequireRole(RoleAdmin, RoleStorekeeper)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "9")
	req.Header.Set(HeaderUserRole, RoleTechnician)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set(HeaderUserRole, RoleStorekeeper)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIDPtr(t *testing.T) {
	var u *UserContext
	assert.Nil(t, u.IDPtr())
	u = &UserContext{UserID: 3}
	require.NotNil(t, u.IDPtr())
	assert.Equal(t, int64(3), *u.IDPtr())
}
