package middlewareinternal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evgen-Mutagen/wager-custody/internal/model"
)

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	return nil, "", errors.New("not used")
}

func (stubAuth) Login(ctx context.Context, login, password string) (*model.User, string, error) {
	return nil, "", errors.New("not used")
}

func (stubAuth) ValidateToken(token string) (model.Identity, error) {
	if token == "good" {
		return "alice", nil
	}
	return "", errors.New("bad token")
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name    string
		cookie  string
		header  string
		want    string
		wantErr bool
	}{
		{name: "cookie", cookie: "from-cookie", header: "Bearer from-header", want: "from-cookie"},
		{name: "bearer", header: "Bearer from-header", want: "from-header"},
		{name: "missing", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
		{name: "no token", header: "Bearer", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "jwt", Value: tt.cookie})
			}
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := extractToken(r)
			if tt.wantErr {
				require.ErrorIs(t, err, errMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	var seen model.Identity
	handler := JWTAuthMiddleware(stubAuth{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.Identity("alice"), seen)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)
}
