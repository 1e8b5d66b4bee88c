package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/genservices/internal/auth"
)

func protected(m *auth.JWTMiddleware) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		_, _ = w.Write([]byte(claims.Subject))
	}))
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := auth.NewJWTMiddleware("s3cret")
	other := auth.NewJWTMiddleware("other")

	valid, err := m.Sign(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "svc-pipeline",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)
	expired, err := m.Sign(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "svc-pipeline",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	require.NoError(t, err)
	foreign, err := other.Sign(auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/generate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(m).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "svc-pipeline", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
