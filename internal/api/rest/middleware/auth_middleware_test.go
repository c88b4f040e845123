package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const testJWTSecret = "test-secret"

type recordingSecurity struct {
	events []domain.SecurityLog
}

func (r *recordingSecurity) Record(_ context.Context, entry domain.SecurityLog) {
	r.events = append(r.events, entry)
}

func (r *recordingSecurity) ListLogs(_ context.Context, _ domain.SecurityLogFilter) ([]domain.SecurityLog, error) {
	return nil, nil
}

func (r *recordingSecurity) BlockIP(_ context.Context, _ domain.BlockIPRequest) error { return nil }
func (r *recordingSecurity) UnblockIP(_ context.Context, _ string) error              { return nil }
func (r *recordingSecurity) ListBlockedIPs(_ context.Context) ([]domain.BlockedIP, error) {
	return nil, nil
}
func (r *recordingSecurity) IsBlocked(_ context.Context, _ string) bool { return false }

func signToken(t *testing.T, secret string, isAdmin bool) string {
	t.Helper()

	claims := TokenClaims{
		Email:   "u@example.com",
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthTestRouter(sec *recordingSecurity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	m := NewJWTMiddleware(testJWTSecret, sec, logger.New(logger.ERROR))

	r := gin.New()
	r.GET("/user", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString(string(ContextUserIDKey))})
	})
	r.GET("/admin", m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingToken(t *testing.T) {
	sec := &recordingSecurity{}
	r := newAuthTestRouter(sec)

	w := get(r, "/user", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, sec.events, 1)
	assert.Equal(t, domain.SecurityEventAuthFailed, sec.events[0].EventType)
}

func TestRequireAuth_WrongSecret(t *testing.T) {
	r := newAuthTestRouter(&recordingSecurity{})

	w := get(r, "/user", signToken(t, "other-secret", false))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidToken(t *testing.T) {
	r := newAuthTestRouter(&recordingSecurity{})

	w := get(r, "/user", signToken(t, testJWTSecret, false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "userID")
}

func TestRequireAdmin_NonAdminForbidden(t *testing.T) {
	sec := &recordingSecurity{}
	r := newAuthTestRouter(sec)

	w := get(r, "/admin", signToken(t, testJWTSecret, false))
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.Len(t, sec.events, 1)
	assert.Equal(t, domain.SecurityEventForbidden, sec.events[0].EventType)
}

func TestRequireAdmin_AdminAllowed(t *testing.T) {
	r := newAuthTestRouter(&recordingSecurity{})

	w := get(r, "/admin", signToken(t, testJWTSecret, true))
	assert.Equal(t, http.StatusOK, w.Code)
}
