package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/res"
)

// ContextKey тип для ключей контекста во избежание коллизий
type ContextKey string

const (
	// ContextUserIDKey ключ для хранения ID пользователя в контексте
	ContextUserIDKey ContextKey = "userID"
	authHeaderPrefix            = "Bearer "
)

// TokenClaims клеймы токена доступа платформы
type TokenClaims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// JWTMiddleware проверяет токены доступа и фиксирует отказы
// в журнале безопасности
type JWTMiddleware struct {
	secret   []byte
	security service.SecurityService
	log      *logger.Logger
}

// NewJWTMiddleware создает middleware авторизации. security может быть nil.
func NewJWTMiddleware(secret string, security service.SecurityService, log *logger.Logger) *JWTMiddleware {
	return &JWTMiddleware{secret: []byte(secret), security: security, log: log}
}

// RequireAuth требует валидный токен доступа
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return m.require(false)
}

// RequireAdmin требует валидный токен с клеймом is_admin
func (m *JWTMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.require(true)
}

func (m *JWTMiddleware) require(admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, authHeaderPrefix) {
			m.reject(c, http.StatusUnauthorized, "Missing authorization token", domain.SecurityEventAuthFailed)
			return
		}

		claims, err := m.parse(strings.TrimPrefix(authHeader, authHeaderPrefix))
		if err != nil {
			m.reject(c, http.StatusUnauthorized, "Invalid authorization token", domain.SecurityEventAuthFailed)
			return
		}
		if claims.Subject == "" {
			m.reject(c, http.StatusUnauthorized, "User ID (sub) missing in token", domain.SecurityEventAuthFailed)
			return
		}
		if admin && !claims.IsAdmin {
			m.reject(c, http.StatusForbidden, "Admin access required", domain.SecurityEventForbidden)
			return
		}

		c.Set(string(ContextUserIDKey), claims.Subject)
		c.Next()
	}
}

func (m *JWTMiddleware) parse(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func (m *JWTMiddleware) reject(c *gin.Context, status int, msg string, eventType domain.SecurityEventType) {
	m.log.Warnw("Request rejected", "path", c.Request.URL.Path, "reason", msg, "ip", c.ClientIP())
	if m.security != nil {
		m.security.Record(c.Request.Context(), domain.SecurityLog{
			EventType: eventType,
			IP:        c.ClientIP(),
			Detail:    msg + " " + c.Request.URL.Path,
		})
	}
	res.JsonResponse(c.Writer, res.Err(msg), status)
	c.Abort()
}
