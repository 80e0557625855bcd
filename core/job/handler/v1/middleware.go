package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goto/salt/log"

	"github.com/goto/batchboard/internal/errors"
)

const (
	TokenCookie = "token"

	userContextKey = "user"
)

// UserClaims are issued by the directory login service.
type UserClaims struct {
	DisplayName   string `json:"displayName"`
	UserPrincipal string `json:"userPrincipal"`
	jwt.RegisteredClaims
}

// LogMiddleware logs every api request with its outcome.
func LogMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		c.Next()

		var errMsg string
		if lastErr := c.Errors.Last(); lastErr != nil {
			errMsg = lastErr.Err.Error()
		}
		logger.Info("api request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"ip", c.ClientIP(),
			"user", c.GetString(userContextKey),
			"err", errMsg,
			"duration", time.Since(start).String(),
		)
	}
}

// ErrorHandleMiddleware writes the last handler error as response.
func ErrorHandleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		// handlers return right after the first error, so there is at most one
		lastError := c.Errors.Last()
		if lastError == nil {
			return
		}
		c.JSON(errors.HTTPStatus(lastError.Err), failure(lastError.Err))
		c.Abort()
	}
}

// AuthMiddleware accepts an HS256 token from the token cookie or a bearer
// authorization header.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(TokenCookie)
		if err != nil || raw == "" {
			raw = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "error": "missing token"})
			return
		}

		claims := &UserClaims{}
		_, err = jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": false, "error": "invalid token"})
			return
		}

		c.Set(userContextKey, claims.UserPrincipal)
		c.Next()
	}
}

func failure(err error) gin.H {
	return gin.H{"status": false, "error": errors.UserMessage(err)}
}

func success(msg string) gin.H {
	return gin.H{"status": true, "msg": msg}
}
