package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/railswift/booking-backend/pkg/jwt"
)

// OperatorContextKey is the key used to store operator claims in Gin context
const OperatorContextKey = "operator"

// OperatorAuth validates the bearer token on the admin surface
func OperatorAuth(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
				"code":  "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
				"code":  "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Operator token rejected")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
				"code":  "INVALID_TOKEN",
			})
			c.Abort()
			return
		}

		c.Set(OperatorContextKey, claims)
		c.Next()
	}
}

// GetOperator retrieves the authenticated operator claims from the context
func GetOperator(c *gin.Context) (*jwt.Claims, bool) {
	value, exists := c.Get(OperatorContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}
