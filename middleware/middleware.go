package middleware

import (
	"net/http"

	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

// Context keys set by the middlewares in this package.
const (
	securityLoggerKey = "securityLogger"
	requestIDKey      = "requestID"
	userIDKey         = "userID"
	usernameKey       = "username"
	roleKey           = "role"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SecurityLoggerMiddleware makes s available through GetSecurityLogger.
func SecurityLoggerMiddleware(s *util.SecurityLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(securityLoggerKey, s)
		c.Next()
	}
}

// GetSecurityLogger returns the request's security logger. The result may be
// nil; SecurityLogger methods accept a nil receiver.
func GetSecurityLogger(c *gin.Context) *util.SecurityLogger {
	v, ok := c.Get(securityLoggerKey)
	if !ok {
		return nil
	}
	s, _ := v.(*util.SecurityLogger)
	return s
}

func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func GetUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get(usernameKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

func GetRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
