package middleware

import (
	"fmt"
	"time"

	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger logs each HTTP request as an endpoint event through the
// security logger set by SecurityLoggerMiddleware.
func EndpointCallLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		userID, _ := GetUserID(c)
		username, _ := GetUsername(c)
		role, _ := GetRole(c)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if role != "" {
			details["role"] = role
		}

		GetSecurityLogger(c).Log(c.Request.Context(), util.SecurityEvent{
			EventType: util.EventEndpointCall,
			UserID:    userID,
			Username:  username,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: GetRequestID(c),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}
