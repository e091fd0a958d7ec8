package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ct "github.com/lutheralien/to-do-api/pkg/context"
)

const RequestIDHeader = "X-Request-ID"

// CurrentMiddleware attaches a Current to the request context and echoes the
// request id, generating one when the client sent none.
func CurrentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		current := ct.NewCurrent()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		current.Set(ct.RequestIDKey, requestID)
		current.Set(ct.UserAgentKey, c.Request.UserAgent())
		current.Set(ct.ClientIPKey, c.ClientIP())
		current.Set(ct.MethodKey, c.Request.Method)
		current.Set(ct.PathKey, c.Request.URL.Path)

		c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))
		c.Set("current", current)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	if current, ok := c.Get("current"); ok {
		if curr, ok := current.(*ct.Current); ok {
			return curr
		}
	}

	return ct.GetCurrent(c.Request.Context())
}
