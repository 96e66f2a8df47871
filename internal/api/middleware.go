package api

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// TokenAuth rejects requests whose header does not carry the shared secret.
// Both sides are hashed first so the comparison time depends on neither the
// secret's content nor its length.
func TokenAuth(header, secret string) gin.HandlerFunc {
	want := sha256.Sum256([]byte(secret))

	return func(c *gin.Context) {
		provided := c.GetHeader(header)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing webhook token"})
			return
		}

		got := sha256.Sum256([]byte(provided))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook token"})
			return
		}

		c.Next()
	}
}

// RequestID tags the request with the caller's X-Request-ID or a new uuid.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
