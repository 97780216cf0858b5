package middleware

import "github.com/gin-gonic/gin"

// NoStore marks ops responses as uncacheable and disables MIME sniffing.
// Health and metrics bodies describe the live process and must never be
// served from an intermediary cache.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Pragma", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		c.Next()
	}
}
