package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware is the standard net/http middleware signature. The server
// applies it around the whole handler, so it covers the event stream too.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first entry is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// GinWrap adapts a Middleware for a single Gin route or group.
func GinWrap(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})
		mw(next).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}
