package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/fiscal/internal/ratelimit"
	"github.com/smallbiznis/fiscal/pkg/log/ctxlogger"
	"go.uber.org/zap"
)

const correlationHeader = "X-Correlation-ID"

// RequestLogger assigns a correlation ID to every request and logs the
// outcome through the context-aware logger.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(correlationHeader); id != "" {
			ctx = ctxlogger.ContextWithCorrelationID(ctx, id)
		}
		ctx, correlationID := ctxlogger.EnsureCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlationHeader, correlationID)

		start := time.Now()
		c.Next()

		logger := ctxlogger.WithContext(ctx, base)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= 500 {
			logger.Error("http request", fields...)
			return
		}
		logger.Info("http request", fields...)
	}
}

// RateLimit throttles requests per client address. A limiter failure lets
// the request through; emission must not depend on Redis being up.
func RateLimit(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}
		res, err := limiter.AllowSource(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			if res.RetryAfter > 0 {
				seconds := int(res.RetryAfter / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too_many_requests",
			})
			return
		}
		c.Next()
	}
}
