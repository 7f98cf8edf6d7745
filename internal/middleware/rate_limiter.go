package middleware

import (
	"fmt"
	"net/http"

	"github.com/emisorlabs/emisor/internal/util"
	"github.com/gin-gonic/gin"
)

func (m Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	allowed, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !allowed {
		ctx.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Demasiadas solicitudes", nil, nil)
		ctx.Abort()
		return
	}

	ctx.Next()
}
