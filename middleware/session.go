package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cart-service/internal/auth"
	"cart-service/pkg/ctxmanage"
	"cart-service/pkg/logkey"
)

// SessionHeader carries the signed cart session token. The storefront sends
// it back on every request; the service issues a fresh one on first contact
// and echoes it in the response so the client can hold on to it.
const SessionHeader = "X-Cart-Session"

// CartSession resolves the cart owner for the request. Carts are anonymous:
// no login is required, the token only pins the request to one cart record
// and stops clients from reading each other's carts.
func (m *Mid) CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := ctxmanage.GetTraceIdOfRequest(c)

		var claims auth.Claims
		token := c.GetHeader(SessionHeader)
		if token != "" {
			validated, err := m.a.ValidateToken(token)
			if err != nil {
				slog.Error("invalid cart session token",
					slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid cart session"})
				return
			}
			claims = validated
		} else {
			ownerID := uuid.NewString()
			fresh, err := m.a.GenerateSessionToken(ownerID, auth.RoleGuest)
			if err != nil {
				slog.Error("failed to issue cart session token",
					slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to start cart session"})
				return
			}
			claims = auth.NewGuestClaims(ownerID)
			c.Header(SessionHeader, fresh)
		}

		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
