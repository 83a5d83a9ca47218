package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cart-service/internal/checkout"
	"cart-service/pkg/ctxmanage"
	"cart-service/pkg/logkey"
)

// Checkout validates the shipping form, submits the assembled order draft to
// the order service and clears the cart on success. On any failure the cart
// and the submitted fields are left exactly as they were so the user can
// retry without re-entering anything.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var customer checkout.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := checkout.ValidateCustomer(customer); err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			slog.Error("checkout validation failed", slog.String(logkey.TraceID, traceId),
				slog.String("Field", vErr.Field), slog.String(logkey.ERROR, vErr.Message))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"field": vErr.Field, "error": vErr.Message})
			return
		}
		slog.Error("checkout validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	items := h.cConf.Items(c.Request.Context(), owner)
	draft, err := checkout.BuildDraft(customer, items)
	if errors.Is(err, checkout.ErrEmptyCart) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	}
	if err != nil {
		slog.Error("failed to build order draft", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		return
	}

	if err := h.ckConf.Submit(c.Request.Context(), draft); err != nil {
		// Cart stays intact, the user can resubmit as-is.
		slog.Error("order submission failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OwnerID, owner), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Error placing order. Please try again."})
		return
	}

	// The order is accepted: clearing now fires the single zero-count event.
	h.cConf.Clear(c.Request.Context(), owner)

	slog.Info("order placed", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OwnerID, owner), slog.String("Total", draft.Total.String()))

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Thank you %s! Your order has been received. Total: %s TK", customer.Name, draft.Total.String()),
		"total":   draft.Total,
	})
}
