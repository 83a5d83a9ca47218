package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cart-service/internal/auth"
	"cart-service/internal/cart"
	"cart-service/pkg/ctxmanage"
	"cart-service/pkg/logkey"
)

// ownerID pulls the cart owner out of the session claims placed in the
// request context by the CartSession middleware.
func ownerID(c *gin.Context) (string, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok || claims.Subject == "" {
		traceId := ctxmanage.GetTraceIdOfRequest(c)
		slog.Error("session claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return claims.Subject, true
}

func lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid line index"})
		return 0, false
	}
	return index, true
}

func (h *Handler) AddItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var request struct {
		ProductID string          `json:"product_id"`
		Name      string          `json:"name"`
		UnitPrice decimal.Decimal `json:"unit_price"`
		Image     string          `json:"image"`
		Variant   string          `json:"variant"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if request.ProductID == "" || request.Name == "" || request.UnitPrice.IsNegative() {
		slog.Error("invalid product data", slog.String(logkey.TraceID, traceId),
			slog.String("ProductID", request.ProductID))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Product ID, name and price must be valid"})
		return
	}

	count := h.cConf.Add(c.Request.Context(), owner, cart.Item{
		ProductID: request.ProductID,
		Name:      request.Name,
		UnitPrice: request.UnitPrice,
		Image:     request.Image,
		Variant:   request.Variant,
	})

	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ProductID", request.ProductID), slog.Int("Lines", count))

	c.JSON(http.StatusOK, gin.H{"message": request.Name + " added to cart", "count": count})
}

func (h *Handler) GetItems(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	items := h.cConf.Items(c.Request.Context(), owner)
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) GetSummary(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	city := c.Query("city")
	quote := h.cConf.Quote(c.Request.Context(), owner, city)
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) UpdateQuantity(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	index, ok := lineIndex(c)
	if !ok {
		return
	}

	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	err := h.cConf.SetQuantity(c.Request.Context(), owner, index, request.Quantity)
	if errors.Is(err, cart.ErrLineNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart line not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}
	index, ok := lineIndex(c)
	if !ok {
		return
	}

	err := h.cConf.Remove(c.Request.Context(), owner, index)
	if errors.Is(err, cart.ErrLineNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Cart line not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed", "count": h.cConf.Count(c.Request.Context(), owner)})
}

func (h *Handler) ClearCart(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	h.cConf.Clear(c.Request.Context(), owner)
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "count": 0})
}

func (h *Handler) GetCount(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": h.cConf.Count(c.Request.Context(), owner)})
}
