package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"cart-service/internal/auth"
	"cart-service/internal/cart"
	"cart-service/internal/checkout"
	"cart-service/middleware"
)

type Handler struct {
	cConf  *cart.Conf
	ckConf *checkout.Conf
	bus    *cart.Bus
}

func NewHandler(cConf *cart.Conf, ckConf *checkout.Conf, bus *cart.Bus) *Handler {
	return &Handler{
		cConf:  cConf,
		ckConf: ckConf,
		bus:    bus,
	}
}

func API(endpointPrefix string, a *auth.Keys, cConf *cart.Conf, ckConf *checkout.Conf, bus *cart.Bus) (*gin.Engine, error) {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(a)
	if err != nil {
		return nil, err
	}
	h := NewHandler(cConf, ckConf, bus)

	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.Use(m.CartSession())
		v1.POST("/cart/items", h.AddItem)
		v1.GET("/cart/items", h.GetItems)
		v1.GET("/cart/summary", h.GetSummary)
		v1.PUT("/cart/items/:index", h.UpdateQuantity)
		v1.DELETE("/cart/items/:index", h.RemoveItem)
		v1.DELETE("/cart", h.ClearCart)
		v1.GET("/cart/count", h.GetCount)
		v1.GET("/cart/count/stream", h.StreamCount)
		v1.POST("/checkout", h.Checkout)
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
