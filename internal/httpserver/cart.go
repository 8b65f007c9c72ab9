package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "storefront/internal/service/cart"
)

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *handlers) issueSession(c *gin.Context) {
	id, err := h.deps.Sessions.Issue(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(sessionHeader, id)
	c.JSON(http.StatusCreated, gin.H{"sessionId": id})
}

func (h *handlers) getCart(c *gin.Context) {
	cart, err := h.deps.Cart.List(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartsvc.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	line, err := h.deps.Cart.AddToCart(c.Request.Context(), ownerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, line)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	line, removed, err := h.deps.Cart.UpdateQuantity(c.Request.Context(), ownerFrom(c), c.Param("id"), *req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	if removed {
		c.JSON(http.StatusOK, gin.H{"removed": true})
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	if err := h.deps.Cart.Remove(c.Request.Context(), ownerFrom(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) cleanCart(c *gin.Context) {
	n, err := h.deps.Cart.CleanExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
