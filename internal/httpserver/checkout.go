package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutsvc "storefront/internal/service/checkout"
)

func (h *handlers) checkout(c *gin.Context) {
	var req checkoutsvc.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	req.ClientIP = c.ClientIP()

	res, err := h.deps.Checkout.Checkout(c.Request.Context(), ownerFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) vnpayReturn(c *gin.Context) {
	to, err := h.deps.Checkout.PaymentReturn(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, to)
}
