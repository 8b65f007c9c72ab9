package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) syncHaravan(c *gin.Context) {
	if h.deps.Sync == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "catalog sync not configured"})
		return
	}
	res, err := h.deps.Sync.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  res.Message(),
		"products": res.Products,
		"variants": res.Variants,
	})
}
