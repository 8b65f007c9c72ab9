package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresIn   int                 `json:"expires_in"`
	Customer    *domain.Customer    `json:"customer"`
	SessionID   string              `json:"sessionId,omitempty"`
	Merge       *domain.MergeResult `json:"merge,omitempty"`
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	cust, err := h.deps.Customers.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

// login authenticates and, when the request carries a guest session, moves
// that session's cart to the customer and hands out a fresh session id.
// A failed merge keeps the old session so the next login can retry it.
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()
	cust, token, err := h.deps.Customers.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.Customers.AccessTTLSeconds(),
		Customer:    cust,
	}

	if raw := c.GetHeader(sessionHeader); raw != "" {
		if sessionID, err := h.deps.Sessions.Validate(ctx, raw); err != nil {
			h.logger.Warn("auth: ignoring invalid session on login", "customer_id", cust.ID)
		} else {
			res, err := h.deps.Cart.MergeOnLogin(ctx, sessionID, cust.ID)
			if err != nil {
				h.logger.Error("auth: merge guest cart", "customer_id", cust.ID, "err", err)
				c.JSON(http.StatusOK, resp)
				return
			}
			resp.Merge = &res
		}
	}

	fresh, err := h.deps.Sessions.Issue(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.SessionID = fresh
	c.Header(sessionHeader, fresh)
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, customerFrom(c))
}
