package httpserver

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

const (
	sessionHeader = "X-Session-ID"
	ownerKey      = "storefront.owner"
	customerKey   = "storefront.customer"
)

// requestLogger writes one structured line per request to logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("http request", attrs...)
		case status >= 400:
			logger.Warn("http request", attrs...)
		default:
			logger.Info("http request", attrs...)
		}
	}
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// resolveOwner picks the cart owner: a bearer token wins over X-Session-ID.
func resolveOwner(customers CustomerService, sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			cust, err := customers.LookupByToken(c.Request.Context(), token)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.Set(customerKey, cust)
			c.Set(ownerKey, domain.UserOwner(cust.ID))
			c.Next()
			return
		}

		raw := c.GetHeader(sessionHeader)
		if raw == "" {
			abortWithError(c, errors.Join(domain.ErrUnauthorized, errors.New("bearer token or "+sessionHeader+" required")))
			return
		}
		sessionID, err := sessions.Validate(c.Request.Context(), raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ownerKey, domain.SessionOwner(sessionID))
		c.Next()
	}
}

func requireCustomer(customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, domain.ErrUnauthorized)
			return
		}
		cust, err := customers.LookupByToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(customerKey, cust)
		c.Next()
	}
}

// requireSyncSecret guards operator endpoints. An empty secret disables them.
func requireSyncSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "sync secret not configured"})
			return
		}
		got := bearerToken(c)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			abortWithError(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func ownerFrom(c *gin.Context) domain.CartOwner {
	v, _ := c.Get(ownerKey)
	owner, _ := v.(domain.CartOwner)
	return owner
}

func customerFrom(c *gin.Context) *domain.Customer {
	v, _ := c.Get(customerKey)
	cust, _ := v.(*domain.Customer)
	return cust
}
