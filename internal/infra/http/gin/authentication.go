package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "gearshare.principal"

// principal is the authenticated caller. Identity verification happens in the
// gateway upstream; this service trusts the forwarded identity headers.
type principal struct {
	ID    string
	Email string
	Name  string
}

type AuthMiddleware struct {
	IDHeader string
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	header := m.IDHeader
	if header == "" {
		header = "X-User-ID"
	}
	id := strings.TrimSpace(c.GetHeader(header))
	if id == "" {
		c.Next()
		return
	}
	setPrincipal(c, principal{
		ID:    id,
		Email: strings.TrimSpace(c.GetHeader("X-User-Email")),
		Name:  strings.TrimSpace(c.GetHeader("X-User-Name")),
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}
