package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Roles carried by API identities
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

const identityKey = "api.identity"

// Identity is an authenticated API caller resolved from its bearer token.
type Identity struct {
	Name  string
	Role  string
	Token string
}

// Authenticator resolves bearer tokens against the configured allow-list.
type Authenticator struct {
	byToken map[string]Identity
}

// NewAuthenticator creates an authenticator over the configured identities
func NewAuthenticator(identities []Identity) *Authenticator {
	byToken := make(map[string]Identity, len(identities))
	for _, id := range identities {
		byToken[id.Token] = id
	}
	return &Authenticator{byToken: byToken}
}

// authenticate rejects unauthenticated callers with 401 before any state is
// read, and stores the identity on the request context.
func (a *Authenticator) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		identity, ok := a.byToken[token]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown credentials",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// requireAdmin rejects authenticated callers without the administrative
// role with 403.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := callerIdentity(c)
		if !ok || identity.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Administrator role required",
			})
			return
		}
		c.Next()
	}
}

func callerIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
