package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rehablink/physio-api/pkg/auth"
)

const (
	ContextActorID   = "actor_id"
	ContextActorRole = "actor_role"
)

// ActorIdentity resolves the Bearer token, if present, into actor identity
// on the request context. Requests without a token pass through anonymously;
// enforcement is left to route configuration.
func ActorIdentity(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextActorID, claims.ActorID.String())
		c.Set(ContextActorRole, string(claims.Role))
		c.Next()
	}
}
