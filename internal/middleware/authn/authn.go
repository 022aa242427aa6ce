// Package authn provides middleware for token authentication and role checks
package authn

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brandwave/ambassador-api/internal/auth"
	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/response"
)

const actorKey = "actor"

// RequireAuth validates the bearer token and stores the actor identity
// on the request context
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			response.Unauthorized(c, "authorization header must be a bearer token")
			c.Abort()
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}

		c.Set(actorKey, claims.Actor())
		c.Next()
	}
}

// RequireRole rejects requests whose actor has none of the given roles.
// It must run after RequireAuth.
func RequireRole(roles ...common.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "insufficient role for this action")
		c.Abort()
	}
}

// CurrentActor returns the authenticated actor stored by RequireAuth
func CurrentActor(c *gin.Context) (common.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return common.Actor{}, false
	}

	actor, ok := value.(common.Actor)
	return actor, ok
}
