package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"voicepipe/internal/api/errors"
	"voicepipe/internal/app/model"
)

// UserResolver resolves a bearer credential to the user it belongs to. The
// tokens themselves are issued by the external identity provider; we only
// look them up.
type UserResolver interface {
	GetByAPIToken(ctx context.Context, token string) (*model.User, error)
}

const userKey = "auth_user"

// BearerAuth validates the Authorization header and stores the resolved
// user on the request context. The caller's identity always comes from the
// credential, never from a client-supplied user identifier.
func BearerAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			HandleError(c, errors.NewUnauthorizedError("Missing Authorization header"))
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			HandleError(c, errors.NewUnauthorizedError("Malformed Authorization header"))
			return
		}

		user, err := resolver.GetByAPIToken(c.Request.Context(), token)
		if err != nil || user == nil {
			HandleError(c, errors.NewUnauthorizedError("Invalid bearer credential"))
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// AuthenticatedUser returns the user resolved by BearerAuth, or nil when the
// route ran without it.
func AuthenticatedUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
