package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"movers-api/models"
	"movers-api/session"
)

const (
	userKey   = "user"
	claimsKey = "claims"
)

// UserLoader resolves the user named by a token.
type UserLoader interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator verifies bearer tokens and loads the calling user.
type Authenticator struct {
	tokens   *TokenManager
	users    UserLoader
	denylist session.Denylist
}

func NewAuthenticator(tokens *TokenManager, users UserLoader, denylist session.Denylist) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, denylist: denylist}
}

// AuthRequired validates the token and injects the user into the context.
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			Abort(c, http.StatusUnauthorized, KindAuth, "Not authorized, no token")
			return
		}
		claims, err := a.tokens.Parse(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			Abort(c, http.StatusUnauthorized, KindAuth, "Not authorized, token failed")
			return
		}
		if claims.ID != "" && a.denylist != nil {
			revoked, err := a.denylist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				Abort(c, http.StatusInternalServerError, KindServer, err.Error())
				return
			}
			if revoked {
				Abort(c, http.StatusUnauthorized, KindAuth, "Not authorized, token revoked")
				return
			}
		}
		user, err := a.users.UserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, errors.NotFound) {
				Abort(c, http.StatusUnauthorized, KindAuth, "Not authorized, user not found")
				return
			}
			Abort(c, http.StatusInternalServerError, KindServer, err.Error())
			return
		}
		if !user.IsActive {
			Abort(c, http.StatusForbidden, KindForbidden, "Account is deactivated")
			return
		}
		c.Set(userKey, user)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AdminRequired admits approved admins and superadmins.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			Abort(c, http.StatusForbidden, KindForbidden, "Not authorized as an admin")
			return
		}
		c.Next()
	}
}

// SuperadminRequired admits only the superadmin role.
func SuperadminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != models.RoleSuperadmin {
			Abort(c, http.StatusForbidden, KindForbidden, "Not authorized as a superadmin")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// CurrentClaims returns the verified token claims.
func CurrentClaims(c *gin.Context) *Claims {
	val, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := val.(*Claims)
	return claims
}
