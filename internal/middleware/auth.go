package middleware

import (
	"net/http"
	"strings"

	"classping/internal/common"

	"github.com/gin-gonic/gin"
)

// AccessTokenCookie is the cookie browser clients carry the token in.
const AccessTokenCookie = "access_token"

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID int64
	Email  string
}

// TokenVerifier validates an access token.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// Auth returns middleware that requires a valid access token, taken from
// the Authorization: Bearer header or the access_token cookie.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			common.Error(c, http.StatusUnauthorized, "missing access token")
			c.Abort()
			return
		}

		id, err := verifier.Verify(token)
		if err != nil {
			common.Error(c, http.StatusUnauthorized, "invalid or expired access token")
			c.Abort()
			return
		}

		c.Set(ctxUserID, id.UserID)
		c.Set(ctxEmail, id.Email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, found := strings.CutPrefix(h, "Bearer "); found {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// UserID returns the authenticated user's id, or 0 outside Auth.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

// Email returns the authenticated user's email, or "" outside Auth.
func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}
