package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cmarkin/microblog/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in the Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside the Gin context.
	ContextUsernameKey = "username"
	// SessionCookieName is the cookie the external auth service sets after login.
	SessionCookieName = "session_token"
)

// CurrentUser extracts the requester's identity from the session cookie or
// a bearer token, when one is present and valid. Anonymous requests pass
// through untouched; protected routes add LoginRequired on top.
func CurrentUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			if c, err := ctx.Cookie(SessionCookieName); err == nil {
				token = c
			}
		}
		if token != "" {
			if claims, err := utils.ParseToken(token); err == nil {
				ctx.Set(ContextUserIDKey, claims.UserID)
				ctx.Set(ContextUsernameKey, claims.Username)
			}
		}
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the external login page,
// carrying the original URL in a "next" parameter so the user lands back
// where they started after authenticating.
func LoginRequired(loginPath string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, ok := ctx.Get(ContextUserIDKey); ok {
			ctx.Next()
			return
		}
		target := loginPath + "?next=" + url.QueryEscape(ctx.Request.URL.RequestURI())
		ctx.Redirect(302, target)
		ctx.Abort()
	}
}

// Identity returns the authenticated user's id and username from the
// context, with ok=false for anonymous requests.
func Identity(ctx *gin.Context) (uint, string, bool) {
	idVal, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, "", false
	}
	id, ok := idVal.(uint)
	if !ok {
		return 0, "", false
	}
	name, _ := ctx.Get(ContextUsernameKey)
	username, _ := name.(string)
	return id, username, true
}

func bearerToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
