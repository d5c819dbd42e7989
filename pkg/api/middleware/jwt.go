package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/pkg/auth"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// JWTMiddleware authenticates requests. The session cookie is the primary
// credential; an Authorization Bearer header is accepted as a fallback for
// non-browser clients. Revoked tokens are rejected via the blacklist.
func JWTMiddleware(secret string, blacklist *auth.TokenBlacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Message: "Not authorized, no token",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Message: "Not authorized, token failed",
				})
			}

			// keep the raw token around so logout can revoke it
			c.Set("token", token)
			c.Set("user_id", claims.UserID)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}

// ExtractToken pulls the session token from the cookie or the Authorization
// header without validating it.
func ExtractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// OwnerID returns the authenticated caller's id from the request context.
func OwnerID(c echo.Context) (bson.ObjectID, bool) {
	hex, _ := c.Get("user_id").(string)
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}
