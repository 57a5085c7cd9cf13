package middleware

import (
	"errors"
	"strings"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

var (
	errMissingBearer  = errors.New("missing bearer token")
	errRoleNotAllowed = errors.New("role not allowed")
)

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects the request with 401 unless it carries a valid bearer
// token. On success the user id, username and role from the token are stored
// in the context.
func RequireAuth(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			rejectUnauthorized(c, errMissingBearer)
			return
		}

		claims, err := validator.Validate(token)
		if err != nil {
			rejectUnauthorized(c, err)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			rejectUnauthorized(c, err)
			return
		}

		c.Set(userIDKey, userID)
		c.Set(usernameKey, claims.Name)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

func rejectUnauthorized(c *gin.Context, err error) {
	GetSecurityLogger(c).LogUnauthorizedAccess(c.Request.Context(), util.UnauthorizedAccessParams{
		IP:        c.ClientIP(),
		RequestID: GetRequestID(c),
		Resource:  c.Request.URL.Path,
		Reason:    err.Error(),
	})
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Unauthorized",
		Err: auth.ErrInvalidToken,
	})
	c.Abort()
}

// RequireRoles allows the request only when the authenticated role is one of
// roles, compared exactly. It must run after RequireAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := append([]string(nil), roles...)
	return func(c *gin.Context) {
		role, _ := GetRole(c)
		if util.Contains(role, allowed) {
			c.Next()
			return
		}

		userID, _ := GetUserID(c)
		username, _ := GetUsername(c)
		GetSecurityLogger(c).LogUnauthorizedAccess(c.Request.Context(), util.UnauthorizedAccessParams{
			EventType: util.EventForbiddenAccess,
			UserID:    userID,
			Username:  username,
			IP:        c.ClientIP(),
			RequestID: GetRequestID(c),
			Resource:  c.Request.URL.Path,
			Reason:    "role " + role + " not in " + strings.Join(allowed, ","),
		})
		util.CallForbidden(c, util.APIErrorParams{
			Msg: "Forbidden",
			Err: errRoleNotAllowed,
		})
		c.Abort()
	}
}
