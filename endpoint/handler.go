package endpoint

import (
	"fmt"
	"strconv"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/middleware"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP API on top of the auth service.
type Handler struct {
	auth   *auth.Service
	tokens *auth.TokenIssuer
}

func NewHandler(svc *auth.Service, tokens *auth.TokenIssuer) *Handler {
	return &Handler{auth: svc, tokens: tokens}
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

// idParamOrRespond parses the :id path parameter.
func idParamOrRespond(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid user id", Err: fmt.Errorf("invalid id %q", c.Param("id"))})
		return 0, false
	}
	return uint(id), true
}

func userIDOrRespond(c *gin.Context) (uint, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok || id == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "User not authenticated", Err: fmt.Errorf("user id not found in context")})
		return 0, false
	}
	return id, true
}

// requestMeta collects the client details used for auditing.
func requestMeta(c *gin.Context) auth.RequestMeta {
	actor, _ := middleware.GetUserID(c)
	return auth.RequestMeta{
		ActorID:   actor,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: middleware.GetRequestID(c),
	}
}
