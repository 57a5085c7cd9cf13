package endpoint

import (
	"fmt"
	"strconv"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/middleware"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

// ListLoginHistory godoc
// @Summary      Login history (admin only)
// @Description  Newest login attempts first, optionally for a single user
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        user_id query int false "Only attempts of this user"
// @Param        limit query int false "Number of records (default 50, max 100)"
// @Success      200 {object} util.APIResponse{data=[]model.LoginAttempt} "Login attempts"
// @Failure      400 {object} util.APIResponse "Invalid query"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Forbidden"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/admin/login-history [get]
func (h *Handler) ListLoginHistory(c *gin.Context) {
	filter := auth.LoginAttemptFilter{}
	limit, _ := strconv.Atoi(c.Query("limit"))
	filter.Limit = limit

	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Invalid user_id", Err: fmt.Errorf("invalid user_id %q", raw)})
			return
		}
		uid := uint(id)
		filter.UserID = &uid
	}

	attempts, err := h.auth.ListLoginAttempts(c.Request.Context(), filter)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list login history", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Login history retrieved", Data: attempts})
}

// ListRoles godoc
// @Summary      Roles with user counts (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=[]model.RoleWithUserCount} "Roles"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Forbidden"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/admin/roles [get]
func (h *Handler) ListRoles(c *gin.Context) {
	roles, err := h.auth.ListRoles(c.Request.Context())
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to list roles", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Roles retrieved", Data: roles})
}

// TaskPing answers for any role allowed on the task routes.
func (h *Handler) TaskPing(c *gin.Context) {
	role, _ := middleware.GetRole(c)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "pong", Data: gin.H{"role": role}})
}
