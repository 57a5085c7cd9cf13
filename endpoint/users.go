package endpoint

import (
	"errors"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"bob"`
	Email    string `json:"email" binding:"required,email" example:"bob@example.com"`
	RoleID   uint   `json:"roleId" binding:"required" example:"3"`
}

// GetUser godoc
// @Summary      Get user (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Success      200 {object} util.APIResponse{data=model.UserResponse} "User"
// @Failure      400 {object} util.APIResponse "Invalid id"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Forbidden"
// @Failure      404 {object} util.APIResponse "User not found"
// @Router       /api/auth/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParamOrRespond(c)
	if !ok {
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), id)
	if errors.Is(err, auth.ErrUserNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve user", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User retrieved", Data: user.ToResponse()})
}

// UpdateUser godoc
// @Summary      Update user (admin only)
// @Description  Change username, email and role of a user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "User ID"
// @Param        request body UpdateUserRequest true "User details"
// @Success      200 {object} util.APIResponse{data=model.UserResponse} "User updated"
// @Failure      400 {object} util.APIResponse "Invalid request or role not found"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      403 {object} util.APIResponse "Forbidden"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      409 {object} util.APIResponse "Username or email already taken"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := idParamOrRespond(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	user, err := h.auth.UpdateUser(c.Request.Context(), id, auth.UpdateUserInput{
		Username:    req.Username,
		Email:       req.Email,
		RoleID:      req.RoleID,
		RequestMeta: requestMeta(c),
	})
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
		return
	case errors.Is(err, auth.ErrRoleNotFound):
		util.CallUserError(c, util.APIErrorParams{Msg: "Role not found", Err: err})
		return
	case errors.Is(err, auth.ErrIdentityTaken):
		util.CallConflict(c, util.APIErrorParams{Msg: "Username or email already taken", Err: err})
		return
	case err != nil:
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update user", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "User updated successfully", Data: user.ToResponse()})
}
