package endpoint

import (
	"errors"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/middleware"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
)

// invalidCredentialsMsg is the only login failure message clients ever see.
const invalidCredentialsMsg = "Nieprawidłowe dane logowania"

var errInvalidCredentials = errors.New("invalid credentials")

type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"bob"`
	Password string `json:"password" binding:"required" example:"pw123456"`
}

type LoginResponse struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100" example:"bob"`
	Email    string `json:"email" binding:"required,email" example:"bob@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"pw123456"`
	RoleID   uint   `json:"roleId" binding:"required" example:"2"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type MeResponse struct {
	ID       uint   `json:"id" example:"1"`
	Username string `json:"username" example:"bob"`
	Role     string `json:"role" example:"User"`
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with username and password and receive a bearer token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Failure      401 {object} util.APIResponse "Invalid credentials"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), auth.LoginInput{
		Username:    req.Username,
		Password:    req.Password,
		RequestMeta: requestMeta(c),
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Login failed", Err: err})
		return
	}
	if user == nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: invalidCredentialsMsg, Err: errInvalidCredentials})
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to issue token", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: token},
	})
}

// Register godoc
// @Summary      Register user
// @Description  Create a user with the given role. Username and email must be unused.
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} util.APIResponse{data=model.UserResponse} "User created"
// @Failure      400 {object} util.APIResponse "Invalid request or role not found"
// @Failure      409 {object} util.APIResponse "Registration failed"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	user, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		RoleID:      req.RoleID,
		RequestMeta: requestMeta(c),
	})
	switch {
	case errors.Is(err, auth.ErrRoleNotFound):
		util.CallUserError(c, util.APIErrorParams{Msg: "Role not found", Err: err})
		return
	case errors.Is(err, auth.ErrIdentityTaken):
		util.CallConflict(c, util.APIErrorParams{Msg: "Registration failed", Err: errors.New("registration failed")})
		return
	case err != nil:
		util.CallServerError(c, util.APIErrorParams{Msg: "Registration failed", Err: err})
		return
	case user == nil:
		util.CallConflict(c, util.APIErrorParams{Msg: "Registration failed", Err: errors.New("registration failed")})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "User registered",
		Data: user.ToResponse(),
	})
}

// Me godoc
// @Summary      Current user
// @Description  Identity carried by the bearer token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} util.APIResponse{data=MeResponse} "Current user"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Router       /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	id, ok := userIDOrRespond(c)
	if !ok {
		return
	}
	username, _ := middleware.GetUsername(c)
	role, _ := middleware.GetRole(c)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Current user",
		Data: MeResponse{ID: id, Username: username, Role: role},
	})
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Replace the caller's password after verifying the current one
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "Passwords"
// @Success      200 {object} util.APIResponse "Password changed"
// @Failure      400 {object} util.APIResponse "Invalid request or wrong current password"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "User not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /api/auth/password [put]
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	id, ok := userIDOrRespond(c)
	if !ok {
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword, requestMeta(c))
	switch {
	case errors.Is(err, auth.ErrInvalidPassword):
		util.CallUserError(c, util.APIErrorParams{Msg: "Current password is incorrect", Err: err})
		return
	case errors.Is(err, auth.ErrUserNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: "User not found", Err: err})
		return
	case err != nil:
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to change password", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Password changed"})
}
