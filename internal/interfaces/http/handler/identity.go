package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	identityapp "github.com/pluvyt/backend/internal/application/identity"
	"github.com/pluvyt/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth/login
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LoginRequest true "Credentials"
// @Success      200 {object} dto.Response{data=identityapp.LoginResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identityapp.LoginInput{
		LoginOrEmail: req.LoginOrEmail,
		Password:     req.Password,
		IP:           c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh handles POST /auth/refresh
// @Summary      Refresh the token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=identityapp.TokenResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout handles POST /auth/logout. The body is optional; when it names the
// refresh token that one is revoked too.
// @Summary      Log out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.LogoutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.HandleError(c, errMissingUser)
		return
	}
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req identityapp.LogoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.BadRequest(c, "Invalid request body")
			return
		}
	}

	err = h.authService.Logout(c.Request.Context(), identityapp.LogoutInput{
		UserID:       userID,
		TenantID:     tenantID,
		TokenJTI:     claims.ID,
		TokenTTL:     claims.GetRemainingTTL(),
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out successfully"})
}

// Me handles GET /auth/me
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.UserInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	info, err := h.authService.GetCurrentUser(c.Request.Context(), tenantID, userID, middleware.GetJWTPermissions(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// ConfirmEmail handles POST /auth/confirm-email
// @Summary      Confirm the e-mail of the current user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.ConfirmEmailRequest true "Verification token"
// @Success      200 {object} dto.Response{data=identityapp.UserInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/confirm-email [post]
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req identityapp.ConfirmEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, err := getTenantID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	info, err := h.authService.ConfirmEmail(c.Request.Context(), tenantID, userID, req.Token, middleware.GetJWTPermissions(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// CheckPermission handles POST /auth/check-permission
// @Summary      Check one feature against the token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CheckPermissionRequest true "Feature"
// @Success      200 {object} dto.Response{data=identityapp.CheckPermissionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/check-permission [post]
func (h *AuthHandler) CheckPermission(c *gin.Context) {
	var req identityapp.CheckPermissionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.Success(c, h.authService.CheckPermission(middleware.GetJWTPermissions(c), req.Permission))
}

// RegistrationHandler handles the public member sign-up endpoints
type RegistrationHandler struct {
	BaseHandler
	registrationService *identityapp.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(registrationService *identityapp.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Register handles POST /auth/register
// @Summary      Self-register a loyalty member
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RegisterRequest true "Member data"
// @Success      201 {object} dto.Response{data=identityapp.RegisterResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req identityapp.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.registrationService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ResendVerification handles POST /auth/resend-verification. The answer is
// the same whether or not the address exists.
// @Summary      Resend the verification e-mail
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.ResendVerificationRequest true "Address"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/resend-verification [post]
func (h *RegistrationHandler) ResendVerification(c *gin.Context) {
	var req identityapp.ResendVerificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.registrationService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "If the address is registered, a verification e-mail was sent"})
}

// VerifyEmail handles GET /auth/verify-email?token=
// @Summary      Verify an e-mail address
// @Tags         auth
// @Produce      json
// @Param        token query string true "Verification token"
// @Success      200 {object} dto.Response{data=identityapp.VerifiedEmailResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/verify-email [get]
func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" || len(token) > 255 {
		h.BadRequest(c, "Verification token is required")
		return
	}

	result, err := h.registrationService.VerifyEmail(c.Request.Context(), token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// UserAccessHandler handles per-user access endpoints
type UserAccessHandler struct {
	BaseHandler
	permissionService *identityapp.PermissionService
}

// NewUserAccessHandler creates a new UserAccessHandler
func NewUserAccessHandler(permissionService *identityapp.PermissionService) *UserAccessHandler {
	return &UserAccessHandler{permissionService: permissionService}
}

// EffectivePermissions handles GET /users/:id/effective-permissions
// @Summary      Effective permissions of a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.EffectivePermissionsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/effective-permissions [get]
func (h *UserAccessHandler) EffectivePermissions(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	resp, err := h.permissionService.EffectivePermissions(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetAccess handles PUT /users/:id/access
// @Summary      Replace the access of a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body identityapp.SetUserAccessRequest true "Groups and direct features"
// @Success      200 {object} dto.Response{data=identityapp.EffectivePermissionsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/access [put]
func (h *UserAccessHandler) SetAccess(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req identityapp.SetUserAccessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.permissionService.SetUserAccess(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AccessGroupHandler handles access group (grupos-acesso) endpoints
type AccessGroupHandler struct {
	BaseHandler
	groupService *identityapp.AccessGroupService
}

// NewAccessGroupHandler creates a new AccessGroupHandler
func NewAccessGroupHandler(groupService *identityapp.AccessGroupService) *AccessGroupHandler {
	return &AccessGroupHandler{groupService: groupService}
}

// List handles GET /grupos-acesso
// @Summary      List access groups
// @Tags         grupos-acesso
// @Produce      json
// @Success      200 {object} dto.Response{data=[]identityapp.AccessGroupResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /grupos-acesso [get]
func (h *AccessGroupHandler) List(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}

	groups, err := h.groupService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, groups)
}

// Get handles GET /grupos-acesso/:id
// @Summary      Get an access group
// @Tags         grupos-acesso
// @Produce      json
// @Param        id path string true "Access group ID" format(uuid)
// @Success      200 {object} dto.Response{data=identityapp.AccessGroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /grupos-acesso/{id} [get]
func (h *AccessGroupHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	group, err := h.groupService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// Create handles POST /grupos-acesso
// @Summary      Create an access group
// @Tags         grupos-acesso
// @Accept       json
// @Produce      json
// @Param        request body identityapp.CreateAccessGroupRequest true "Group"
// @Success      201 {object} dto.Response{data=identityapp.AccessGroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /grupos-acesso [post]
func (h *AccessGroupHandler) Create(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}

	var req identityapp.CreateAccessGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, group)
}

// Update handles PUT /grupos-acesso/:id
// @Summary      Update an access group
// @Tags         grupos-acesso
// @Accept       json
// @Produce      json
// @Param        id path string true "Access group ID" format(uuid)
// @Param        request body identityapp.UpdateAccessGroupRequest true "Group"
// @Success      200 {object} dto.Response{data=identityapp.AccessGroupResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /grupos-acesso/{id} [put]
func (h *AccessGroupHandler) Update(c *gin.Context) {
	tenantID, actor, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req identityapp.UpdateAccessGroupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	group, err := h.groupService.Update(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, group)
}

// Delete handles DELETE /grupos-acesso/:id
// @Summary      Delete an access group
// @Tags         grupos-acesso
// @Produce      json
// @Param        id path string true "Access group ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /grupos-acesso/{id} [delete]
func (h *AccessGroupHandler) Delete(c *gin.Context) {
	tenantID, _, ok := h.scope(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
