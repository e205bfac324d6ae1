package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/service"
)

// AuthHandler handles admin authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents an admin login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	User    AdminUserInfo `json:"user"`
}

// VerifyResponse confirms a token is still good.
type VerifyResponse struct {
	Success bool          `json:"success"`
	Valid   bool          `json:"valid"`
	User    AdminUserInfo `json:"user"`
}

// Login godoc
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return badRequest(validationMessage(err, "Username and password are required"))
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		User:    adminInfo(user),
	})
}

// Verify godoc
// @Summary Verify the session token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} VerifyResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return errorResponse(apperrors.ErrUnauthorized)
	}
	return c.JSON(http.StatusOK, VerifyResponse{
		Success: true,
		Valid:   true,
		User:    AdminUserInfo{ID: claims.UserID, Username: claims.Username},
	})
}

// Logout godoc
// @Summary Admin logout
// @Description Revokes the presented token until it expires.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return errorResponse(apperrors.ErrUnauthorized)
	}
	if err := h.authService.Logout(c.Request().Context(), claims); err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out successfully"})
}
