package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"inquirydesk/internal/auth"
	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/model"
)

// ClaimsContextKey is where the admin guard stores the verified *auth.Claims.
const ClaimsContextKey = "admin"

// MessageResponse is the body of a successful mutation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AdminUserInfo is the public view of an admin account.
type AdminUserInfo struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func adminInfo(user *model.AdminUser) AdminUserInfo {
	return AdminUserInfo{ID: user.ID, Username: user.Username}
}

// errorResponse converts a domain error into an Echo error carrying the
// standard envelope.
func errorResponse(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(message string) error {
	return errorResponse(apperrors.BadRequest(message))
}

func claimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// validationMessage turns validator failures into a short client message.
// fallback is used for a failed "required" rule.
func validationMessage(err error, fallback string) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return fallback
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return fallback
		}
	}
	switch verrs[0].Tag() {
	case "email":
		return "Invalid email address"
	default:
		return "Invalid " + verrs[0].Field()
	}
}

// parseInquiryID reads the id path segment. Only a positive, purely numeric
// segment counts as an id.
func parseInquiryID(raw string) (uint, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
