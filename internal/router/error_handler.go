package router

import (
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "inquirydesk/internal/errors"
)

// ErrorHandler renders every error in the standard JSON envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := envelope(err)
	if status >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

func envelope(err error) (int, apperrors.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch msg := he.Message.(type) {
		case apperrors.ErrorResponse:
			return he.Code, msg
		case string:
			return he.Code, envelopeFor(he.Code, msg)
		default:
			return he.Code, envelopeFor(he.Code, http.StatusText(he.Code))
		}
	}

	// Static responder found neither the file nor index.html.
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound, envelopeFor(http.StatusNotFound, http.StatusText(http.StatusNotFound))
	}

	httpErr := apperrors.MapErrorToHTTP(err)
	return httpErr.StatusCode, httpErr.ToErrorResponse()
}

func envelopeFor(status int, message string) apperrors.ErrorResponse {
	switch status {
	case http.StatusBadRequest:
		return apperrors.BadRequest(message).ToErrorResponse()
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(message).ToErrorResponse()
	case http.StatusNotFound:
		return apperrors.ErrorResponse{Error: message, Code: "NOT_FOUND"}
	case http.StatusMethodNotAllowed:
		return apperrors.ErrorResponse{Error: message, Code: "METHOD_NOT_ALLOWED"}
	}
	code := strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return apperrors.ErrorResponse{Error: message, Code: code}
}
