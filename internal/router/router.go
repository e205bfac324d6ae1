package router

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"inquirydesk/docs"
	"inquirydesk/internal/config"
	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/handler"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authService service.AuthService,
	inquiryHandler *handler.InquiryHandler,
	adminHandler *handler.AdminInquiryHandler,
	authHandler *handler.AuthHandler,
) {
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Pre(CORS(cfg.AllowedOrigin))

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: cfg.RequestTimeout,
		ErrorHandler: func(err error, c echo.Context) error {
			if errors.Is(err, context.DeadlineExceeded) {
				return echo.NewHTTPError(http.StatusInternalServerError,
					apperrors.MapErrorToHTTP(err).ToErrorResponse())
			}
			return err
		},
	}))
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Root:    cfg.StaticDir,
		HTML5:   true,
		Skipper: isAPIRequest,
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes. The .php paths keep old frontend builds working.
	api.POST("/inquiries", inquiryHandler.Submit)
	api.POST("/inquiries.php", inquiryHandler.Submit)
	api.POST("/admin/login", authHandler.Login)
	api.POST("/admin/login.php", authHandler.Login)

	// Admin routes (require a valid bearer token)
	admin := api.Group("/admin", AdminGuard(authService))
	admin.GET("/verify", authHandler.Verify)
	admin.POST("/logout", authHandler.Logout)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/export/inquiries", adminHandler.Export)

	for _, base := range []string{"/inquiries", "/inquiries.php"} {
		admin.GET(base, adminHandler.List)
		admin.GET(base+"/:id", adminHandler.Get)
		admin.PUT(base, adminHandler.Update)
		admin.PUT(base+"/:id", adminHandler.Update)
		admin.DELETE(base, adminHandler.Delete)
		admin.DELETE(base+"/:id", adminHandler.Delete)
	}
}

// AdminGuard verifies the bearer token on every admin route and stores the
// claims under handler.ClaimsContextKey. Rejected requests never reach a handler.
func AdminGuard(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ClaimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authService.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var parseErr *echojwt.TokenParsingError
			if errors.As(err, &parseErr) {
				httpErr := apperrors.MapErrorToHTTP(parseErr.Err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Message: apperrors.AccessDenied,
				Code:    "UNAUTHORIZED",
			})
		},
	})
}

func isAPIRequest(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
