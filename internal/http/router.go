package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "marginalia/backend/docs"
	"marginalia/backend/internal/handler"
	"marginalia/backend/internal/service"
)

// NewRouter assembles the echo instance: public routes carry optional
// auth so anonymous callers work, protected routes require a token.
func NewRouter(
	authHandler *handler.AuthHandler,
	documentHandler *handler.DocumentHandler,
	annotationHandler *handler.AnnotationHandler,
	commentHandler *handler.CommentHandler,
	walletHandler *handler.WalletHandler,
	reportHandler *handler.ReportHandler,
	authService service.AuthService,
	staticDir string,
	swaggerEnabled bool,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowCredentials: false,
	}))

	if swaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	api := e.Group("/api")

	public := api.Group("", OptionalAuthMiddleware(authService))
	authHandler.RegisterPublicRoutes(public)
	documentHandler.RegisterPublicRoutes(public)
	annotationHandler.RegisterPublicRoutes(public)
	commentHandler.RegisterPublicRoutes(public)
	reportHandler.RegisterPublicRoutes(public)

	protected := api.Group("", JWTAuthMiddleware(authService))
	authHandler.RegisterProtectedRoutes(protected)
	documentHandler.RegisterProtectedRoutes(protected)
	annotationHandler.RegisterProtectedRoutes(protected)
	commentHandler.RegisterProtectedRoutes(protected)
	walletHandler.RegisterProtectedRoutes(protected)
	reportHandler.RegisterProtectedRoutes(protected)

	registerStatic(e, staticDir)

	return e
}
