package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"dearrowbrowser.dev/server/internal/apierr"
	"dearrowbrowser.dev/server/internal/auth"
	"dearrowbrowser.dev/server/internal/reload"
)

// Server wraps an Echo instance bound to one ReloadController generation.
// Mirrors the teacher's Webserver struct: an embedded *echo.Echo plus the
// shared state handlers close over.
type Server struct {
	*echo.Echo
	reload     *reload.Controller
	authSecret string
}

// New builds a Server with every browse-API and branding-API route
// registered, grounded on the teacher's NewWebserver/registerRoutes split.
func New(controller *reload.Controller, authSecret string, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierr.HTTPErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	s := &Server{Echo: e, reload: controller, authSecret: authSecret}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	api := s.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/errors", s.handleErrors)
	api.POST("/reload", s.handleReload)

	api.GET("/titles", s.handleNewestTitles)
	api.GET("/titles/unverified", s.handleUnverifiedTitles)
	api.GET("/titles/uuid/:uuid", s.handleTitleByUUID)
	api.GET("/titles/video_id/:id", s.handleTitlesByVideoID)
	api.GET("/titles/user_id/:id", s.handleTitlesByUserID)

	api.GET("/thumbnails", s.handleNewestThumbnails)
	api.GET("/thumbnails/uuid/:uuid", s.handleThumbnailByUUID)
	api.GET("/thumbnails/video_id/:id", s.handleThumbnailsByVideoID)
	api.GET("/thumbnails/user_id/:id", s.handleThumbnailsByUserID)

	api.GET("/branding", s.handleVideoBranding)
	api.POST("/branding", s.handlePostBrandingDisabled)
	api.GET("/branding/:prefix", s.handleChunkBranding)
	api.GET("/userInfo", s.handleUserInfo)
}

// verifyAuth implements POST /reload's auth contract: missing secret is a
// 404 (the endpoint pretends not to exist), a wrong one is 403.
func (s *Server) verifyAuth(provided string) *apierr.Error {
	if provided == "" {
		return apierr.NotFound("not found")
	}
	if !auth.Verify(provided, s.authSecret) {
		return apierr.Forbidden("forbidden")
	}
	return nil
}
