package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "contact-server/internal/adapter/handler/http"
	"contact-server/internal/config"
	"contact-server/internal/usecase"
)

type Server struct {
	config  *config.Config
	logger  *zap.Logger
	echo    *echo.Echo
	contact *usecase.ContactService
}

func NewServer(cfg *config.Config, logger *zap.Logger, contact *usecase.ContactService) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// The service runs behind a reverse proxy; the client IP arrives in
	// X-Real-IP and feeds the per-IP submission limit.
	e.IPExtractor = echo.ExtractIPFromRealIPHeader()

	e.HTTPErrorHandler = errorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("Request handled",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	if len(cfg.Server.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Server.AllowOrigins,
			AllowMethods: []string{echo.GET, echo.POST},
		}))
	}

	// Coarse per-IP flood gate in front of the domain limiter, so burst
	// traffic is shed before it reaches captcha verification.
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	return &Server{
		config:  cfg,
		logger:  logger,
		echo:    e,
		contact: contact,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	contactHandler := handlers.NewContactHandler(s.contact, s.logger)

	api := s.echo.Group("/api")
	api.GET("/contact/challenge", contactHandler.GetChallenge)
	api.POST("/contact", contactHandler.Submit)
}

// errorHandler keeps unhandled errors in the same envelope the contact
// endpoints use, so clients never have to parse echo's default shape.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error."

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			switch status {
			case http.StatusNotFound:
				message = "Not found."
			case http.StatusMethodNotAllowed:
				message = "Method not allowed."
			case http.StatusTooManyRequests:
				message = "Too many requests. Please try again later."
			case http.StatusRequestEntityTooLarge:
				message = "Invalid request."
			default:
				if s, isString := httpErr.Message.(string); isString {
					message = s
				}
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err))
		}

		if jsonErr := c.JSON(status, map[string]any{"ok": false, "error": message}); jsonErr != nil {
			logger.Error("Failed to write error response", zap.Error(jsonErr))
		}
	}
}
