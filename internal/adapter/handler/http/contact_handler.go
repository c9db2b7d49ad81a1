package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"contact-server/internal/apperrors"
	"contact-server/internal/contact"
	"contact-server/internal/usecase"
)

// ContactHandler exposes the contact pipeline over HTTP. Every response,
// success or failure, carries the ok flag so clients branch on one field.
type ContactHandler struct {
	service *usecase.ContactService
	logger  *zap.Logger
}

func NewContactHandler(service *usecase.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger,
	}
}

// GetChallenge issues a fresh human-check challenge.
func (h *ContactHandler) GetChallenge(c echo.Context) error {
	challenge, err := h.service.Challenge()
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"question":  challenge.Question,
		"token":     challenge.Token,
		"expiresAt": challenge.ExpiresAt,
	})
}

// Submit accepts a contact-form submission.
func (h *ContactHandler) Submit(c echo.Context) error {
	var payload contact.Payload
	if err := c.Bind(&payload); err != nil {
		h.logger.Info("Rejected unparseable contact submission", zap.Error(err))
		return c.JSON(http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": "Invalid request.",
		})
	}

	id, err := h.service.Submit(c.Request().Context(), payload, c.RealIP())
	if err != nil {
		return h.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok": true,
		"id": id,
	})
}

// errorResponse maps pipeline errors to HTTP responses. Anything that is not
// an AppError is a bug upstream and becomes an opaque 500.
func (h *ContactHandler) errorResponse(c echo.Context, err error) error {
	var appErr *apperrors.AppError
	if !apperrors.As(err, &appErr) {
		h.logger.Error("Unclassified error from contact pipeline", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"ok":    false,
			"error": "Internal server error.",
		})
	}

	status := apperrors.ToHTTPStatus(appErr.Code())
	if appErr.Code() == apperrors.ErrRateLimited {
		c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(h.service.RetryAfter().Seconds())))
	}

	return c.JSON(status, map[string]any{
		"ok":    false,
		"error": appErr.Message(),
	})
}
