// Package usecase orchestrates the contact pipeline: validate the
// submission, verify the human check, consult the abuse guard, and dispatch
// the notification email.
package usecase

import (
	"context"
	"strings"
	"time"

	"contact-server/internal/apperrors"
	"contact-server/internal/captcha"
	"contact-server/internal/config"
	"contact-server/internal/contact"
	"contact-server/internal/mailer"
	"contact-server/internal/ratelimit"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client-safe messages. Security-sensitive failures stay generic; recoverable
// user actions get a specific hint.
const (
	msgInvalidRequest     = "Invalid request."
	msgInvalidCheck       = "Invalid human check."
	msgExpiredCheck       = "Human check expired. Please try again."
	msgCheckUnavailable   = "Human check unavailable."
	msgRateLimited        = "Too many requests. Please try again later."
	msgEmailNotConfigured = "Email service not configured."
	msgDispatchFailed     = "Unable to send message right now."
)

// ContactService implements the contact pipeline.
type ContactService struct {
	captcha *captcha.Service
	guard   *ratelimit.Guard
	mailer  mailer.Mailer
	email   config.EmailConfig
	logger  *zap.Logger
}

// NewContactService wires the pipeline. mailer may be nil when no provider
// is configured; submissions then fail with a configuration error after
// passing the abuse checks.
func NewContactService(captchaSvc *captcha.Service, guard *ratelimit.Guard, m mailer.Mailer, email config.EmailConfig, logger *zap.Logger) *ContactService {
	return &ContactService{
		captcha: captchaSvc,
		guard:   guard,
		mailer:  m,
		email:   email,
		logger:  logger,
	}
}

// Challenge issues a fresh human-check challenge.
func (s *ContactService) Challenge() (*captcha.Challenge, error) {
	ch, err := s.captcha.Issue()
	if err != nil {
		s.logger.Error("Failed to issue contact challenge", zap.Error(err))
		return nil, apperrors.NewAppError(apperrors.ErrServiceMisconfigured, msgCheckUnavailable, err)
	}
	return ch, nil
}

// RetryAfter returns the wait hint for rate-limited clients.
func (s *ContactService) RetryAfter() time.Duration {
	return s.guard.RetryAfter()
}

// Submit runs a contact submission through the pipeline and returns the
// provider message ID. All failures are *apperrors.AppError values; internal
// detail is logged here and never surfaces to the caller.
func (s *ContactService) Submit(ctx context.Context, payload contact.Payload, clientIP string) (string, error) {
	submissionID := uuid.NewString()

	result := contact.Validate(payload)
	if !result.OK {
		if _, spam := result.Errors["website"]; spam {
			s.logger.Warn("Honeypot tripped on contact submission",
				zap.String("submission_id", submissionID),
				zap.String("ip", clientIP))
			return "", apperrors.NewAppError(apperrors.ErrSpamDetected, msgInvalidRequest, nil)
		}
		s.logger.Info("Contact submission failed validation",
			zap.String("submission_id", submissionID),
			zap.Int("field_errors", len(result.Errors)))
		return "", apperrors.NewAppError(apperrors.ErrSchemaInvalid, msgInvalidRequest, nil)
	}
	data := result.Data

	if err := s.captcha.Verify(data.CaptchaToken, data.CaptchaAnswer); err != nil {
		switch {
		case apperrors.Is(err, captcha.ErrExpired):
			return "", apperrors.NewAppError(apperrors.ErrCaptchaExpired, msgExpiredCheck, err)
		case apperrors.Is(err, captcha.ErrNoSecret):
			s.logger.Error("Captcha secret missing at verification", zap.String("submission_id", submissionID))
			return "", apperrors.NewAppError(apperrors.ErrServiceMisconfigured, msgCheckUnavailable, err)
		default:
			s.logger.Info("Contact submission failed human check",
				zap.String("submission_id", submissionID),
				zap.String("ip", clientIP))
			return "", apperrors.NewAppError(apperrors.ErrCaptchaInvalid, msgInvalidCheck, err)
		}
	}

	// Both keys are consulted on every request so each consumes its slot;
	// the request is rejected when either is limited.
	emailLimited := s.guard.IsLimited(ctx, ratelimit.EmailKey(data.Email))
	ipLimited := s.guard.IsLimited(ctx, ratelimit.IPKey(clientIP))
	if emailLimited || ipLimited {
		return "", apperrors.NewAppError(apperrors.ErrRateLimited, msgRateLimited, nil)
	}

	if s.mailer == nil {
		s.logger.Error("No email provider configured", zap.String("submission_id", submissionID))
		return "", apperrors.NewAppError(apperrors.ErrServiceMisconfigured, msgEmailNotConfigured, nil)
	}

	id, err := s.dispatch(ctx, data)
	if err != nil {
		apperrors.LogError(s.logger, err, "Contact dispatch failed",
			zap.String("submission_id", submissionID))
		return "", apperrors.NewAppError(apperrors.ErrDispatchFailed, msgDispatchFailed, err)
	}

	s.logger.Info("Contact submission dispatched",
		zap.String("submission_id", submissionID),
		zap.String("message_id", id))
	return id, nil
}

func (s *ContactService) dispatch(ctx context.Context, data contact.Payload) (string, error) {
	msg := mailer.Message{
		From:    s.senderAddress(),
		To:      s.recipientAddress(),
		Subject: notificationSubject(data),
		HTML:    notificationHTML(data),
		ReplyTo: data.Email,
	}

	id, err := s.mailer.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", apperrors.New("provider returned empty message id")
	}
	return id, nil
}

// senderAddress resolves the From address, falling back to the known-safe
// default when the configured sender is outside the verified domain.
func (s *ContactService) senderAddress() string {
	from := s.email.From
	if from == "" {
		return config.DefaultSender
	}

	domain := contact.EmailDomain(addressPart(from))
	if !strings.HasSuffix(domain, strings.ToLower(s.email.VerifiedDomain)) {
		s.logger.Warn("Configured sender is outside the verified domain; using default",
			zap.String("configured", from),
			zap.String("verified_domain", s.email.VerifiedDomain))
		return config.DefaultSender
	}
	return from
}

func (s *ContactService) recipientAddress() string {
	if s.email.To != "" {
		return s.email.To
	}
	return config.DefaultRecipient
}

// addressPart extracts the bare address from "Name <addr>" forms.
func addressPart(from string) string {
	if open := strings.LastIndex(from, "<"); open != -1 {
		if end := strings.LastIndex(from, ">"); end > open {
			return from[open+1 : end]
		}
	}
	return from
}
