package usecase_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contact-server/internal/apperrors"
	"contact-server/internal/captcha"
	"contact-server/internal/config"
	"contact-server/internal/contact"
	"contact-server/internal/mailer"
	"contact-server/internal/ratelimit"
	"contact-server/internal/usecase"
)

const testSecret = "usecase-test-secret"

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func solvedPayload(t *testing.T, svc *captcha.Service) contact.Payload {
	t.Helper()

	ch, err := svc.Issue()
	require.NoError(t, err)

	var a, b int
	_, err = fmt.Sscanf(ch.Question, "What is %d + %d?", &a, &b)
	require.NoError(t, err)

	return contact.Payload{
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		Message:       "Hello there, I am interested in an AI readiness review.",
		CaptchaAnswer: strconv.Itoa(a + b),
		CaptchaToken:  ch.Token,
	}
}

func newService(m mailer.Mailer, email config.EmailConfig) (*usecase.ContactService, *captcha.Service) {
	logger := zap.NewNop()
	captchaSvc := captcha.NewService(testSecret)
	guard := ratelimit.NewGuard(ratelimit.NewMemoryStore(), 10*time.Minute, 5, logger)
	return usecase.NewContactService(captchaSvc, guard, m, email, logger), captchaSvc
}

func TestContactService_Submit(t *testing.T) {
	ctx := context.Background()
	emailCfg := config.EmailConfig{
		From:           "Ch3rryPi3 Website <contact@ch3rrypi3.ai>",
		To:             "hello@ch3rrypi3.ai",
		VerifiedDomain: "ch3rrypi3.ai",
	}

	t.Run("successful submission dispatches notification", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)

		mockMailer.On("Send", ctx, mock.MatchedBy(func(msg mailer.Message) bool {
			return msg.To == "hello@ch3rrypi3.ai" &&
				msg.ReplyTo == "ada@example.com" &&
				msg.Subject == "New contact request from Ada Lovelace"
		})).Return("msg_123", nil)

		id, err := service.Submit(ctx, payload, "203.0.113.7")

		assert.NoError(t, err)
		assert.Equal(t, "msg_123", id)
		mockMailer.AssertExpectations(t)
	})

	t.Run("invalid payload is rejected before the mailer", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)
		payload.Email = "not-an-email"

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrSchemaInvalid, appErr.Code())
		assert.Equal(t, "Invalid request.", appErr.Message())
		mockMailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("honeypot is reported as spam with the generic message", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)
		payload.Website = "https://spam.example"

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrSpamDetected, appErr.Code())
		assert.Equal(t, "Invalid request.", appErr.Message())
		mockMailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("wrong captcha answer", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)
		payload.CaptchaAnswer = "99999"

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrCaptchaInvalid, appErr.Code())
		assert.Equal(t, "Invalid human check.", appErr.Message())
	})

	t.Run("expired captcha token gets its own message", func(t *testing.T) {
		mockMailer := new(MockMailer)
		logger := zap.NewNop()
		past := time.Now().Add(-time.Hour)
		issuer := captcha.NewService(testSecret, captcha.WithClock(func() time.Time { return past }))
		verifier := captcha.NewService(testSecret)
		guard := ratelimit.NewGuard(ratelimit.NewMemoryStore(), 10*time.Minute, 5, logger)
		service := usecase.NewContactService(verifier, guard, mockMailer, emailCfg, logger)

		payload := solvedPayload(t, issuer)

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrCaptchaExpired, appErr.Code())
		assert.Equal(t, "Human check expired. Please try again.", appErr.Message())
	})

	t.Run("submissions past the limit are rejected", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		mockMailer.On("Send", ctx, mock.Anything).Return("msg_ok", nil)

		for i := 0; i < 5; i++ {
			payload := solvedPayload(t, captchaSvc)
			_, err := service.Submit(ctx, payload, "203.0.113.7")
			require.NoError(t, err)
		}

		payload := solvedPayload(t, captchaSvc)
		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrRateLimited, appErr.Code())
		assert.Equal(t, "Too many requests. Please try again later.", appErr.Message())
		mockMailer.AssertNumberOfCalls(t, "Send", 5)
	})

	t.Run("limit also applies per client IP", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		mockMailer.On("Send", ctx, mock.Anything).Return("msg_ok", nil)

		for i := 0; i < 5; i++ {
			payload := solvedPayload(t, captchaSvc)
			payload.Email = fmt.Sprintf("visitor%d@example.com", i)
			_, err := service.Submit(ctx, payload, "203.0.113.7")
			require.NoError(t, err)
		}

		payload := solvedPayload(t, captchaSvc)
		payload.Email = "fresh@example.com"
		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrRateLimited, appErr.Code())
	})

	t.Run("nil mailer surfaces a configuration error", func(t *testing.T) {
		service, captchaSvc := newService(nil, emailCfg)
		payload := solvedPayload(t, captchaSvc)

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrServiceMisconfigured, appErr.Code())
		assert.Equal(t, "Email service not configured.", appErr.Message())
	})

	t.Run("provider failure maps to dispatch error", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)

		mockMailer.On("Send", ctx, mock.Anything).Return("", apperrors.New("provider down"))

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrDispatchFailed, appErr.Code())
		assert.Equal(t, "Unable to send message right now.", appErr.Message())
	})

	t.Run("empty provider message id is a dispatch error", func(t *testing.T) {
		mockMailer := new(MockMailer)
		service, captchaSvc := newService(mockMailer, emailCfg)
		payload := solvedPayload(t, captchaSvc)

		mockMailer.On("Send", ctx, mock.Anything).Return("", nil)

		_, err := service.Submit(ctx, payload, "203.0.113.7")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrDispatchFailed, appErr.Code())
	})

	t.Run("unverified sender falls back to the default", func(t *testing.T) {
		mockMailer := new(MockMailer)
		cfg := emailCfg
		cfg.From = "Marketing <noreply@elsewhere.example>"
		service, captchaSvc := newService(mockMailer, cfg)
		payload := solvedPayload(t, captchaSvc)

		mockMailer.On("Send", ctx, mock.MatchedBy(func(msg mailer.Message) bool {
			return msg.From == config.DefaultSender
		})).Return("msg_456", nil)

		id, err := service.Submit(ctx, payload, "203.0.113.7")

		assert.NoError(t, err)
		assert.Equal(t, "msg_456", id)
		mockMailer.AssertExpectations(t)
	})
}

func TestContactService_Challenge(t *testing.T) {
	t.Run("issues a solvable challenge", func(t *testing.T) {
		service, captchaSvc := newService(nil, config.EmailConfig{})

		ch, err := service.Challenge()

		require.NoError(t, err)
		assert.NotEmpty(t, ch.Token)
		assert.Greater(t, ch.ExpiresAt, time.Now().UnixMilli())

		var a, b int
		_, err = fmt.Sscanf(ch.Question, "What is %d + %d?", &a, &b)
		require.NoError(t, err)
		assert.NoError(t, captchaSvc.Verify(ch.Token, strconv.Itoa(a+b)))
	})

	t.Run("missing secret is a configuration error", func(t *testing.T) {
		logger := zap.NewNop()
		guard := ratelimit.NewGuard(ratelimit.NewMemoryStore(), 10*time.Minute, 5, logger)
		service := usecase.NewContactService(captcha.NewService(""), guard, nil, config.EmailConfig{}, logger)

		_, err := service.Challenge()

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrServiceMisconfigured, appErr.Code())
		assert.Equal(t, "Human check unavailable.", appErr.Message())
	})
}

func TestNotificationHTML_EscapesUserContent(t *testing.T) {
	// Rendering is exercised through dispatch so the escaping stays on the
	// only path user content takes into an email client.
	mockMailer := new(MockMailer)
	service, captchaSvc := newService(mockMailer, config.EmailConfig{
		From:           "Ch3rryPi3 Website <contact@ch3rrypi3.ai>",
		To:             "hello@ch3rrypi3.ai",
		VerifiedDomain: "ch3rrypi3.ai",
	})

	payload := solvedPayload(t, captchaSvc)
	payload.Name = `Eve <script>alert("x")</script>`
	payload.Company = "Acme & Sons"
	payload.Message = "First line with <b>markup</b>\nsecond line here."

	var sent mailer.Message
	mockMailer.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(mailer.Message)
	}).Return("msg_789", nil)

	_, err := service.Submit(context.Background(), payload, "203.0.113.7")
	require.NoError(t, err)

	assert.NotContains(t, sent.HTML, "<script>")
	assert.Contains(t, sent.HTML, "&lt;script&gt;")
	assert.Contains(t, sent.HTML, "Acme &amp; Sons")
	assert.Contains(t, sent.HTML, "&lt;b&gt;markup&lt;/b&gt;<br />second line here.")
	assert.NotContains(t, sent.Subject, "\n")
}
