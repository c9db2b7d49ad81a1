// Package captcha issues and verifies the arithmetic human check used by the
// contact form. Challenges are never stored server-side: the operands and
// expiry travel inside a signed token, so verification is a pure function of
// (token, answer, secret, current time).
package captcha

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	tokenSeparator = "."
	challengeTTL   = 15 * time.Minute

	// Operand range is [minOperand, maxOperand).
	minOperand = 2
	maxOperand = 10
)

var (
	// ErrNoSecret is returned when no signing secret is configured.
	ErrNoSecret = errors.New("captcha: signing secret not configured")
	// ErrInvalidCheck covers every tampered, malformed, or wrong submission.
	ErrInvalidCheck = errors.New("captcha: invalid human check")
	// ErrExpired is returned when the token's expiry has passed.
	ErrExpired = errors.New("captcha: human check expired")
)

// challengePayload is the token body. Exp is epoch milliseconds.
type challengePayload struct {
	A   int   `json:"a"`
	B   int   `json:"b"`
	Exp int64 `json:"exp"`
}

// Challenge is what the challenge endpoint returns to the client.
type Challenge struct {
	Question  string `json:"question"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Service signs and verifies challenge tokens.
type Service struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests to exercise expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service signing with the given secret.
func NewService(secret string, opts ...Option) *Service {
	s := &Service{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue draws two random operands and returns a signed, expiring challenge.
func (s *Service) Issue() (*Challenge, error) {
	if len(s.secret) == 0 {
		return nil, ErrNoSecret
	}

	a, err := randomOperand()
	if err != nil {
		return nil, err
	}
	b, err := randomOperand()
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(challengeTTL).UnixMilli()
	raw, err := json.Marshal(challengePayload{A: a, B: b, Exp: expiresAt})
	if err != nil {
		return nil, err
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return &Challenge{
		Question:  fmt.Sprintf("What is %d + %d?", a, b),
		Token:     encoded + tokenSeparator + s.sign(encoded),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks a submitted answer against a token. It returns nil on
// success, ErrExpired when the token's TTL has passed, and ErrInvalidCheck
// for every other failure mode. No state is consulted or mutated.
func (s *Service) Verify(token, answer string) error {
	if len(s.secret) == 0 {
		return ErrNoSecret
	}

	encoded, signature, found := strings.Cut(token, tokenSeparator)
	if !found || encoded == "" || signature == "" {
		return ErrInvalidCheck
	}

	// hmac.Equal is constant-time.
	if !hmac.Equal([]byte(signature), []byte(s.sign(encoded))) {
		return ErrInvalidCheck
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ErrInvalidCheck
	}

	var payload challengePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ErrInvalidCheck
	}

	if payload.Exp < s.now().UnixMilli() {
		return ErrExpired
	}

	numeric, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil || math.IsNaN(numeric) || math.IsInf(numeric, 0) {
		return ErrInvalidCheck
	}

	if numeric != float64(payload.A+payload.B) {
		return ErrInvalidCheck
	}

	return nil
}

func (s *Service) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func randomOperand() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxOperand-minOperand))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()) + minOperand, nil
}
