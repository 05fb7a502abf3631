// Package auth implements the OTP login flow and session store that gate the
// API. The core engine takes no dependency on it; the router wires it in as a
// middleware stage.
package auth

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"medreminder-backend/internal/schedule"
)

const (
	otpTTL      = 5 * time.Minute
	sessionTTL  = 30 * 24 * time.Hour
	maxAttempts = 3
)

var (
	// ErrInvalidOTP covers unknown e-mails, expired codes and mismatches; the
	// caller cannot tell which, on purpose.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
	// ErrTooManyAttempts is returned once a code has been guessed at more
	// than three times; the code is invalidated.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrMailDelivery marks a code that could not be sent.
	ErrMailDelivery = errors.New("failed to send OTP mail")
)

// Mailer delivers an OTP code to an address.
type Mailer interface {
	SendOTP(to, code string) error
}

type otpEntry struct {
	code     string
	attempts int
}

// Service issues OTP codes to whitelisted e-mail addresses and manages the
// resulting sessions. Both stores are in-memory with TTL expiry; a restart
// logs everyone out, which is acceptable for a single-household service.
type Service struct {
	enabled  bool
	provider schedule.Provider
	mailer   Mailer
	log      *zap.SugaredLogger

	mu       sync.Mutex
	otps     *cache.Cache
	sessions *cache.Cache
}

// NewService creates an auth service. The whitelist is read from the schedule
// document on every request, like the rest of the configuration.
func NewService(enabled bool, provider schedule.Provider, mailer Mailer, log *zap.SugaredLogger) *Service {
	return &Service{
		enabled:  enabled,
		provider: provider,
		mailer:   mailer,
		log:      log,
		otps:     cache.New(otpTTL, 10*time.Minute),
		sessions: cache.New(sessionTTL, time.Hour),
	}
}

// Enabled reports whether authentication is enforced.
func (s *Service) Enabled() bool { return s.enabled }

func (s *Service) allowed(email string) bool {
	doc, err := s.provider.Load()
	if err != nil {
		s.log.Warnw("cannot read whitelist", "error", err)
		return false
	}
	for _, e := range doc.Auth.AllowedEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// RequestOTP issues and mails a code for the address. Non-whitelisted
// addresses are silently ignored so the endpoint does not reveal which
// e-mails are registered.
func (s *Service) RequestOTP(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !s.allowed(email) {
		s.log.Infow("OTP requested for unknown address", "email", email)
		return nil
	}

	code := generateCode()
	if err := s.mailer.SendOTP(email, code); err != nil {
		s.log.Errorw("OTP mail failed", "email", email, "error", err)
		return ErrMailDelivery
	}

	s.mu.Lock()
	s.otps.Set(email, &otpEntry{code: code}, otpTTL)
	s.mu.Unlock()
	return nil
}

// VerifyOTP checks a code and, on success, creates a session and returns its
// token. A code survives at most three wrong guesses.
func (s *Service) VerifyOTP(email, code string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.otps.Get(email)
	if !ok {
		return "", ErrInvalidOTP
	}
	entry := v.(*otpEntry)

	entry.attempts++
	if entry.attempts > maxAttempts {
		s.otps.Delete(email)
		return "", ErrTooManyAttempts
	}
	if code != entry.code {
		return "", ErrInvalidOTP
	}

	s.otps.Delete(email)
	token := uuid.NewString()
	s.sessions.Set(token, email, sessionTTL)
	return token, nil
}

// Resolve maps a session token to its e-mail address.
func (s *Service) Resolve(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	v, ok := s.sessions.Get(token)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Logout invalidates a session token.
func (s *Service) Logout(token string) {
	s.sessions.Delete(token)
}

// SessionTTL is exposed for the cookie max-age.
func SessionTTL() time.Duration { return sessionTTL }

// generateCode produces a 6-digit OTP.
func generateCode() string {
	digits := make([]byte, 6)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			panic(err) // crypto/rand failure is not recoverable
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
