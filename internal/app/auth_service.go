// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

var (
	// ErrInvalidCredentials indicates that the identity cannot open a session.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrCaptchaRequired is returned when the login form carries no CAPTCHA token.
	ErrCaptchaRequired = errors.New("captcha token required")
	// ErrInvalidResetContext is returned when the last reset step lacks a valid,
	// unexpired context from the code step.
	ErrInvalidResetContext = errors.New("invalid or expired password reset context")
	// ErrTooManyAttempts is returned when the login limiter rejects an attempt.
	ErrTooManyAttempts = errors.New("too many login attempts")
)

// AuthOptions tune an AuthService.
type AuthOptions struct {
	SessionTTL time.Duration
	// Limiter is optional.
	Limiter domain.LoginLimiter
	Logger  *zap.Logger
}

// AuthService handles authentication, registration, password reset and
// session management on top of a backend strategy.
type AuthService struct {
	backend  domain.Backend
	sessions domain.SessionRepository
	resets   *ResetTokens
	limiter  domain.LoginLimiter
	log      *zap.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(backend domain.Backend, sessions domain.SessionRepository, resets *ResetTokens, opts AuthOptions) *AuthService {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		backend:  backend,
		sessions: sessions,
		resets:   resets,
		limiter:  opts.Limiter,
		log:      log,
		ttl:      ttl,
		now:      time.Now,
	}
}

// VerifyCaptcha asks the backend to verify a CAPTCHA token.
func (s *AuthService) VerifyCaptcha(ctx context.Context, token string) error {
	if token == "" {
		return ErrCaptchaRequired
	}
	return s.backend.VerifyCaptcha(ctx, token)
}

// Login validates the form, verifies the CAPTCHA, authenticates against the
// backend and opens a session.
func (s *AuthService) Login(ctx context.Context, form validate.LoginForm) (*domain.Session, error) {
	if err := form.Validate().Err(); err != nil {
		return nil, err
	}
	if form.Captcha == "" {
		return nil, ErrCaptchaRequired
	}
	if err := s.allow(ctx, "doc:"+form.Document); err != nil {
		return nil, err
	}
	if err := s.backend.VerifyCaptcha(ctx, form.Captcha); err != nil {
		s.log.Warn("captcha rejected", zap.Error(err))
		return nil, err
	}

	res, err := s.backend.Login(ctx, domain.Credentials{
		DocumentNumber: form.Document,
		Password:       form.Password,
		CaptchaToken:   form.Captcha,
	})
	if err != nil {
		s.log.Warn("backend login failed", zap.Error(err))
		return nil, err
	}
	return s.openSession(ctx, res.Token, res.User)
}

func (s *AuthService) allow(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.log.Warn("login limiter unavailable", zap.Error(err))
		return nil
	}
	if !ok {
		return ErrTooManyAttempts
	}
	return nil
}

// LoginWithIdentity opens a session for a user already authenticated by the
// identity provider. No backend token is attached.
func (s *AuthService) LoginWithIdentity(ctx context.Context, user domain.User) (*domain.Session, error) {
	if user.Email == "" {
		return nil, ErrInvalidCredentials
	}
	if user.ID == "" {
		user.ID = domain.ID(user.Email)
	}
	if user.Name == "" {
		user.Name, _, _ = strings.Cut(user.Email, "@")
	}
	return s.openSession(ctx, "", user)
}

func (s *AuthService) openSession(ctx context.Context, backendToken string, user domain.User) (*domain.Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	if exp, ok := tokenExpiry(backendToken); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !now.Before(expiresAt) {
		return nil, ErrSessionExpired
	}

	sess := &domain.Session{
		ID:           id,
		BackendToken: backendToken,
		User:         user,
		ExpiresAt:    expiresAt,
		CreatedAt:    now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// tokenExpiry reads the exp claim of a backend JWT without verifying it. The
// dashboard never trusts the claims, it only shortens its own session.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.sessions.Delete(ctx, id)
}

// ValidateSession returns the session for id if it exists and has not expired.
func (s *AuthService) ValidateSession(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, id)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// CheckEmailExists asks the backend whether email is registered. A malformed
// address is reported as a field error and never reaches the backend.
func (s *AuthService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if !validate.Email(email) {
		return false, validate.Errors{"correo": validate.RegisterMessage("correo")}
	}
	return s.backend.CheckEmailExists(ctx, email)
}

// CheckDocumentExists asks the backend whether a document number is
// registered, once the number has the right shape.
func (s *AuthService) CheckDocumentExists(ctx context.Context, number string) (bool, error) {
	number = strings.TrimSpace(number)
	if !validate.Document(number) {
		return false, validate.Errors{"nroDoc": validate.RegisterMessage("nroDoc")}
	}
	return s.backend.CheckDocumentExists(ctx, number)
}

// Register creates a customer account. Field errors short-circuit before the
// backend; conflicts come back as *domain.FieldConflictError.
func (s *AuthService) Register(ctx context.Context, form validate.RegisterForm) error {
	if err := form.Validate().Err(); err != nil {
		return err
	}
	if err := s.backend.Register(ctx, form.Payload()); err != nil {
		s.log.Warn("backend register failed", zap.Error(err))
		return err
	}
	s.log.Info("customer registered", zap.String("document", form.DocumentNumber))
	return nil
}

// RequestPasswordReset asks the backend to send a verification code.
func (s *AuthService) RequestPasswordReset(ctx context.Context, form validate.ResetRequestForm) error {
	if err := form.Validate().Err(); err != nil {
		return err
	}
	if err := s.backend.RequestPasswordReset(ctx, strings.TrimSpace(form.Email)); err != nil {
		s.log.Warn("backend password reset request failed", zap.Error(err))
		return err
	}
	return nil
}

// VerifyResetCode checks the code with the backend and returns a signed reset
// context for the final step.
func (s *AuthService) VerifyResetCode(ctx context.Context, email string, form validate.CodeForm) (string, error) {
	if !validate.Email(email) {
		return "", ErrInvalidResetContext
	}
	form.Code = validate.StripSpaces(form.Code)
	if err := form.Validate().Err(); err != nil {
		return "", err
	}
	resetToken, err := s.backend.VerifyResetCode(ctx, email, form.Code)
	if err != nil {
		s.log.Warn("backend reset code rejected", zap.Error(err))
		return "", err
	}
	return s.resets.Issue(domain.PasswordResetContext{Email: email, ResetToken: resetToken})
}

// ResetContext returns the reset context carried by token.
func (s *AuthService) ResetContext(token string) (*domain.PasswordResetContext, error) {
	return s.resets.Parse(token)
}

// ResetPassword sets the new password. It refuses to run without a valid reset
// context.
func (s *AuthService) ResetPassword(ctx context.Context, contextToken string, form validate.PasswordChangeForm) error {
	rc, err := s.resets.Parse(contextToken)
	if err != nil {
		return err
	}
	if err := form.Validate().Err(); err != nil {
		return err
	}
	if err := s.backend.ResetPassword(ctx, rc.ResetToken, form.Password); err != nil {
		s.log.Warn("backend password reset failed", zap.Error(err))
		return err
	}
	s.log.Info("password reset completed", zap.String("email", rc.Email))
	return nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
