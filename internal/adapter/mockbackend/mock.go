// Package mockbackend implements the backend port in memory so the dashboard
// can run without the business API.
package mockbackend

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"perritofeliz/internal/domain"
)

// Demo credentials accepted by Login.
const (
	DemoDocument = "123"
	DemoPassword = "perrito"
	DemoEmail    = "demo@perritofeliz.co"
	DemoToken    = "jwt-mock"
)

// Messages returned by the mock.
const (
	MsgCaptchaInvalid     = "Captcha inválido (mock)"
	MsgCredentialsMissing = "Credenciales incompletas (mock)"
	MsgCredentialsInvalid = "Credenciales inválidas (mock)"
	MsgEmailTaken         = "Este correo ya está registrado (mock)"
	MsgDocumentTaken      = "Este documento ya está registrado (mock)"
	MsgCodeInvalid        = "Código inválido o expirado"
	MsgResetTokenInvalid  = "El enlace de recuperación no es válido o expiró."
)

// Error is returned by every failing mock call.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

type account struct {
	id           string
	email        string
	document     string
	passwordHash []byte
}

type resetCode struct {
	code      string
	expiresAt time.Time
}

// Backend is an in-memory domain.Backend with artificial latency.
type Backend struct {
	latency time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu          sync.Mutex
	accounts    map[string]*account // by lower-cased e-mail
	documents   map[string]*account
	codes       map[string]resetCode // by e-mail
	resetTokens map[string]string    // token -> e-mail
	enrollments []domain.Enrollment
	staff       []domain.InternalUser
}

// New creates a mock backend seeded with the demo account.
func New(latency time.Duration, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{
		latency:     latency,
		log:         log,
		now:         time.Now,
		accounts:    make(map[string]*account),
		documents:   make(map[string]*account),
		codes:       make(map[string]resetCode),
		resetTokens: make(map[string]string),
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	b.store(&account{id: "1", email: DemoEmail, document: DemoDocument, passwordHash: hash})
	return b
}

var _ domain.Backend = (*Backend)(nil)

func (b *Backend) store(a *account) {
	b.accounts[strings.ToLower(a.email)] = a
	b.documents[a.document] = a
}

func (b *Backend) wait(ctx context.Context) error {
	if b.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(b.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// VerifyCaptcha accepts any non-empty token.
func (b *Backend) VerifyCaptcha(ctx context.Context, token string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	if token == "" {
		return &Error{Status: http.StatusBadRequest, Message: MsgCaptchaInvalid}
	}
	return nil
}

// Login accepts only the demo credentials.
func (b *Backend) Login(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if c.DocumentNumber == "" || c.Password == "" {
		return nil, &Error{Status: http.StatusBadRequest, Message: MsgCredentialsMissing}
	}
	if c.DocumentNumber != DemoDocument || c.Password != DemoPassword {
		return nil, &Error{Status: http.StatusUnauthorized, Message: MsgCredentialsInvalid}
	}
	return &domain.LoginResult{
		Message: "Login exitoso (mock)",
		Token:   DemoToken,
		User:    domain.User{ID: "1", Name: "Perrito", Email: DemoEmail, DocumentNumber: DemoDocument},
	}, nil
}

// CheckEmailExists reports whether the e-mail belongs to a known account.
func (b *Backend) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	if err := b.wait(ctx); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.accounts[strings.ToLower(email)]
	return ok, nil
}

// CheckDocumentExists reports whether the document belongs to a known account.
func (b *Backend) CheckDocumentExists(ctx context.Context, number string) (bool, error) {
	if err := b.wait(ctx); err != nil {
		return false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.documents[number]
	return ok, nil
}

// Register stores the account unless the e-mail or document is taken.
func (b *Backend) Register(ctx context.Context, p domain.RegistrationPayload) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[strings.ToLower(p.Email)]; ok {
		return &domain.FieldConflictError{Field: domain.ConflictEmail, Status: http.StatusConflict, Message: MsgEmailTaken}
	}
	if _, ok := b.documents[p.DocumentNumber]; ok {
		return &domain.FieldConflictError{Field: domain.ConflictDocument, Status: http.StatusConflict, Message: MsgDocumentTaken}
	}
	b.store(&account{id: uuid.NewString(), email: p.Email, document: p.DocumentNumber, passwordHash: hash})
	return nil
}

// RequestPasswordReset issues a 6-digit code for known e-mails. Unknown
// e-mails succeed silently so the response does not reveal accounts.
func (b *Backend) RequestPasswordReset(ctx context.Context, email string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	code, err := sixDigits()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := b.accounts[key]; !ok {
		return nil
	}
	b.codes[key] = resetCode{code: code, expiresAt: b.now().Add(15 * time.Minute)}
	b.log.Info("mock password reset code issued", zap.String("email", email), zap.String("code", code))
	return nil
}

// ResetCode returns the pending code for email. Development and tests only.
func (b *Backend) ResetCode(email string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rc, ok := b.codes[strings.ToLower(email)]
	return rc.code, ok
}

// VerifyResetCode consumes the code and returns a single-use reset token.
func (b *Backend) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	if err := b.wait(ctx); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	key := strings.ToLower(email)
	rc, ok := b.codes[key]
	if !ok || rc.code != code || b.now().After(rc.expiresAt) {
		return "", &Error{Status: http.StatusBadRequest, Message: MsgCodeInvalid}
	}
	delete(b.codes, key)
	token := uuid.NewString()
	b.resetTokens[token] = key
	return token, nil
}

// ResetPassword consumes the reset token and stores the new password hash.
func (b *Backend) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.resetTokens[resetToken]
	if !ok {
		return &Error{Status: http.StatusUnauthorized, Message: MsgResetTokenInvalid}
	}
	delete(b.resetTokens, resetToken)
	acc, ok := b.accounts[email]
	if !ok {
		return &Error{Status: http.StatusUnauthorized, Message: MsgResetTokenInvalid}
	}
	acc.passwordHash = hash
	return nil
}

// PasswordMatches reports whether password is the stored one for email.
// Development and tests only.
func (b *Backend) PasswordMatches(email, password string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[strings.ToLower(email)]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) == nil
}

// CreateEnrollment records the enrollment. The attachment bytes are dropped.
func (b *Backend) CreateEnrollment(ctx context.Context, e domain.Enrollment) (*domain.EnrollmentReceipt, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if e.VaccinationProof == nil {
		return nil, &Error{Status: http.StatusBadRequest, Message: "Falta el carné de vacunación."}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	proof := *e.VaccinationProof
	proof.Data = nil
	e.VaccinationProof = &proof
	b.enrollments = append(b.enrollments, e)
	return &domain.EnrollmentReceipt{ID: uuid.NewString(), CreatedAt: b.now().UTC()}, nil
}

// Enrollments returns a copy of the recorded enrollments.
func (b *Backend) Enrollments() []domain.Enrollment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Enrollment(nil), b.enrollments...)
}

// CreateInternalUser records the staff account. Its e-mail and document become
// taken for customer registration too.
func (b *Backend) CreateInternalUser(ctx context.Context, u domain.InternalUser) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[strings.ToLower(u.Email)]; ok {
		return &domain.FieldConflictError{Field: domain.ConflictEmail, Status: http.StatusConflict, Message: MsgEmailTaken}
	}
	if _, ok := b.documents[u.DocumentNumber]; ok {
		return &domain.FieldConflictError{Field: domain.ConflictDocument, Status: http.StatusConflict, Message: MsgDocumentTaken}
	}
	b.store(&account{id: uuid.NewString(), email: u.Email, document: u.DocumentNumber, passwordHash: hash})
	u.Password = ""
	b.staff = append(b.staff, u)
	return nil
}

// Staff returns a copy of the recorded staff accounts, without passwords.
func (b *Backend) Staff() []domain.InternalUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.InternalUser(nil), b.staff...)
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", errors.New("generate reset code: " + err.Error())
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
