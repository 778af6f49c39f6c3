package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"perritofeliz/internal/adapter/memory"
	"perritofeliz/internal/adapter/mockbackend"
	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

type mockBackend struct {
	calls int

	verifyCaptchaFn        func(ctx context.Context, token string) error
	loginFn                func(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error)
	checkEmailFn           func(ctx context.Context, email string) (bool, error)
	checkDocumentFn        func(ctx context.Context, number string) (bool, error)
	registerFn             func(ctx context.Context, p domain.RegistrationPayload) error
	requestPasswordResetFn func(ctx context.Context, email string) error
	verifyResetCodeFn      func(ctx context.Context, email, code string) (string, error)
	resetPasswordFn        func(ctx context.Context, resetToken, newPassword string) error
	createEnrollmentFn     func(ctx context.Context, e domain.Enrollment) (*domain.EnrollmentReceipt, error)
	createInternalUserFn   func(ctx context.Context, u domain.InternalUser) error
}

func (m *mockBackend) VerifyCaptcha(ctx context.Context, token string) error {
	m.calls++
	if m.verifyCaptchaFn != nil {
		return m.verifyCaptchaFn(ctx, token)
	}
	return nil
}

func (m *mockBackend) Login(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
	m.calls++
	if m.loginFn != nil {
		return m.loginFn(ctx, c)
	}
	return &domain.LoginResult{Token: "tok", User: domain.User{ID: "1", Name: "Perrito"}}, nil
}

func (m *mockBackend) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	m.calls++
	if m.checkEmailFn != nil {
		return m.checkEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockBackend) CheckDocumentExists(ctx context.Context, number string) (bool, error) {
	m.calls++
	if m.checkDocumentFn != nil {
		return m.checkDocumentFn(ctx, number)
	}
	return false, nil
}

func (m *mockBackend) Register(ctx context.Context, p domain.RegistrationPayload) error {
	m.calls++
	if m.registerFn != nil {
		return m.registerFn(ctx, p)
	}
	return nil
}

func (m *mockBackend) RequestPasswordReset(ctx context.Context, email string) error {
	m.calls++
	if m.requestPasswordResetFn != nil {
		return m.requestPasswordResetFn(ctx, email)
	}
	return nil
}

func (m *mockBackend) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	m.calls++
	if m.verifyResetCodeFn != nil {
		return m.verifyResetCodeFn(ctx, email, code)
	}
	return "rt", nil
}

func (m *mockBackend) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	m.calls++
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, resetToken, newPassword)
	}
	return nil
}

func (m *mockBackend) CreateEnrollment(ctx context.Context, e domain.Enrollment) (*domain.EnrollmentReceipt, error) {
	m.calls++
	if m.createEnrollmentFn != nil {
		return m.createEnrollmentFn(ctx, e)
	}
	return &domain.EnrollmentReceipt{ID: "enr-1"}, nil
}

func (m *mockBackend) CreateInternalUser(ctx context.Context, u domain.InternalUser) error {
	m.calls++
	if m.createInternalUserFn != nil {
		return m.createInternalUserFn(ctx, u)
	}
	return nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s *domain.Session) error
	getFn           func(ctx context.Context, id string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) Get(ctx context.Context, id string) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

type mockLimiter struct {
	allowFn func(ctx context.Context, key string) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return m.allowFn(ctx, key)
}

func newTestAuth(b domain.Backend, sessions domain.SessionRepository) *AuthService {
	return NewAuthService(b, sessions, NewResetTokens([]byte("test-secret")), AuthOptions{SessionTTL: time.Hour})
}

func validLogin() validate.LoginForm {
	return validate.LoginForm{Document: "123", Password: "perrito", Captcha: "captcha"}
}

func TestAuthService_Login_Success(t *testing.T) {
	var stored *domain.Session
	sessions := &mockSessionRepo{
		createFn: func(ctx context.Context, s *domain.Session) error {
			stored = s
			return nil
		},
	}
	b := &mockBackend{
		loginFn: func(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
			if c.DocumentNumber != "123" || c.CaptchaToken != "captcha" {
				t.Errorf("credentials = %+v", c)
			}
			return &domain.LoginResult{Token: "tok", User: domain.User{ID: "1", Name: "Perrito"}}, nil
		},
	}

	svc := newTestAuth(b, sessions)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess, err := svc.Login(context.Background(), validLogin())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sess.ID == "" || sess != stored {
		t.Fatal("session not stored")
	}
	if sess.BackendToken != "tok" || sess.User.Name != "Perrito" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt = %v", sess.ExpiresAt)
	}
}

func TestAuthService_Login_ExpiryCappedByBackendToken(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	exp := now.Add(10 * time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatal(err)
	}

	b := &mockBackend{
		loginFn: func(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
			return &domain.LoginResult{Token: token}, nil
		},
	}
	svc := newTestAuth(b, &mockSessionRepo{})
	svc.now = func() time.Time { return now }

	sess, err := svc.Login(context.Background(), validLogin())
	if err != nil {
		t.Fatal(err)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", sess.ExpiresAt, exp)
	}
}

func TestAuthService_Login_ShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		form validate.LoginForm
		want error
	}{
		{"missing document", validate.LoginForm{Password: "x", Captcha: "c"}, nil},
		{"missing captcha", validate.LoginForm{Document: "123", Password: "x"}, ErrCaptchaRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &mockBackend{}
			_, err := newTestAuth(b, &mockSessionRepo{}).Login(context.Background(), tt.form)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if tt.want == nil {
				if _, ok := validate.AsErrors(err); !ok {
					t.Fatalf("expected field errors, got %v", err)
				}
			}
			if b.calls != 0 {
				t.Errorf("backend called %d times", b.calls)
			}
		})
	}
}

func TestAuthService_Login_CaptchaRejected(t *testing.T) {
	b := &mockBackend{
		verifyCaptchaFn: func(ctx context.Context, token string) error {
			return errors.New("Captcha inválido")
		},
		loginFn: func(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
			t.Error("login should not be attempted")
			return nil, nil
		},
	}
	_, err := newTestAuth(b, &mockSessionRepo{}).Login(context.Background(), validLogin())
	if err == nil || err.Error() != "Captcha inválido" {
		t.Fatalf("got %v", err)
	}
}

func TestAuthService_Login_RateLimited(t *testing.T) {
	b := &mockBackend{}
	svc := NewAuthService(b, &mockSessionRepo{}, NewResetTokens([]byte("s")), AuthOptions{
		Limiter: &mockLimiter{allowFn: func(ctx context.Context, key string) (bool, error) {
			if key != "doc:123" {
				t.Errorf("key = %q", key)
			}
			return false, nil
		}},
	})
	if _, err := svc.Login(context.Background(), validLogin()); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("got %v", err)
	}
	if b.calls != 0 {
		t.Error("backend should not be called")
	}
}

func TestAuthService_Login_LimiterFailsOpen(t *testing.T) {
	svc := NewAuthService(&mockBackend{}, &mockSessionRepo{}, NewResetTokens([]byte("s")), AuthOptions{
		Limiter: &mockLimiter{allowFn: func(ctx context.Context, key string) (bool, error) {
			return false, errors.New("redis down")
		}},
	})
	if _, err := svc.Login(context.Background(), validLogin()); err != nil {
		t.Fatalf("expected login to proceed, got %v", err)
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	deleted := ""
	sessions := &mockSessionRepo{
		getFn: func(ctx context.Context, id string) (*domain.Session, error) {
			switch id {
			case "live":
				return &domain.Session{ID: id, ExpiresAt: now.Add(time.Minute)}, nil
			case "old":
				return &domain.Session{ID: id, ExpiresAt: now.Add(-time.Minute)}, nil
			case "broken":
				return nil, errors.New("db down")
			}
			return nil, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	svc := newTestAuth(&mockBackend{}, sessions)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	if s, err := svc.ValidateSession(ctx, "live"); err != nil || s.ID != "live" {
		t.Errorf("live: %v %v", s, err)
	}
	if _, err := svc.ValidateSession(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("empty: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, "unknown"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, "old"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("old: %v", err)
	}
	if deleted != "old" {
		t.Errorf("expired session not deleted, deleted = %q", deleted)
	}
	if _, err := svc.ValidateSession(ctx, "broken"); err == nil || errors.Is(err, ErrSessionNotFound) {
		t.Errorf("broken: %v", err)
	}
}

func TestAuthService_CheckExists_ShapeGate(t *testing.T) {
	b := &mockBackend{
		checkEmailFn:    func(ctx context.Context, email string) (bool, error) { return true, nil },
		checkDocumentFn: func(ctx context.Context, number string) (bool, error) { return true, nil },
	}
	svc := newTestAuth(b, &mockSessionRepo{})
	ctx := context.Background()

	if _, err := svc.CheckEmailExists(ctx, "no-arroba"); err == nil {
		t.Error("expected field error for malformed email")
	}
	if _, err := svc.CheckDocumentExists(ctx, "12a"); err == nil {
		t.Error("expected field error for malformed document")
	}
	if b.calls != 0 {
		t.Fatalf("backend called %d times before shape rule passed", b.calls)
	}

	if ok, err := svc.CheckEmailExists(ctx, " ana@perritofeliz.co "); err != nil || !ok {
		t.Errorf("email: %v %v", ok, err)
	}
	if ok, err := svc.CheckDocumentExists(ctx, "1020304050"); err != nil || !ok {
		t.Errorf("document: %v %v", ok, err)
	}
}

func validRegister() validate.RegisterForm {
	return validate.RegisterForm{
		FirstName: "Ana", LastName: "Gómez", DocumentType: "CC", DocumentNumber: "1020304050",
		Phone: "3001234567", Email: "ana@perritofeliz.co", Password: "Perrito1!", PasswordConfirm: "Perrito1!",
	}
}

func TestAuthService_Register_InvalidNeverReachesBackend(t *testing.T) {
	tests := map[string]func(*validate.RegisterForm){
		"missing name":  func(f *validate.RegisterForm) { f.FirstName = "" },
		"missing phone": func(f *validate.RegisterForm) { f.Phone = "" },
		"weak password": func(f *validate.RegisterForm) { f.Password, f.PasswordConfirm = "abc", "abc" },
		"mismatch":      func(f *validate.RegisterForm) { f.PasswordConfirm = "Otro123!" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			b := &mockBackend{}
			f := validRegister()
			mutate(&f)
			err := newTestAuth(b, &mockSessionRepo{}).Register(context.Background(), f)
			if _, ok := validate.AsErrors(err); !ok {
				t.Fatalf("expected field errors, got %v", err)
			}
			if b.calls != 0 {
				t.Errorf("backend called %d times", b.calls)
			}
		})
	}
}

func TestAuthService_Register_Conflict(t *testing.T) {
	b := &mockBackend{
		registerFn: func(ctx context.Context, p domain.RegistrationPayload) error {
			return &domain.FieldConflictError{Field: domain.ConflictEmail, Status: 409}
		},
	}
	err := newTestAuth(b, &mockSessionRepo{}).Register(context.Background(), validRegister())
	var conflict *domain.FieldConflictError
	if !errors.As(err, &conflict) || conflict.Field != domain.ConflictEmail {
		t.Fatalf("got %v", err)
	}
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	var gotToken, gotPassword string
	b := &mockBackend{
		verifyResetCodeFn: func(ctx context.Context, email, code string) (string, error) {
			if email != "ana@perritofeliz.co" || code != "123456" {
				return "", errors.New("Código inválido o expirado")
			}
			return "backend-rt", nil
		},
		resetPasswordFn: func(ctx context.Context, resetToken, newPassword string) error {
			gotToken, gotPassword = resetToken, newPassword
			return nil
		},
	}
	svc := newTestAuth(b, &mockSessionRepo{})
	ctx := context.Background()

	if err := svc.RequestPasswordReset(ctx, validate.ResetRequestForm{Email: "nope"}); err == nil {
		t.Fatal("expected field error")
	}
	if err := svc.RequestPasswordReset(ctx, validate.ResetRequestForm{Email: "ana@perritofeliz.co"}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.VerifyResetCode(ctx, "", validate.CodeForm{Code: "123456"}); !errors.Is(err, ErrInvalidResetContext) {
		t.Fatalf("missing email: %v", err)
	}
	if _, err := svc.VerifyResetCode(ctx, "ana@perritofeliz.co", validate.CodeForm{Code: "000000"}); err == nil {
		t.Fatal("expected wrong code error")
	}
	ctxToken, err := svc.VerifyResetCode(ctx, "ana@perritofeliz.co", validate.CodeForm{Code: "123456"})
	if err != nil {
		t.Fatal(err)
	}

	change := validate.PasswordChangeForm{Password: "Nueva123!", PasswordConfirm: "Nueva123!"}
	if err := svc.ResetPassword(ctx, "", change); !errors.Is(err, ErrInvalidResetContext) {
		t.Fatalf("no context: %v", err)
	}
	if err := svc.ResetPassword(ctx, ctxToken+"x", change); !errors.Is(err, ErrInvalidResetContext) {
		t.Fatalf("tampered context: %v", err)
	}
	if gotToken != "" {
		t.Fatal("backend reached without a valid context")
	}
	if err := svc.ResetPassword(ctx, ctxToken, change); err != nil {
		t.Fatal(err)
	}
	if gotToken != "backend-rt" || gotPassword != "Nueva123!" {
		t.Errorf("backend got %q %q", gotToken, gotPassword)
	}
}

func TestAuthService_VerifyResetCode_IgnoresWhitespace(t *testing.T) {
	var gotCode string
	b := &mockBackend{
		verifyResetCodeFn: func(ctx context.Context, email, code string) (string, error) {
			gotCode = code
			return "backend-rt", nil
		},
	}
	svc := newTestAuth(b, &mockSessionRepo{})
	if _, err := svc.VerifyResetCode(context.Background(), "ana@perritofeliz.co", validate.CodeForm{Code: " 123 456\t"}); err != nil {
		t.Fatal(err)
	}
	if gotCode != "123456" {
		t.Errorf("backend got code %q", gotCode)
	}
}

func TestAuthService_LoginWithIdentity(t *testing.T) {
	svc := newTestAuth(&mockBackend{}, &mockSessionRepo{})
	if _, err := svc.LoginWithIdentity(context.Background(), domain.User{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v", err)
	}
	sess, err := svc.LoginWithIdentity(context.Background(), domain.User{Email: "luis@perritofeliz.co"})
	if err != nil {
		t.Fatal(err)
	}
	if sess.User.Name != "luis" || sess.User.ID != "luis@perritofeliz.co" || sess.BackendToken != "" {
		t.Errorf("session = %+v", sess)
	}
}

func TestAuthService_MockBackendEndToEnd(t *testing.T) {
	b := mockbackend.New(0, nil)
	sessions := memory.NewSessionRepo()
	svc := newTestAuth(b, sessions)
	ctx := context.Background()

	sess, err := svc.Login(ctx, validLogin())
	if err != nil {
		t.Fatal(err)
	}
	if sess.BackendToken != mockbackend.DemoToken || sess.User.ID != "1" || sess.User.Name != "Perrito" {
		t.Fatalf("session = %+v", sess)
	}
	if _, err := svc.ValidateSession(ctx, sess.ID); err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}

	for _, f := range []validate.LoginForm{
		{Document: "123", Password: "gato", Captcha: "c"},
		{Document: "456", Password: "perrito", Captcha: "c"},
	} {
		if _, err := svc.Login(ctx, f); err == nil || err.Error() != mockbackend.MsgCredentialsInvalid {
			t.Errorf("%+v: got %v", f, err)
		}
	}

	if err := svc.Logout(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateSession(ctx, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("after logout: %v", err)
	}
}

func TestAuthService_MockBackendPasswordReset(t *testing.T) {
	b := mockbackend.New(0, nil)
	svc := newTestAuth(b, memory.NewSessionRepo())
	ctx := context.Background()

	if err := svc.RequestPasswordReset(ctx, validate.ResetRequestForm{Email: mockbackend.DemoEmail}); err != nil {
		t.Fatal(err)
	}
	code, _ := b.ResetCode(mockbackend.DemoEmail)
	ctxToken, err := svc.VerifyResetCode(ctx, mockbackend.DemoEmail, validate.CodeForm{Code: code})
	if err != nil {
		t.Fatal(err)
	}
	change := validate.PasswordChangeForm{Password: "Nueva123!", PasswordConfirm: "Nueva123!"}
	if err := svc.ResetPassword(ctx, ctxToken, change); err != nil {
		t.Fatal(err)
	}
	if !b.PasswordMatches(mockbackend.DemoEmail, "Nueva123!") {
		t.Error("password not changed")
	}
	if err := svc.ResetPassword(ctx, ctxToken, change); err == nil {
		t.Error("reset token should be single use")
	}
}
