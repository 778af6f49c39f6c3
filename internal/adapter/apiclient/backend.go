package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"perritofeliz/internal/domain"
)

// Backend implements domain.Backend against the HTTP API.
type Backend struct {
	c *Client
}

// NewBackend wraps a client.
func NewBackend(c *Client) *Backend {
	return &Backend{c: c}
}

var _ domain.Backend = (*Backend)(nil)

// VerifyCaptcha forwards the widget token to the backend, which verifies it with
// the CAPTCHA provider.
func (b *Backend) VerifyCaptcha(ctx context.Context, token string) error {
	return b.c.PostJSON(ctx, "/auth/verify-recaptcha", map[string]string{"recaptchaToken": token}, nil)
}

// Login exchanges credentials for a backend token and profile.
func (b *Backend) Login(ctx context.Context, c domain.Credentials) (*domain.LoginResult, error) {
	var out domain.LoginResult
	if err := b.c.PostJSON(ctx, "/auth/login", c, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "La respuesta del servidor no incluye un token."}
	}
	return &out, nil
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// CheckEmailExists asks whether the e-mail is registered.
func (b *Backend) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var out existsResponse
	err := b.c.PostJSON(ctx, "/auth/check-email", map[string]string{"email": email}, &out)
	return out.Exists, err
}

// CheckDocumentExists asks whether the document number is registered.
func (b *Backend) CheckDocumentExists(ctx context.Context, number string) (bool, error) {
	var out existsResponse
	err := b.c.PostJSON(ctx, "/auth/check-document", map[string]string{"documentNumber": number}, &out)
	return out.Exists, err
}

// Register creates a customer account. A 409 naming a field becomes a
// *domain.FieldConflictError.
func (b *Backend) Register(ctx context.Context, p domain.RegistrationPayload) error {
	err := b.c.PostJSON(ctx, "/auth/register", p, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		if field := conflictField(apiErr.Field); field != "" {
			return &domain.FieldConflictError{Field: field, Status: apiErr.Status, Message: apiErr.Message}
		}
	}
	return err
}

func conflictField(raw string) string {
	f := strings.ToLower(raw)
	switch {
	case strings.Contains(f, "email"), strings.Contains(f, "correo"):
		return domain.ConflictEmail
	case strings.Contains(f, "document"):
		return domain.ConflictDocument
	}
	return ""
}

// RequestPasswordReset asks the backend to e-mail a verification code.
func (b *Backend) RequestPasswordReset(ctx context.Context, email string) error {
	return b.c.PostJSON(ctx, "/auth/password-reset/request", map[string]string{"email": email}, nil)
}

// VerifyResetCode exchanges the e-mailed code for a reset token.
func (b *Backend) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	var out struct {
		ResetToken string `json:"resetToken"`
	}
	if err := b.c.PostJSON(ctx, "/auth/password-reset/verify", map[string]string{"email": email, "code": code}, &out); err != nil {
		return "", err
	}
	if out.ResetToken == "" {
		return "", &APIError{Status: http.StatusBadGateway, Message: "Código inválido o expirado"}
	}
	return out.ResetToken, nil
}

// ResetPassword sets a new password for the account bound to resetToken.
func (b *Backend) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return b.c.PostJSON(ctx, "/auth/password-reset/confirm", map[string]string{
		"resetToken":  resetToken,
		"newPassword": newPassword,
	}, nil)
}

// CreateEnrollment uploads the enrollment with its vaccination proof.
func (b *Backend) CreateEnrollment(ctx context.Context, e domain.Enrollment) (*domain.EnrollmentReceipt, error) {
	fields := map[string]string{
		"plan":      e.Plan,
		"transport": e.Transport,
		"petName":   e.PetName,
		"breed":     e.Breed,
		"birthDate": e.BirthDate,
		"size":      e.Size,
	}
	var files []Part
	if a := e.VaccinationProof; a != nil {
		files = append(files, Part{
			Field:       "vaccinationPdf",
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Data:        a.Data,
		})
	}
	var out domain.EnrollmentReceipt
	if err := b.c.PostMultipart(ctx, "/enrollments", fields, files, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInternalUser creates a staff account.
func (b *Backend) CreateInternalUser(ctx context.Context, u domain.InternalUser) error {
	return b.c.PostJSON(ctx, "/internal-users", u, nil)
}
