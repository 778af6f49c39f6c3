package domain

import "context"

// Backend is the port to the business backend. A mock and an HTTP
// implementation exist; the composition root picks one.
//
// Every error carries a single message suitable for the end user.
type Backend interface {
	VerifyCaptcha(ctx context.Context, token string) error
	Login(ctx context.Context, c Credentials) (*LoginResult, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CheckDocumentExists(ctx context.Context, number string) (bool, error)
	Register(ctx context.Context, p RegistrationPayload) error

	RequestPasswordReset(ctx context.Context, email string) error
	// VerifyResetCode exchanges a verification code for a reset token.
	VerifyResetCode(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	CreateEnrollment(ctx context.Context, e Enrollment) (*EnrollmentReceipt, error)
	CreateInternalUser(ctx context.Context, u InternalUser) error
}
