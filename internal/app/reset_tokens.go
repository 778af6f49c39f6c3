package app

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"perritofeliz/internal/domain"
)

const resetIssuer = "perritofeliz/password-reset"

// ResetTokenTTL bounds the time between code verification and the new password.
const ResetTokenTTL = 15 * time.Minute

type resetClaims struct {
	ResetToken string `json:"rt"`
	jwt.RegisteredClaims
}

// ResetTokens signs and verifies password reset contexts as HS256 JWTs.
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokens creates a signer. The secret must not be empty.
func NewResetTokens(secret []byte) *ResetTokens {
	return &ResetTokens{secret: secret, ttl: ResetTokenTTL, now: time.Now}
}

// Issue signs rc.
func (t *ResetTokens) Issue(rc domain.PasswordResetContext) (string, error) {
	if len(t.secret) == 0 {
		return "", errors.New("reset token secret is empty")
	}
	now := t.now()
	claims := resetClaims{
		ResetToken: rc.ResetToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    resetIssuer,
			Subject:   rc.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies token and returns its context. Every failure is
// ErrInvalidResetContext.
func (t *ResetTokens) Parse(token string) (*domain.PasswordResetContext, error) {
	if token == "" || len(t.secret) == 0 {
		return nil, ErrInvalidResetContext
	}
	var claims resetClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(resetIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || claims.Subject == "" || claims.ResetToken == "" {
		return nil, ErrInvalidResetContext
	}
	return &domain.PasswordResetContext{Email: claims.Subject, ResetToken: claims.ResetToken}, nil
}
