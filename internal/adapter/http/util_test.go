package adapthttp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"perritofeliz/internal/app"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"credentials", app.ErrInvalidCredentials, "Documento o contraseña incorrectos"},
		{"captcha", app.ErrCaptchaRequired, "Por favor, confirma que no eres un robot"},
		{"wrapped reset context", fmt.Errorf("parse: %w", app.ErrInvalidResetContext), "El enlace de recuperación no es válido o expiró. Solicita un nuevo código."},
		{"limiter", app.ErrTooManyAttempts, "Demasiados intentos. Espera un momento e inténtalo de nuevo."},
		{"timeout", context.DeadlineExceeded, "El servidor tardó demasiado en responder. Intenta de nuevo."},
		{"backend message", errors.New("Credenciales inválidas (mock)"), "Credenciales inválidas (mock)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userMessage(tt.err); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
