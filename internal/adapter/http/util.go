package adapthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"perritofeliz/internal/app"
)

const sessionCookie = "pf_session"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": userMessage(err)})
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

var bannerMessages = []struct {
	err error
	msg string
}{
	{app.ErrInvalidCredentials, "Documento o contraseña incorrectos"},
	{app.ErrCaptchaRequired, "Por favor, confirma que no eres un robot"},
	{app.ErrInvalidResetContext, "El enlace de recuperación no es válido o expiró. Solicita un nuevo código."},
	{app.ErrTooManyAttempts, "Demasiados intentos. Espera un momento e inténtalo de nuevo."},
}

// userMessage turns an error into the single line shown in a banner.
func userMessage(err error) string {
	for _, b := range bannerMessages {
		if errors.Is(err, b.err) {
			return b.msg
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "El servidor tardó demasiado en responder. Intenta de nuevo."
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "No se pudo conectar con el servidor. Intenta de nuevo."
	}
	return err.Error()
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		MaxAge:   -1,
	})
}

// decodeForm copies src into the string fields of the struct pointed to by
// dst, keyed by their `form` tag, and returns the state used to re-render the
// form. Every decoded field counts as touched.
func decodeForm(src url.Values, dst any) FormState {
	state := FormState{Values: map[string]string{}, Touched: map[string]bool{}}
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || f.Type.Kind() != reflect.String {
			continue
		}
		val := src.Get(name)
		v.Field(i).SetString(val)
		state.Touched[name] = true
		if opts != "secret" {
			state.Values[name] = val
		}
	}
	return state
}
