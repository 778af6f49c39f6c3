// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"

	"perritofeliz/internal/app"
	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

const missingSiteKeyWarning = "Falta configurar RECAPTCHA_SITE_KEY"

var flashes = map[string]string{
	"registered": "Cuenta creada. Ya puedes iniciar sesión.",
	"reset":      "Contraseña actualizada. Inicia sesión con tu nueva contraseña.",
}

var conflictMessages = map[string]string{
	domain.ConflictEmail:    "Este correo ya está registrado.",
	domain.ConflictDocument: "Este documento ya está registrado.",
}

func (s *Server) loginPage(r *http.Request, form FormState) page {
	p := page{
		Title:   "Iniciar sesión",
		Form:    form,
		SiteKey: s.opts.RecaptchaSiteKey,
		SSO:     s.opts.OIDC.Enabled,
		Flash:   flashes[r.URL.Query().Get("ok")],
	}
	if p.SiteKey == "" {
		p.Warning = missingSiteKeyWarning
		p.MockCaptcha = s.opts.UseMocks
	}
	return p
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := s.auth.ValidateSession(r.Context(), c.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "login.html", s.loginPage(r, FormState{}))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	var form validate.LoginForm
	state := decodeForm(r.PostForm, &form)

	sess, err := s.auth.Login(r.Context(), form)
	if err != nil {
		p := s.loginPage(r, state)
		status := http.StatusUnprocessableEntity
		if errs, ok := validate.AsErrors(err); ok {
			// Both fields share one message.
			for _, msg := range errs {
				p.Error = msg
				break
			}
		} else {
			p.Error = userMessage(err)
			if errors.Is(err, app.ErrTooManyAttempts) {
				status = http.StatusTooManyRequests
			}
		}
		s.render(w, r, status, "login.html", p)
		return
	}

	s.setSessionCookie(w, sess.ID, sess.ExpiresAt)
	s.log.Info("login", zap.String("user", string(sess.User.ID)))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), c.Value); err != nil {
			s.log.Warn("logout failed", zap.Error(err))
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register.html", page{Title: "Crear cuenta"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	var form validate.RegisterForm
	state := decodeForm(r.PostForm, &form)

	err := s.auth.Register(r.Context(), form)
	if err == nil {
		http.Redirect(w, r, "/login?ok=registered", http.StatusSeeOther)
		return
	}

	p := page{Title: "Crear cuenta"}
	var conflict *domain.FieldConflictError
	switch errs, ok := validate.AsErrors(err); {
	case ok:
		p.Form = state.withErrors(errs)
	case errors.As(err, &conflict):
		field := "correo"
		if conflict.Field == domain.ConflictDocument {
			field = "nroDoc"
		}
		p.Form = state.withErrors(validate.Errors{field: conflictMessages[conflict.Field]})
	default:
		p.Form = state
		p.Error = userMessage(err)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "register.html", p)
}

func (s *Server) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if !s.opts.OIDC.Enabled {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}
	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, s.opts.OIDC.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if !s.opts.OIDC.Enabled {
		http.Error(w, "sso disabled", http.StatusNotFound)
		return
	}

	state, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != state.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", MaxAge: -1, Path: "/"})

	token, err := s.opts.OIDC.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Warn("sso code exchange failed", zap.Error(err))
		http.Error(w, "failed to exchange token", http.StatusBadGateway)
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token", http.StatusBadGateway)
		return
	}
	verifier := s.opts.OIDC.Provider.Verifier(&oidc.Config{ClientID: s.opts.OIDC.OAuth2Config.ClientID})
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		s.log.Warn("sso id token rejected", zap.Error(err))
		http.Error(w, "failed to verify token", http.StatusUnauthorized)
		return
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	if err := idToken.Claims(&claims); err != nil {
		http.Error(w, "failed to parse claims", http.StatusBadGateway)
		return
	}

	sess, err := s.auth.LoginWithIdentity(r.Context(), domain.User{
		ID:    domain.ID(claims.Sub),
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	})
	if err != nil {
		p := s.loginPage(r, FormState{})
		p.Error = userMessage(err)
		s.render(w, r, http.StatusUnauthorized, "login.html", p)
		return
	}

	s.setSessionCookie(w, sess.ID, sess.ExpiresAt)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func generateState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
