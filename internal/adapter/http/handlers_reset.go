package adapthttp

import (
	"errors"
	"net/http"
	"net/url"

	"perritofeliz/internal/app"
	"perritofeliz/internal/validate"
)

const codeSentFlash = "Te enviamos un nuevo código. Revisa tu correo."

func (s *Server) handleResetRequestPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "password.html", page{Title: "Recuperar contraseña"})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	var form validate.ResetRequestForm
	state := decodeForm(r.PostForm, &form)

	if err := s.auth.RequestPasswordReset(r.Context(), form); err != nil {
		p := page{Title: "Recuperar contraseña", Form: state}
		if errs, ok := validate.AsErrors(err); ok {
			p.Form = state.withErrors(errs)
		} else {
			p.Error = userMessage(err)
		}
		s.render(w, r, http.StatusUnprocessableEntity, "password.html", p)
		return
	}
	http.Redirect(w, r, "/code?email="+url.QueryEscape(form.Email), http.StatusSeeOther)
}

func (s *Server) handleCodePage(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if !validate.Email(email) {
		http.Redirect(w, r, "/password", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "code.html", page{Title: "Verificar código", Email: email})
}

func (s *Server) handleCode(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")
	var form validate.CodeForm
	state := decodeForm(r.PostForm, &form)

	token, err := s.auth.VerifyResetCode(r.Context(), email, form)
	if err == nil {
		http.Redirect(w, r, "/reset?t="+url.QueryEscape(token), http.StatusSeeOther)
		return
	}
	if errors.Is(err, app.ErrInvalidResetContext) {
		s.render(w, r, http.StatusBadRequest, "password.html", page{Title: "Recuperar contraseña", Error: userMessage(err)})
		return
	}

	p := page{Title: "Verificar código", Email: email, Form: state}
	if errs, ok := validate.AsErrors(err); ok {
		p.Form = state.withErrors(errs)
	} else {
		p.Error = userMessage(err)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "code.html", p)
}

func (s *Server) handleCodeResend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	form := validate.ResetRequestForm{Email: r.PostForm.Get("email")}
	p := page{Title: "Verificar código", Email: form.Email}
	if err := s.auth.RequestPasswordReset(r.Context(), form); err != nil {
		if _, ok := validate.AsErrors(err); ok {
			http.Redirect(w, r, "/password", http.StatusSeeOther)
			return
		}
		p.Error = userMessage(err)
		s.render(w, r, http.StatusBadGateway, "code.html", p)
		return
	}
	p.Flash = codeSentFlash
	s.render(w, r, http.StatusOK, "code.html", p)
}

func (s *Server) handleResetPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("t")
	rc, err := s.auth.ResetContext(token)
	if err != nil {
		s.render(w, r, http.StatusBadRequest, "password.html", page{Title: "Recuperar contraseña", Error: userMessage(err)})
		return
	}
	s.render(w, r, http.StatusOK, "reset.html", page{Title: "Nueva contraseña", Email: rc.Email, ResetToken: token})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get("t")
	var form validate.PasswordChangeForm
	state := decodeForm(r.PostForm, &form)

	err := s.auth.ResetPassword(r.Context(), token, form)
	if err == nil {
		http.Redirect(w, r, "/login?ok=reset", http.StatusSeeOther)
		return
	}
	if errors.Is(err, app.ErrInvalidResetContext) {
		s.render(w, r, http.StatusBadRequest, "password.html", page{Title: "Recuperar contraseña", Error: userMessage(err)})
		return
	}

	p := page{Title: "Nueva contraseña", ResetToken: token, Form: state}
	if rc, perr := s.auth.ResetContext(token); perr == nil {
		p.Email = rc.Email
	}
	if errs, ok := validate.AsErrors(err); ok {
		p.Form = state.withErrors(errs)
	} else {
		p.Error = userMessage(err)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "reset.html", p)
}
