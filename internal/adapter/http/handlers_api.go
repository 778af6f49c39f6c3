package adapthttp

import (
	"net/http"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

type checkResponse struct {
	Exists  bool   `json:"exists"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeCheck(w, "correo", domain.ConflictEmail, func() (bool, error) { return s.auth.CheckEmailExists(r.Context(), req.Email) })
}

func (s *Server) handleCheckDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentNumber string `json:"documentNumber"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	s.writeCheck(w, "nroDoc", domain.ConflictDocument, func() (bool, error) { return s.auth.CheckDocumentExists(r.Context(), req.DocumentNumber) })
}

func (s *Server) writeCheck(w http.ResponseWriter, field, conflict string, check func() (bool, error)) {
	exists, err := check()
	if errs, ok := validate.AsErrors(err); ok {
		writeJSON(w, http.StatusOK, checkResponse{Message: errs[field]})
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	resp := checkResponse{Exists: exists, Valid: true}
	if exists {
		resp.Message = conflictMessages[conflict]
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleValidateRegister runs the local rules of one registration field
// against the whole submitted form.
func (s *Server) handleValidateRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid form"})
		return
	}
	field := r.PostForm.Get("field")
	var form validate.RegisterForm
	decodeForm(r.PostForm, &form)
	writeJSON(w, http.StatusOK, map[string]string{
		"field":   field,
		"message": form.Validate()[field],
	})
}
