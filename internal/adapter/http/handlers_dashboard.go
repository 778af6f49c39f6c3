package adapthttp

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"perritofeliz/internal/domain"
	"perritofeliz/internal/validate"
)

// maxEnrollmentBody leaves room for the text fields around the PDF.
const maxEnrollmentBody = domain.MaxVaccinationPDFSize + 1<<20

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "dashboard.html", page{Title: "Panel"})
}

func (s *Server) handleEnrollmentPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "matricula.html", page{Title: "Matrícula"})
}

func (s *Server) handleEnrollment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEnrollmentBody)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			p := page{Title: "Matrícula", Form: FormState{}.withErrors(validate.Errors{validate.VaccinationField: validate.MsgPDFTooLarge})}
			s.render(w, r, http.StatusRequestEntityTooLarge, "matricula.html", p)
			return
		}
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	var form validate.EnrollmentForm
	state := decodeForm(r.MultipartForm.Value, &form)
	state.Touched[validate.VaccinationField] = true

	pdf, err := readAttachment(r, validate.VaccinationField)
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	rec, err := s.enroll.Enroll(backendContext(r), form, pdf)
	if err != nil {
		p := page{Title: "Matrícula", Form: state}
		if errs, ok := validate.AsErrors(err); ok {
			p.Form = state.withErrors(errs)
		} else {
			p.Error = userMessage(err)
		}
		s.render(w, r, http.StatusUnprocessableEntity, "matricula.html", p)
		return
	}
	s.render(w, r, http.StatusOK, "matricula.html", page{
		Title:   "Matrícula",
		Flash:   "Matrícula registrada para " + form.PetName + ".",
		Receipt: rec,
	})
}

// readAttachment returns the uploaded file of field, or nil when there is none.
// Files over the size cap are described but not read.
func readAttachment(r *http.Request, field string) (*domain.Attachment, error) {
	f, fh, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	a := &domain.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if fh.Size > domain.MaxVaccinationPDFSize {
		return a, nil
	}
	a.Data, err = io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Server) handleStaffPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "usuarios.html", page{Title: "Usuarios internos"})
}

func (s *Server) handleStaff(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	var form validate.InternalUserForm
	state := decodeForm(r.PostForm, &form)

	err := s.staff.Create(backendContext(r), form)
	if err == nil {
		s.render(w, r, http.StatusOK, "usuarios.html", page{Title: "Usuarios internos", Flash: "Usuario creado correctamente."})
		return
	}

	p := page{Title: "Usuarios internos", Form: state}
	var conflict *domain.FieldConflictError
	switch errs, ok := validate.AsErrors(err); {
	case ok:
		p.Form = state.withErrors(errs)
	case errors.As(err, &conflict):
		field := "email"
		if conflict.Field == domain.ConflictDocument {
			field = "doc"
		}
		p.Form = state.withErrors(validate.Errors{field: conflictMessages[conflict.Field]})
	default:
		s.log.Warn("internal user creation failed", zap.Error(err))
		p.Error = userMessage(err)
	}
	s.render(w, r, http.StatusUnprocessableEntity, "usuarios.html", p)
}
