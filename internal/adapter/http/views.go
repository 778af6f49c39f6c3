package adapthttp

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"perritofeliz/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var optionSets = map[string][]domain.Option{
	"doctypes":      domain.DocumentTypes,
	"staffdoctypes": domain.StaffDocumentTypes,
	"plans":         domain.Plans,
	"transports":    domain.Transports,
	"sizes":         domain.Sizes,
	"roles":         domain.StaffRoles,
}

var funcs = template.FuncMap{
	"options": func(name string) []domain.Option { return optionSets[name] },
}

var pages = loadPages(
	"login.html",
	"register.html",
	"password.html",
	"code.html",
	"reset.html",
	"dashboard.html",
	"matricula.html",
	"usuarios.html",
)

func loadPages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
	}
	return out
}

// page is the data every view receives.
type page struct {
	Title   string
	User    *domain.User
	Flash   string
	Error   string
	Warning string
	Form    FormState

	SiteKey     string
	MockCaptcha bool
	SSO         bool

	Email      string
	ResetToken string
	Receipt    *domain.EnrollmentReceipt
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if sess := sessionFromContext(r.Context()); sess != nil && p.User == nil {
		p.User = &sess.User
	}
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.Error("render failed", zap.String("view", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
