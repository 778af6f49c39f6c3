package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"perritofeliz/internal/app"
)

// OIDCConfig enables staff single sign-on.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Options configure a Server.
type Options struct {
	RecaptchaSiteKey string
	// UseMocks offers a stand-in CAPTCHA checkbox when no site key is configured.
	UseMocks     bool
	CookieSecure bool
	OIDC         OIDCConfig
	Logger       *zap.Logger
}

// Server is the driving HTTP adapter that renders the dashboard views and
// routes form submissions to application services.
type Server struct {
	auth   *app.AuthService
	enroll *app.EnrollmentService
	staff  *app.StaffService
	opts   Options
	log    *zap.Logger
}

// New creates a Server wired to the given application services.
func New(auth *app.AuthService, enroll *app.EnrollmentService, staff *app.StaffService, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, enroll: enroll, staff: staff, opts: opts, log: log}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(withNoCache)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		api.Post("/check/email", s.handleCheckEmail)
		api.Post("/check/document", s.handleCheckDocument)
		api.Post("/validate/register", s.handleValidateRegister)
	})

	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/register", s.handleRegisterPage)
	r.Post("/register", s.handleRegister)

	r.Get("/password", s.handleResetRequestPage)
	r.Post("/password", s.handleResetRequest)
	r.Get("/code", s.handleCodePage)
	r.Post("/code", s.handleCode)
	r.Post("/code/resend", s.handleCodeResend)
	r.Get("/reset", s.handleResetPage)
	r.Post("/reset", s.handleReset)

	r.Get("/auth/sso/login", s.handleSSOLogin)
	r.Get("/auth/sso/callback", s.handleSSOCallback)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)
		pr.Get("/", s.handleDashboard)
		pr.Get("/dashboard", s.handleDashboard)
		pr.Get("/matricula", s.handleEnrollmentPage)
		pr.Post("/matricula", s.handleEnrollment)
		pr.Get("/usuarios", s.handleStaffPage)
		pr.Post("/usuarios", s.handleStaff)
	})

	return r
}
