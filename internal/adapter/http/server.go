// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"
	"path/filepath"
	"time"

	"sessiondemo/internal/app"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OIDCConfig carries the optional SSO wiring.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to the
// authentication service.
type Server struct {
	authSvc    *app.AuthService
	views      *views
	sessionTTL time.Duration
	webDir     string
	oidcConfig OIDCConfig
}

// New creates a Server wired to the given authentication service. Templates
// are loaded from webDir/templates.
func New(authSvc *app.AuthService, sessionTTL time.Duration, webDir string, oidcConfig OIDCConfig) (*Server, error) {
	v, err := loadViews(filepath.Join(webDir, "templates"))
	if err != nil {
		return nil, err
	}
	return &Server{
		authSvc:    authSvc,
		views:      v,
		sessionTTL: sessionTTL,
		webDir:     webDir,
		oidcConfig: oidcConfig,
	}, nil
}

// Handler returns the root http.Handler for the application. Every route
// passes through the logging middleware and the auth gate.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /register", s.handleRegisterForm)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /home", s.handleHome)

	if s.oidcConfig.Enabled {
		mux.HandleFunc("GET /auth/sso", s.handleSSOLogin)
		mux.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)
	}

	mux.Handle("GET /static/", http.StripPrefix("/static/",
		http.FileServer(http.Dir(filepath.Join(s.webDir, "static")))))

	// Anything not matched above gets the 404 page.
	mux.HandleFunc("/", s.handleNotFound)

	return s.loggingMiddleware(s.authGate(mux))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusNotFound, "404", viewData{"url": r.URL.Path})
}

// serverError renders the 500 page with the failing URL and error message.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logf(r, "handler error: %v", err)
	s.views.render(w, http.StatusInternalServerError, "500", viewData{
		"url": r.URL.Path,
		"err": err.Error(),
	})
}
