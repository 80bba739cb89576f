package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"sessiondemo/internal/app"
)

const sessionCookieName = "session"

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.sessionTTL / time.Second),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "index", viewData{
		"ssoEnabled": s.oidcConfig.Enabled,
	})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "login", viewData{
		"ssoEnabled": s.oidcConfig.Enabled,
	})
}

// handleLogin consumes the login form. Auth failures re-render the form with
// HTTP 200 and never reveal whether the username or the password was wrong.
// The session lifetime is server policy; a client-sent maxAge field is
// ignored.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusOK, "login", viewData{"err": "invalid form"})
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.views.render(w, http.StatusOK, "login", viewData{"err": "username and password are required"})
		return
	}

	session, err := s.authSvc.Login(r.Context(), username, password, s.sessionTTL)
	if errors.Is(err, app.ErrInvalidCredentials) {
		s.views.render(w, http.StatusOK, "login", viewData{"err": "invalid username or password"})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.setSessionCookie(w, session.Token)
	http.Redirect(w, r, "/home", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.authSvc.Logout(r.Context(), cookie.Value); err != nil {
			s.serverError(w, r, err)
			return
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.views.render(w, http.StatusOK, "register", viewData{})
}

// handleRegister consumes the registration form. Rejections re-render the
// form with HTTP 200; success redirects to the login page without creating a
// session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.views.render(w, http.StatusOK, "register", viewData{"err": "invalid form"})
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirmPassword")
	if username == "" || password == "" || confirm == "" {
		s.views.render(w, http.StatusOK, "register", viewData{"err": "all fields are required"})
		return
	}

	err := s.authSvc.Register(r.Context(), username, password, confirm)
	switch {
	case errors.Is(err, app.ErrPasswordMismatch):
		s.views.render(w, http.StatusOK, "register", viewData{"err": "passwords do not match"})
	case errors.Is(err, app.ErrUsernameTaken):
		s.views.render(w, http.StatusOK, "register", viewData{"err": "username already taken"})
	case err != nil:
		s.serverError(w, r, err)
	default:
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

// handleHome records the visit and shows the counter along with the seconds
// left before the session's absolute expiry.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	count, session, err := s.authSvc.RecordVisit(r.Context(), session.Token)
	if errors.Is(err, app.ErrSessionNotFound) {
		// Expired between the gate and the visit.
		s.clearSessionCookie(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.views.render(w, http.StatusOK, "home", viewData{
		"username": session.User.Username,
		"counter":  count,
		"maxAge":   int(session.Remaining(time.Now()) / time.Second),
	})
}
