package http

import (
	"net/http"

	ports "shopledger/internal/gateway"
	"shopledger/internal/log"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.sessions.FromRequest(r); ok && sess != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "login.html", s.pageData(nil, nil))
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		creds := ports.Credentials{
			Email:    formValue(r, "email"),
			Password: r.PostFormValue("password"),
		}
		sess, err := s.sessions.Login(r.Context(), creds)
		if err != nil {
			s.logger.WarnContext(r.Context(), "login failed",
				log.FieldOperation, log.OpLogin,
				log.FieldError, err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			p := s.pageData(nil, nil)
			p.Error = "Invalid email or password."
			s.render(w, r, "login.html", p)
			return
		}
		s.sessions.SetCookie(w, sess)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "register.html", s.pageData(nil, nil))
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		input := ports.NewUser{
			Username: formValue(r, "username"),
			Email:    formValue(r, "email"),
			Password: r.PostFormValue("password"),
		}
		// Registration is open but always creates plain user accounts;
		// admins are added on the users page.
		svc := services.NewUserService(s.sessions.Anonymous(), s.logger)
		if err := svc.Add(r.Context(), input); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			p := s.pageData(nil, nil)
			p.Error = err.Error()
			s.render(w, r, "register.html", p)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *session.Session, _ *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	s.sessions.Logout(r.Context(), sess.ID)
	s.dropWorkspace(sess.ID)
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, sess *session.Session, _ *services.Workspace) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "home.html", s.pageData(sess, nil))
}
