package http

import (
	"errors"
	"net/http"

	"shopledger/internal/core"
	ports "shopledger/internal/gateway"
	"shopledger/internal/services"
	"shopledger/internal/session"
)

type usersView struct {
	Users         []core.User
	SessionUserID string
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	p := s.pageData(sess, nil)
	users, err := ws.Users.Users(r.Context())
	if err != nil {
		p.Error = userMessage(err)
	}
	if msg := r.URL.Query().Get("error"); p.Error == "" && msg != "" {
		p.Error = msg
	}
	p.Data = usersView{Users: users, SessionUserID: sess.UserID}
	s.render(w, r, "users.html", p)
}

func (s *Server) handleUserAdd(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	input := ports.NewUser{
		Username: formValue(r, "username"),
		Email:    formValue(r, "email"),
		Password: r.PostFormValue("password"),
		Role:     core.Role(formValue(r, "role")),
	}
	err := ws.Users.Add(r.Context(), input)
	s.redirectWithError(w, r, "/users", err)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request, sess *session.Session, ws *services.Workspace) {
	if !postOnly(w, r) {
		return
	}
	err := ws.Users.Delete(r.Context(), formValue(r, "id"), sess.UserID, confirmed(r))
	if errors.Is(err, services.ErrConfirmationRequired) {
		s.renderConfirm(w, r, sess, "Delete this account?", "/users/delete")
		return
	}
	s.redirectWithError(w, r, "/users", err)
}
