package web

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"medease/m/internal/client"
	"medease/m/internal/forms"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home", s.newPage(r, "MedEase"))
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login", s.newPage(r, "Login"))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Login")
	f, err := forms.ParseLogin(r)
	if err != nil {
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "login", data)
		return
	}

	if _, err := s.sessions.Login(r.Context(), w, f.Email, f.Password); err != nil {
		data.FormError = authFailure(err, "Login failed. Please try again.")
		logrus.WithField("email", f.Email).WithError(err).Warn("login failed")
		s.render(w, r, http.StatusUnauthorized, "login", data)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) registerPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register", s.newPage(r, "Register"))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Register")
	f, err := forms.ParseRegister(r)
	if err != nil {
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "register", data)
		return
	}

	req := client.RegisterRequest{Username: f.Username, Email: f.Email, Password: f.Password}
	if _, err := s.sessions.Register(r.Context(), w, req); err != nil {
		data.FormError = authFailure(err, "Registration failed. Please try again.")
		logrus.WithField("email", f.Email).WithError(err).Warn("registration failed")
		s.render(w, r, http.StatusBadRequest, "register", data)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context(), w, r); err != nil {
		logrus.WithError(err).Warn("unable to delete session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authFailure turns an API rejection into the message shown on the form.
func authFailure(err error, fallback string) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return "Invalid email or password."
	case http.StatusConflict:
		return "An account with this email already exists."
	default:
		return fallback
	}
}
