package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/examstack/examstack/internal/auth"
	"github.com/examstack/examstack/internal/store"
)

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	User        store.User `json:"user"`
}

// POST /auth/login  { "email": "...", "password": "..." }
// Tutor (and admin) login against the stored bcrypt hash.
func LoginHandler(st store.Store, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := st.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			writeErr(w, err)
			return
		}
		if u.Role == store.RoleStudent || u.PasswordHash == "" ||
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		issueToken(w, svc, u)
	}
}

// POST /auth/student-login  { "name": "...", "email": "...", "student_id": "..." }
// Students have no password: they are matched (or created) by student id.
func StudentLoginHandler(st store.Store, svc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name      string `json:"name"`
			Email     string `json:"email"`
			StudentID string `json:"student_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Name == "" || req.StudentID == "" {
			http.Error(w, "name and student_id required", http.StatusBadRequest)
			return
		}
		u, err := st.EnsureStudent(r.Context(), req.Name, req.Email, req.StudentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		issueToken(w, svc, u)
	}
}

func issueToken(w http.ResponseWriter, svc *auth.Service, u store.User) {
	tok, err := svc.Issue(auth.Identity{
		UserID:    u.ID,
		Role:      string(u.Role),
		Name:      u.Name,
		Email:     u.Email,
		StudentID: u.StudentID,
	})
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: tok, User: u})
}
