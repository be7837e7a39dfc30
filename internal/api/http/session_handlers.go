package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examstack/internal/auth"
	"github.com/examstack/examstack/internal/session"
	"github.com/examstack/examstack/internal/store"
)

type sessionQuestion struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Type    store.QuestionType `json:"type"`
	Options []string           `json:"options,omitempty"`
	Order   int                `json:"order"`
}

type sessionView struct {
	AttemptID string            `json:"attempt_id"`
	ExamID    string            `json:"exam_id"`
	Title     string            `json:"title"`
	State     string            `json:"state"`
	Remaining int               `json:"remaining_sec"`
	Index     int               `json:"index"`
	Questions []sessionQuestion `json:"questions"`
	Answers   map[string]string `json:"answers"`
	Error     string            `json:"error,omitempty"`
}

// POST /sessions  { "exam_id": "..." }
// Starts (or resumes) the caller's session for an exam.
func StartSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ExamID string `json:"exam_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		id, _ := auth.FromContext(r.Context())
		s, err := mgr.Start(r.Context(), req.ExamID, session.Student{
			UserID:    id.UserID,
			Name:      id.Name,
			Email:     id.Email,
			StudentID: id.StudentID,
		})
		if err != nil {
			if errors.Is(err, session.ErrNoStudent) {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(s))
	}
}

// GET /sessions/{attemptID}
func GetSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, mgr)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}

// POST /sessions/{attemptID}/navigate  { "action": "next|prev|jump", "to": 3 }
func NavigateSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, mgr)
		if !ok {
			return
		}
		var req struct {
			Action string `json:"action"`
			To     int    `json:"to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		var index int
		switch req.Action {
		case "next":
			index = s.Next()
		case "prev":
			index = s.Prev()
		case "jump":
			index = s.Jump(req.To)
		default:
			http.Error(w, "action must be next, prev or jump", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"index": index})
	}
}

// POST /sessions/{attemptID}/answers  { "question_id": "...", "answer": "..." }
func AnswerSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, mgr)
		if !ok {
			return
		}
		var req struct {
			QuestionID string `json:"question_id"`
			Answer     string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := s.SetAnswer(req.QuestionID, req.Answer); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	}
}

// POST /sessions/{attemptID}/submit
// Explicit submit. The countdown expiry drives the same path internally, so
// a duplicate trigger resolves to the one stored submission.
func SubmitSessionHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownSession(w, r, mgr)
		if !ok {
			return
		}
		sub, err := s.Submit(r.Context())
		if err != nil {
			if errors.Is(err, session.ErrSubmitInFlight) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			// Session stays in progress; the client may retry.
			writeErr(w, err)
			return
		}
		mgr.Release(s.AttemptID())
		writeJSON(w, http.StatusOK, sub)
	}
}

func ownSession(w http.ResponseWriter, r *http.Request, mgr *session.Manager) (*session.Session, bool) {
	s, ok := mgr.Get(chi.URLParam(r, "attemptID"))
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	id, _ := auth.FromContext(r.Context())
	if id.StudentID == "" || id.StudentID != s.StudentID() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return s, true
}

func viewOf(s *session.Session) sessionView {
	exam := s.Exam()
	view := sessionView{
		AttemptID: s.AttemptID(),
		ExamID:    s.ExamID(),
		Title:     exam.Title,
		State:     s.State(),
		Remaining: s.Remaining(),
		Index:     s.Index(),
		Answers:   s.Answers(),
	}
	for _, q := range exam.Questions {
		view.Questions = append(view.Questions, sessionQuestion{
			ID: q.ID, Text: q.Text, Type: q.Type, Options: q.Options, Order: q.Order,
		})
	}
	if err := s.Err(); err != nil {
		view.Error = err.Error()
	}
	return view
}
