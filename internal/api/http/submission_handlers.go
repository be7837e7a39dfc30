package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examstack/internal/auth"
	"github.com/examstack/examstack/internal/eventlog"
	"github.com/examstack/examstack/internal/store"
)

// GET /submissions?exam_id=...&student_id=...&limit=50&offset=0
// Tutors list any filters; students are forced onto their own student id.
func ListSubmissionsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.FromContext(r.Context())
		opts := store.SubmissionListOpts{
			ExamID:    r.URL.Query().Get("exam_id"),
			StudentID: r.URL.Query().Get("student_id"),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 0),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if id.Role == string(store.RoleStudent) {
			opts.StudentID = id.StudentID
		}
		subs, err := st.ListSubmissions(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := st.GetSubmission(r.Context(), chi.URLParam(r, "submissionID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		id, _ := auth.FromContext(r.Context())
		if id.Role == string(store.RoleStudent) && sub.StudentID != id.StudentID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// POST /submissions/{submissionID}/grade  { "score": 85 }
func GradeSubmissionHandler(st store.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Score *int `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Score == nil {
			http.Error(w, "score required", http.StatusBadRequest)
			return
		}
		sub, err := st.GradeSubmission(r.Context(), chi.URLParam(r, "submissionID"), *req.Score)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := events.Append(r.Context(), eventlog.TypeSubmissionGraded, sub.ID, sub); err != nil {
			log.Printf("eventlog: %v", err)
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
