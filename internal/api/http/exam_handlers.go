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

// GET /exams: all exams newest-first with derived question counts.
func ListExamsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := st.ListExams(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exams)
	}
}

// POST /exams: tutor creates an exam with its ordered question batch.
func CreateExamHandler(st store.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft store.ExamDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		id, _ := auth.FromContext(r.Context())
		exam, err := st.CreateExam(r.Context(), draft, id.UserID)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := events.Append(r.Context(), eventlog.TypeExamCreated, exam.ID, exam.Exam); err != nil {
			log.Printf("eventlog: %v", err)
		}
		writeJSON(w, http.StatusCreated, exam)
	}
}

// GET /exams/{examID}: exam with its questions in display order. Correct
// answers are stripped for students.
func GetExamHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exam, err := st.GetExamWithQuestions(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		id, _ := auth.FromContext(r.Context())
		if id.Role == string(store.RoleStudent) {
			exam = studentView(exam)
		}
		writeJSON(w, http.StatusOK, exam)
	}
}

// PUT /exams/{examID}: tutor edits the exam; questions are reconciled as a
// batch (update kept ones, create new ones, delete removed ones).
func UpdateExamHandler(st store.Store, events *eventlog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft store.ExamDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		exam, err := st.UpdateExam(r.Context(), chi.URLParam(r, "examID"), draft)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := events.Append(r.Context(), eventlog.TypeExamUpdated, exam.ID, exam.Exam); err != nil {
			log.Printf("eventlog: %v", err)
		}
		writeJSON(w, http.StatusOK, exam)
	}
}

func studentView(exam store.ExamWithQuestions) store.ExamWithQuestions {
	questions := make([]store.Question, len(exam.Questions))
	copy(questions, exam.Questions)
	for i := range questions {
		questions[i].CorrectAnswer = ""
	}
	exam.Questions = questions
	return exam
}
