package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/examstack/examstack/internal/analytics"
	"github.com/examstack/examstack/internal/store"
)

type DashboardConfig struct {
	TimelineDays    int
	ComparisonTopK  int
	LeaderboardSize int
}

// GET /exams/{examID}/report: per-exam score summary, distribution and
// question breakdown.
func ExamReportHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := chi.URLParam(r, "examID")
		exam, err := st.GetExamWithQuestions(r.Context(), examID)
		if err != nil {
			writeErr(w, err)
			return
		}
		subs, err := st.ListSubmissions(r.Context(), store.SubmissionListOpts{ExamID: examID})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analytics.Report(exam, subs))
	}
}

type dashboardResponse struct {
	Overview    analytics.Overview        `json:"overview"`
	Leaderboard []analytics.StudentRollup `json:"leaderboard"`
	Students    []analytics.StudentRollup `json:"students"`
	Timeline    []analytics.TimelinePoint `json:"timeline"`
	Comparison  analytics.Comparison      `json:"comparison"`
}

// GET /analytics/dashboard: portal-wide view over every submission.
func DashboardHandler(st store.Store, cfg DashboardConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := st.ListExams(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		subs, err := st.ListSubmissions(r.Context(), store.SubmissionListOpts{})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dashboardResponse{
			Overview:    analytics.Overall(exams, subs),
			Leaderboard: analytics.TopStudents(subs, cfg.LeaderboardSize),
			Students:    analytics.StudentRollups(subs),
			Timeline:    analytics.Timeline(subs, time.Now(), cfg.TimelineDays),
			Comparison:  analytics.CompareExams(exams, subs, cfg.ComparisonTopK),
		})
	}
}
