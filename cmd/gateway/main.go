package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/crypto/bcrypt"

	api "github.com/examstack/examstack/internal/api/http"
	"github.com/examstack/examstack/internal/auth"
	"github.com/examstack/examstack/internal/config"
	"github.com/examstack/examstack/internal/db"
	"github.com/examstack/examstack/internal/eventlog"
	"github.com/examstack/examstack/internal/rbac"
	"github.com/examstack/examstack/internal/session"
	"github.com/examstack/examstack/internal/store"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	st := store.NewSQLStore(dbh, cfg.DBDriver)
	if err := bootstrapTutor(ctx, st, cfg); err != nil {
		log.Fatalf("bootstrap tutor: %v", err)
	}
	events := eventlog.NewRepo(dbh)
	authSvc := auth.NewService(cfg.AuthSecret, time.Duration(cfg.TokenTTLHour)*time.Hour)
	sessions := session.NewManager(st, eventlog.RecordingWriter{Store: st, Log: events})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", api.LoginHandler(st, authSvc))
	r.Post("/auth/student-login", api.StudentLoginHandler(st, authSvc))

	// Protected API: bearer token, then per-route permission checks.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(authSvc))

		pr.With(rbac.Require("exam:list")).
			Get("/exams", api.ListExamsHandler(st))
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(st, events))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(st))
		pr.With(rbac.Require("exam:edit")).
			Put("/exams/{examID}", api.UpdateExamHandler(st, events))

		// Student exam-taking flow
		pr.With(rbac.Require("session:take")).
			Post("/sessions", api.StartSessionHandler(sessions))
		pr.With(rbac.Require("session:take")).
			Get("/sessions/{attemptID}", api.GetSessionHandler(sessions))
		pr.With(rbac.Require("session:take")).
			Post("/sessions/{attemptID}/navigate", api.NavigateSessionHandler(sessions))
		pr.With(rbac.Require("session:take")).
			Post("/sessions/{attemptID}/answers", api.AnswerSessionHandler(sessions))
		pr.With(rbac.Require("session:take")).
			Post("/sessions/{attemptID}/submit", api.SubmitSessionHandler(sessions))

		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions", api.ListSubmissionsHandler(st))
		pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(st))
		pr.With(rbac.Require("submission:grade")).
			Post("/submissions/{submissionID}/grade", api.GradeSubmissionHandler(st, events))

		pr.With(rbac.Require("analytics:view")).
			Get("/exams/{examID}/report", api.ExamReportHandler(st))
		pr.With(rbac.Require("analytics:view")).
			Get("/analytics/dashboard", api.DashboardHandler(st, api.DashboardConfig{
				TimelineDays:    cfg.TimelineDays,
				ComparisonTopK:  cfg.ComparisonTopK,
				LeaderboardSize: cfg.LeaderboardSize,
			}))

		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(st))
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/students/bulk", api.BulkUpsertStudentsHandler(st))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapTutor creates the initial tutor account from the environment so a
// fresh database has someone who can log in and author exams.
func bootstrapTutor(ctx context.Context, st *store.SQLStore, cfg config.Config) error {
	if cfg.BootstrapTutorEmail == "" || cfg.BootstrapTutorPassword == "" {
		return nil
	}
	_, err := st.GetUserByEmail(ctx, cfg.BootstrapTutorEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapTutorPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u, err := st.CreateUser(ctx, store.User{
		Name:         cfg.BootstrapTutorName,
		Email:        cfg.BootstrapTutorEmail,
		Role:         store.RoleTutor,
		PasswordHash: string(hash),
	})
	if err != nil {
		return err
	}
	log.Printf("bootstrapped tutor %s (%s)", u.Email, u.ID)
	return nil
}
