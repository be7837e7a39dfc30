package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/examstack/examstack/internal/db"
	"github.com/examstack/examstack/internal/store"
)

func newTestStore(t *testing.T) *store.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return store.NewSQLStore(conn, "sqlite")
}

func seedExam(t *testing.T, st *store.SQLStore) store.ExamWithQuestions {
	t.Helper()
	exam, err := st.CreateExam(context.Background(), store.ExamDraft{
		Title:       "Algebra Midterm",
		DurationMin: 45,
		Questions: []store.QuestionDraft{
			{Text: "2+2?", Type: store.QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4"},
			{Text: "3*3?", Type: store.QuestionMultipleChoice, Options: []string{"6", "9"}, CorrectAnswer: "9"},
			{Text: "Show your working.", Type: store.QuestionText},
		},
	}, "tutor-1")
	if err != nil {
		t.Fatalf("seed exam: %v", err)
	}
	return exam
}

func seedSubmission(t *testing.T, st *store.SQLStore, examID, studentID, attemptID string) store.Submission {
	t.Helper()
	sub, created, err := st.CreateSubmission(context.Background(), store.NewSubmission{
		ExamID:      examID,
		StudentID:   studentID,
		StudentName: "Student " + studentID,
		AttemptID:   attemptID,
		Answers:     map[string]string{"q": "a"},
	})
	if err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	if !created {
		t.Fatalf("seed submission %s/%s already existed", studentID, attemptID)
	}
	return sub
}

func TestCreateAndGetExam(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	exam := seedExam(t, st)
	if exam.ID == "" || exam.CreatedAt == 0 {
		t.Fatalf("exam missing identity: %+v", exam.Exam)
	}
	if len(exam.Questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(exam.Questions))
	}

	got, err := st.GetExamWithQuestions(ctx, exam.ID)
	if err != nil {
		t.Fatalf("GetExamWithQuestions: %v", err)
	}
	if got.Title != "Algebra Midterm" || got.DurationMin != 45 {
		t.Errorf("exam header = %+v", got.Exam)
	}
	for i, q := range got.Questions {
		if q.Order != i {
			t.Errorf("question %d stored out of order: ord=%d", i, q.Order)
		}
	}
	if q := got.Questions[2]; q.Type != store.QuestionText || len(q.Options) != 0 || q.CorrectAnswer != "" {
		t.Errorf("text question carries answer key: %+v", q)
	}
}

func TestGetExamNotFound(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.GetExam(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := st.GetExamWithQuestions(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateExamRejectsBadDraft(t *testing.T) {
	st := newTestStore(t)
	_, err := st.CreateExam(context.Background(), store.ExamDraft{Title: "empty"}, "tutor-1")
	if !store.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestUpdateExamReconcilesQuestions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exam := seedExam(t, st)

	draft := store.ExamDraft{
		Title:       "Algebra Midterm v2",
		DurationMin: 60,
		Questions: []store.QuestionDraft{
			// Keep the first question but fix its text.
			{ID: exam.Questions[0].ID, Text: "What is 2+2?", Type: store.QuestionMultipleChoice,
				Options: []string{"3", "4"}, CorrectAnswer: "4"},
			// Brand new question; the other two originals are dropped.
			{Text: "5-2?", Type: store.QuestionMultipleChoice, Options: []string{"2", "3"}, CorrectAnswer: "3"},
		},
	}
	updated, err := st.UpdateExam(ctx, exam.ID, draft)
	if err != nil {
		t.Fatalf("UpdateExam: %v", err)
	}
	if updated.Title != "Algebra Midterm v2" || updated.DurationMin != 60 {
		t.Errorf("header not updated: %+v", updated.Exam)
	}
	if len(updated.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(updated.Questions))
	}
	if updated.Questions[0].ID != exam.Questions[0].ID {
		t.Error("existing question id not preserved through edit")
	}
	if updated.Questions[0].Text != "What is 2+2?" {
		t.Errorf("question text = %q", updated.Questions[0].Text)
	}
	if updated.Questions[1].ID == exam.Questions[1].ID || updated.Questions[1].ID == exam.Questions[2].ID {
		t.Error("new question reused a dropped question's id")
	}
}

func TestUpdateExamNotFound(t *testing.T) {
	st := newTestStore(t)
	draft := store.ExamDraft{
		Title:       "Ghost",
		DurationMin: 10,
		Questions:   []store.QuestionDraft{{Text: "?", Type: store.QuestionText}},
	}
	if _, err := st.UpdateExam(context.Background(), "nope", draft); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListExamsCountsQuestions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exam := seedExam(t, st)

	exams, err := st.ListExams(ctx)
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(exams) != 1 {
		t.Fatalf("exams = %d, want 1", len(exams))
	}
	if exams[0].ID != exam.ID || exams[0].QuestionCount != 3 {
		t.Errorf("listed exam = %+v, want question_count 3", exams[0])
	}
}

func TestCreateSubmissionIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exam := seedExam(t, st)

	in := store.NewSubmission{
		ExamID:      exam.ID,
		StudentID:   "S-1",
		StudentName: "Ada",
		AttemptID:   "attempt-1",
		Answers:     map[string]string{exam.Questions[0].ID: "4"},
	}
	first, created, err := st.CreateSubmission(ctx, in)
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if !created {
		t.Fatal("first write reported created=false")
	}

	// Same attempt key again, even with different answers: stored row wins.
	in.Answers = map[string]string{exam.Questions[0].ID: "3"}
	second, created, err := st.CreateSubmission(ctx, in)
	if err != nil {
		t.Fatalf("duplicate CreateSubmission: %v", err)
	}
	if created {
		t.Error("duplicate write reported created=true")
	}
	if second.ID != first.ID {
		t.Errorf("duplicate returned a different record: %s vs %s", second.ID, first.ID)
	}
	if second.Answers[exam.Questions[0].ID] != "4" {
		t.Errorf("duplicate overwrote stored answers: %v", second.Answers)
	}

	subs, err := st.ListSubmissions(ctx, store.SubmissionListOpts{ExamID: exam.ID})
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("stored submissions = %d, want 1", len(subs))
	}
}

func TestCreateSubmissionUnknownExam(t *testing.T) {
	st := newTestStore(t)
	_, _, err := st.CreateSubmission(context.Background(), store.NewSubmission{
		ExamID: "nope", StudentID: "S-1", StudentName: "Ada", AttemptID: "a1",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSubmissionsFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exam := seedExam(t, st)
	other := seedExam(t, st)

	seedSubmission(t, st, exam.ID, "S-1", "a1")
	seedSubmission(t, st, exam.ID, "S-2", "a2")
	seedSubmission(t, st, other.ID, "S-1", "a3")

	byExam, err := st.ListSubmissions(ctx, store.SubmissionListOpts{ExamID: exam.ID})
	if err != nil {
		t.Fatalf("ListSubmissions by exam: %v", err)
	}
	if len(byExam) != 2 {
		t.Errorf("by exam = %d, want 2", len(byExam))
	}

	byStudent, err := st.ListSubmissions(ctx, store.SubmissionListOpts{StudentID: "S-1"})
	if err != nil {
		t.Fatalf("ListSubmissions by student: %v", err)
	}
	if len(byStudent) != 2 {
		t.Errorf("by student = %d, want 2", len(byStudent))
	}

	both, err := st.ListSubmissions(ctx, store.SubmissionListOpts{ExamID: exam.ID, StudentID: "S-1"})
	if err != nil {
		t.Fatalf("ListSubmissions by both: %v", err)
	}
	if len(both) != 1 {
		t.Errorf("by both = %d, want 1", len(both))
	}

	limited, err := st.ListSubmissions(ctx, store.SubmissionListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListSubmissions limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}
}

func TestGradeSubmission(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	exam := seedExam(t, st)
	sub := seedSubmission(t, st, exam.ID, "S-1", "a1")

	if sub.Score != nil {
		t.Fatalf("fresh submission already scored: %v", *sub.Score)
	}

	graded, err := st.GradeSubmission(ctx, sub.ID, 85)
	if err != nil {
		t.Fatalf("GradeSubmission: %v", err)
	}
	if graded.Score == nil || *graded.Score != 85 {
		t.Errorf("score = %v, want 85", graded.Score)
	}

	if _, err := st.GradeSubmission(ctx, sub.ID, 101); !store.IsValidation(err) {
		t.Errorf("out-of-range score err = %v, want validation error", err)
	}
	if _, err := st.GradeSubmission(ctx, sub.ID, -1); !store.IsValidation(err) {
		t.Errorf("negative score err = %v, want validation error", err)
	}
	if _, err := st.GradeSubmission(ctx, "nope", 50); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
}

func TestEnsureStudent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.EnsureStudent(ctx, "Ada", "ada@example.com", "S-1")
	if err != nil {
		t.Fatalf("EnsureStudent: %v", err)
	}
	if first.Role != store.RoleStudent || first.StudentID != "S-1" {
		t.Errorf("created student = %+v", first)
	}

	again, err := st.EnsureStudent(ctx, "Ada", "ada@example.com", "S-1")
	if err != nil {
		t.Fatalf("EnsureStudent again: %v", err)
	}
	if again.ID != first.ID {
		t.Error("repeat EnsureStudent created a second user")
	}

	byID, err := st.GetUserByStudentID(ctx, "S-1")
	if err != nil {
		t.Fatalf("GetUserByStudentID: %v", err)
	}
	if byID.ID != first.ID {
		t.Errorf("lookup by student id = %+v, want %s", byID, first.ID)
	}
}

func TestUpsertStudents(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	roster := []store.User{
		{StudentID: "S-1", Name: "Ada", Email: "ada@example.com"},
		{StudentID: "S-2", Name: "Grace"},
	}
	created, updated, err := st.UpsertStudents(ctx, roster)
	if err != nil {
		t.Fatalf("UpsertStudents: %v", err)
	}
	if created != 2 || updated != 0 {
		t.Errorf("first pass = %d created, %d updated; want 2, 0", created, updated)
	}

	roster[0].Name = "Ada L."
	created, updated, err = st.UpsertStudents(ctx, roster)
	if err != nil {
		t.Fatalf("UpsertStudents again: %v", err)
	}
	if created != 0 || updated != 2 {
		t.Errorf("second pass = %d created, %d updated; want 0, 2", created, updated)
	}

	u, err := st.GetUserByStudentID(ctx, "S-1")
	if err != nil {
		t.Fatalf("GetUserByStudentID: %v", err)
	}
	if u.Name != "Ada L." {
		t.Errorf("name after upsert = %q, want Ada L.", u.Name)
	}
}
