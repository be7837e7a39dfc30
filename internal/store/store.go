package store

import "context"

type SubmissionListOpts struct {
	ExamID    string
	StudentID string
	Limit     int
	Offset    int
}

// Store is the document-store contract the portal runs on. Exams are never
// hard-deleted; questions live and die with their parent exam edit.
type Store interface {
	// Exam catalog.
	CreateExam(ctx context.Context, draft ExamDraft, createdBy string) (ExamWithQuestions, error)
	UpdateExam(ctx context.Context, examID string, draft ExamDraft) (ExamWithQuestions, error)
	ListExams(ctx context.Context) ([]Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	GetExamWithQuestions(ctx context.Context, id string) (ExamWithQuestions, error)

	// Submission store. CreateSubmission is idempotent on
	// (exam_id, student_id, attempt_id): a duplicate trigger returns the
	// already-stored record with created=false.
	CreateSubmission(ctx context.Context, in NewSubmission) (sub Submission, created bool, err error)
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error)
	GradeSubmission(ctx context.Context, id string, score int) (Submission, error)

	// Users.
	CreateUser(ctx context.Context, u User) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByStudentID(ctx context.Context, studentID string) (User, error)
	EnsureStudent(ctx context.Context, name, email, studentID string) (User, error)
	ListUsers(ctx context.Context, role Role) ([]User, error)
}
