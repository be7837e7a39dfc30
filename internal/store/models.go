package store

type Role string

const (
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionText           QuestionType = "text"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	StudentID    string `json:"student_id,omitempty"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

type Exam struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DurationMin int    `json:"duration_min"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`

	// Derived in list views from a single scan over questions.
	QuestionCount int `json:"question_count,omitempty"`
}

type Question struct {
	ID            string       `json:"id"`
	ExamID        string       `json:"exam_id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Order         int          `json:"order"`
}

type ExamWithQuestions struct {
	Exam
	Questions []Question `json:"questions"`
}

// Submission is one student's recorded answers for one exam attempt.
// Score is absent until graded; unanswered questions have no entry in Answers.
type Submission struct {
	ID           string            `json:"id"`
	ExamID       string            `json:"exam_id"`
	UserID       string            `json:"user_id"`
	StudentName  string            `json:"student_name"`
	StudentEmail string            `json:"student_email"`
	StudentID    string            `json:"student_id"`
	AttemptID    string            `json:"attempt_id"`
	Answers      map[string]string `json:"answers"`
	Score        *int              `json:"score,omitempty"`
	SubmittedAt  int64             `json:"submitted_at"`
}

// NewSubmission is the payload packaged by an exam session at submit time.
type NewSubmission struct {
	ExamID       string            `json:"exam_id"`
	UserID       string            `json:"user_id"`
	StudentName  string            `json:"student_name"`
	StudentEmail string            `json:"student_email"`
	StudentID    string            `json:"student_id"`
	AttemptID    string            `json:"attempt_id"`
	Answers      map[string]string `json:"answers"`
}

// EffectiveScore treats an ungraded submission as zero for aggregate
// arithmetic. It is not a claim that ungraded equals zero.
func (s Submission) EffectiveScore() int {
	if s.Score == nil {
		return 0
	}
	return *s.Score
}
