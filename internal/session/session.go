package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/examstack/examstack/internal/store"
)

const (
	StateInProgress = "in_progress"
	StateSubmitting = "submitting"
	StateCompleted  = "completed"
)

var (
	ErrNoStudent       = errors.New("student identity required")
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrSubmitInFlight  = errors.New("submit already in flight")
	ErrUnknownQuestion = errors.New("question does not belong to this exam")
)

// Writer persists the packaged attempt. Implemented by store.SQLStore.
type Writer interface {
	CreateSubmission(ctx context.Context, in store.NewSubmission) (store.Submission, bool, error)
}

// Student is the identity a session runs under.
type Student struct {
	UserID    string
	Name      string
	Email     string
	StudentID string
}

// Session is one student's run through one exam: an ordered question list, a
// current index, captured answers and a countdown. All methods are safe for
// concurrent use; the countdown tick and a manual submit may race, and the
// attempt key keeps that race harmless.
type Session struct {
	mu sync.Mutex

	attemptID string
	exam      store.ExamWithQuestions
	student   Student
	writer    Writer

	state     string
	index     int
	answers   map[string]string
	remaining int // whole seconds

	result   *store.Submission
	lastErr  error
	stopOnce sync.Once
	stop     chan struct{}
}

// New builds an in-progress session with the countdown at duration*60 seconds.
func New(exam store.ExamWithQuestions, st Student, w Writer) (*Session, error) {
	if st.StudentID == "" {
		return nil, ErrNoStudent
	}
	if len(exam.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	return &Session{
		attemptID: uuid.NewString(),
		exam:      exam,
		student:   st,
		writer:    w,
		state:     StateInProgress,
		answers:   map[string]string{},
		remaining: exam.DurationMin * 60,
		stop:      make(chan struct{}),
	}, nil
}

func (s *Session) AttemptID() string { return s.attemptID }
func (s *Session) ExamID() string    { return s.exam.ID }
func (s *Session) StudentID() string { return s.student.StudentID }

// Exam returns the snapshot the session was opened with.
func (s *Session) Exam() store.ExamWithQuestions { return s.exam }

// Run ticks the countdown once per second until expiry, submission or Close.
func (s *Session) Run(ctx context.Context) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-t.C:
			if done := s.tick(ctx); done {
				return
			}
		}
	}
}

// tick decrements the countdown and fires the auto-submit exactly once when
// it reaches zero. Returns true when the ticker should stop.
func (s *Session) tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.state != StateInProgress || s.remaining == 0 {
		s.mu.Unlock()
		return true
	}
	s.remaining--
	expired := s.remaining == 0
	s.mu.Unlock()

	if expired {
		// Forced submit with whatever answers are captured. A write failure
		// leaves the session in progress so the student can retry manually.
		_, _ = s.Submit(ctx)
		return true
	}
	return false
}

// Remaining reports the countdown in whole seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err reports the last failed submit, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Index reports the current question position.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Next advances the current index by one, clamped to the last question.
func (s *Session) Next() int { return s.Jump(s.Index() + 1) }

// Prev moves the current index back by one, clamped to zero.
func (s *Session) Prev() int { return s.Jump(s.Index() - 1) }

// Jump moves to an arbitrary question. Out-of-range targets clamp to the
// nearest edge; captured answers are untouched.
func (s *Session) Jump(target int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target < 0 {
		target = 0
	}
	if max := len(s.exam.Questions) - 1; target > max {
		target = max
	}
	s.index = target
	return s.index
}

// SetAnswer records the student's current answer for a question, replacing
// any prior value. Empty answers clear the entry, leaving the question
// unanswered.
func (s *Session) SetAnswer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	found := false
	for _, q := range s.exam.Questions {
		if q.ID == questionID {
			found = true
			break
		}
	}
	if !found {
		return ErrUnknownQuestion
	}
	if answer == "" {
		delete(s.answers, questionID)
		return nil
	}
	s.answers[questionID] = answer
	return nil
}

// Answers returns a copy of the captured answers.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Submit packages the captured answers and writes exactly one submission.
// Both the manual path and the countdown expiry route through here; the
// attempt id makes a duplicate trigger a no-op at the store. On a write
// failure the session returns to in-progress so the caller can retry,
// regardless of which path triggered the submit.
func (s *Session) Submit(ctx context.Context) (store.Submission, error) {
	s.mu.Lock()
	switch s.state {
	case StateCompleted:
		result := *s.result
		s.mu.Unlock()
		return result, nil
	case StateSubmitting:
		s.mu.Unlock()
		return store.Submission{}, ErrSubmitInFlight
	}
	s.state = StateSubmitting
	payload := store.NewSubmission{
		ExamID:       s.exam.ID,
		UserID:       s.student.UserID,
		StudentName:  s.student.Name,
		StudentEmail: s.student.Email,
		StudentID:    s.student.StudentID,
		AttemptID:    s.attemptID,
		Answers:      make(map[string]string, len(s.answers)),
	}
	for k, v := range s.answers {
		payload.Answers[k] = v
	}
	s.mu.Unlock()

	sub, _, err := s.writer.CreateSubmission(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateInProgress
		s.lastErr = err
		return store.Submission{}, err
	}
	s.state = StateCompleted
	s.result = &sub
	s.lastErr = nil
	s.stopOnce.Do(func() { close(s.stop) })
	return sub, nil
}

// Close cancels the countdown without submitting.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
