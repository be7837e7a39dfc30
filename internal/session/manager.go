package session

import (
	"context"
	"sync"

	"github.com/examstack/examstack/internal/store"
)

// ExamSource loads the exam a session runs against.
type ExamSource interface {
	GetExamWithQuestions(ctx context.Context, id string) (store.ExamWithQuestions, error)
}

// Manager owns the live sessions. One session per (exam, student): starting
// an exam the student is already taking resumes the existing session instead
// of resetting the countdown.
type Manager struct {
	mu       sync.Mutex
	byID     map[string]*Session // attempt id -> session
	byExam   map[string]string   // examID|studentID -> attempt id
	exams    ExamSource
	writer   Writer
}

func NewManager(exams ExamSource, w Writer) *Manager {
	return &Manager{
		byID:   map[string]*Session{},
		byExam: map[string]string{},
		exams:  exams,
		writer: w,
	}
}

// Start loads the exam and opens (or resumes) a session for the student.
// The countdown goroutine is started on first open.
func (m *Manager) Start(ctx context.Context, examID string, st Student) (*Session, error) {
	if st.StudentID == "" {
		return nil, ErrNoStudent
	}

	m.mu.Lock()
	if id, ok := m.byExam[examID+"|"+st.StudentID]; ok {
		if s := m.byID[id]; s != nil && s.State() != StateCompleted {
			m.mu.Unlock()
			return s, nil
		}
	}
	m.mu.Unlock()

	exam, err := m.exams.GetExamWithQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	s, err := New(exam, st, m.writer)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	// Re-check under the lock; a concurrent Start for the same student wins.
	key := examID + "|" + st.StudentID
	if id, ok := m.byExam[key]; ok {
		if prior := m.byID[id]; prior != nil && prior.State() != StateCompleted {
			m.mu.Unlock()
			s.Close()
			return prior, nil
		}
	}
	m.byID[s.AttemptID()] = s
	m.byExam[key] = s.AttemptID()
	m.mu.Unlock()

	go s.Run(context.WithoutCancel(ctx))
	return s, nil
}

// Get resolves a live session by attempt id.
func (m *Manager) Get(attemptID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[attemptID]
	return s, ok
}

// Release drops a finished session. Live sessions are closed first.
func (m *Manager) Release(attemptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[attemptID]
	if !ok {
		return
	}
	s.Close()
	delete(m.byID, attemptID)
	delete(m.byExam, s.ExamID()+"|"+s.StudentID())
}
