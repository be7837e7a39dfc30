package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) CreateExam(ctx context.Context, draft ExamDraft, createdBy string) (ExamWithQuestions, error) {
	if err := ValidateExamDraft(draft); err != nil {
		return ExamWithQuestions{}, err
	}
	if createdBy == "" {
		return ExamWithQuestions{}, &ValidationError{Problems: []string{"created_by is required"}}
	}

	exam := Exam{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		DurationMin: draft.DurationMin,
		CreatedBy:   createdBy,
		CreatedAt:   s.now().Unix(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExamWithQuestions{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO exams (id,title,duration_min,created_by,created_at) VALUES ($1,$2,$3,$4,$5)`,
		exam.ID, exam.Title, exam.DurationMin, exam.CreatedBy, exam.CreatedAt)
	if err != nil {
		return ExamWithQuestions{}, err
	}

	questions := make([]Question, 0, len(draft.Questions))
	for i, qd := range draft.Questions {
		q, err := insertQuestion(ctx, tx, exam.ID, qd, i)
		if err != nil {
			return ExamWithQuestions{}, err
		}
		questions = append(questions, q)
	}

	if err := tx.Commit(); err != nil {
		return ExamWithQuestions{}, err
	}
	exam.QuestionCount = len(questions)
	return ExamWithQuestions{Exam: exam, Questions: questions}, nil
}

// UpdateExam rewrites the exam header and reconciles its question batch:
// drafts carrying a known id are updated in place, drafts without one are
// created, and stored questions missing from the draft are deleted.
func (s *SQLStore) UpdateExam(ctx context.Context, examID string, draft ExamDraft) (ExamWithQuestions, error) {
	if err := ValidateExamDraft(draft); err != nil {
		return ExamWithQuestions{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ExamWithQuestions{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE exams SET title=$1, duration_min=$2 WHERE id=$3`,
		draft.Title, draft.DurationMin, examID)
	if err != nil {
		return ExamWithQuestions{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ExamWithQuestions{}, ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM questions WHERE exam_id=$1`, examID)
	if err != nil {
		return ExamWithQuestions{}, err
	}
	existing := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return ExamWithQuestions{}, err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return ExamWithQuestions{}, err
	}

	kept := map[string]bool{}
	for i, qd := range draft.Questions {
		if qd.ID != "" && existing[qd.ID] {
			optJSON, err := json.Marshal(optionsOrEmpty(qd.Options))
			if err != nil {
				return ExamWithQuestions{}, err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE questions SET text=$1, qtype=$2, options_json=$3, correct_answer=$4, ord=$5 WHERE id=$6`,
				qd.Text, string(qd.Type), string(optJSON), qd.CorrectAnswer, i, qd.ID)
			if err != nil {
				return ExamWithQuestions{}, err
			}
			kept[qd.ID] = true
			continue
		}
		if _, err := insertQuestion(ctx, tx, examID, qd, i); err != nil {
			return ExamWithQuestions{}, err
		}
	}

	for id := range existing {
		if !kept[id] {
			if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id); err != nil {
				return ExamWithQuestions{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ExamWithQuestions{}, err
	}
	return s.GetExamWithQuestions(ctx, examID)
}

func insertQuestion(ctx context.Context, tx *sql.Tx, examID string, qd QuestionDraft, ord int) (Question, error) {
	q := Question{
		ID:            uuid.NewString(),
		ExamID:        examID,
		Text:          qd.Text,
		Type:          qd.Type,
		Options:       optionsOrEmpty(qd.Options),
		CorrectAnswer: qd.CorrectAnswer,
		Order:         ord,
	}
	optJSON, err := json.Marshal(q.Options)
	if err != nil {
		return Question{}, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO questions (id,exam_id,text,qtype,options_json,correct_answer,ord) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		q.ID, q.ExamID, q.Text, string(q.Type), string(optJSON), q.CorrectAnswer, q.Order)
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

// ListExams returns all exams newest-first, with the per-exam question count
// derived in the same scan rather than denormalized onto the exam row.
func (s *SQLStore) ListExams(ctx context.Context) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.title, e.duration_min, e.created_by, e.created_at, COUNT(q.id)
		FROM exams e LEFT JOIN questions q ON q.exam_id = e.id
		GROUP BY e.id, e.title, e.duration_min, e.created_by, e.created_at
		ORDER BY e.created_at DESC, e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationMin, &e.CreatedBy, &e.CreatedAt, &e.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, duration_min, created_by, created_at FROM exams WHERE id=$1`, id)
	var e Exam
	if err := row.Scan(&e.ID, &e.Title, &e.DurationMin, &e.CreatedBy, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) GetExamWithQuestions(ctx context.Context, id string) (ExamWithQuestions, error) {
	exam, err := s.GetExam(ctx, id)
	if err != nil {
		return ExamWithQuestions{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, text, qtype, options_json, correct_answer, ord
		 FROM questions WHERE exam_id=$1 ORDER BY ord ASC`, id)
	if err != nil {
		return ExamWithQuestions{}, err
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return ExamWithQuestions{}, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return ExamWithQuestions{}, err
	}
	exam.QuestionCount = len(questions)
	return ExamWithQuestions{Exam: exam, Questions: questions}, nil
}

func scanQuestion(rows *sql.Rows) (Question, error) {
	var q Question
	var qtype, optJSON string
	if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &qtype, &optJSON, &q.CorrectAnswer, &q.Order); err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(qtype)
	if q.Type != QuestionMultipleChoice && q.Type != QuestionText {
		return Question{}, &ValidationError{Problems: []string{
			fmt.Sprintf("question %s: unknown type %q", q.ID, qtype)}}
	}
	if err := json.Unmarshal([]byte(optJSON), &q.Options); err != nil {
		return Question{}, &ValidationError{Problems: []string{
			fmt.Sprintf("question %s: bad options payload: %v", q.ID, err)}}
	}
	if q.Type == QuestionText {
		q.Options = nil
		q.CorrectAnswer = ""
	}
	return q, nil
}

func optionsOrEmpty(opts []string) []string {
	if opts == nil {
		return []string{}
	}
	return opts
}
