package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateSubmission records one attempt exactly once. The attempt key
// (exam_id, student_id, attempt_id) carries the idempotency: a re-trigger of
// the same attempt (double click, timer racing a manual submit) hits the
// unique index and the stored record is returned with created=false.
func (s *SQLStore) CreateSubmission(ctx context.Context, in NewSubmission) (Submission, bool, error) {
	if err := validateNewSubmission(in); err != nil {
		return Submission{}, false, err
	}
	if _, err := s.GetExam(ctx, in.ExamID); err != nil {
		return Submission{}, false, err
	}

	answers := in.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	ansJSON, err := json.Marshal(answers)
	if err != nil {
		return Submission{}, false, err
	}

	sub := Submission{
		ID:           uuid.NewString(),
		ExamID:       in.ExamID,
		UserID:       in.UserID,
		StudentName:  in.StudentName,
		StudentEmail: in.StudentEmail,
		StudentID:    in.StudentID,
		AttemptID:    in.AttemptID,
		Answers:      answers,
		SubmittedAt:  s.now().Unix(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (id,exam_id,user_id,student_name,student_email,student_id,attempt_id,answers_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (exam_id,student_id,attempt_id) DO NOTHING`,
		sub.ID, sub.ExamID, sub.UserID, sub.StudentName, sub.StudentEmail,
		sub.StudentID, sub.AttemptID, string(ansJSON), sub.SubmittedAt)
	if err != nil {
		return Submission{}, false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		existing, err := s.getSubmissionByAttempt(ctx, in.ExamID, in.StudentID, in.AttemptID)
		if err != nil {
			return Submission{}, false, err
		}
		return existing, false, nil
	}
	return sub, true, nil
}

func validateNewSubmission(in NewSubmission) error {
	var problems []string
	if in.ExamID == "" {
		problems = append(problems, "exam_id is required")
	}
	if in.StudentID == "" {
		problems = append(problems, "student_id is required")
	}
	if in.StudentName == "" {
		problems = append(problems, "student_name is required")
	}
	if in.AttemptID == "" {
		problems = append(problems, "attempt_id is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, selectSubmission+` WHERE id=$1`, id)
	return scanSubmission(row)
}

func (s *SQLStore) getSubmissionByAttempt(ctx context.Context, examID, studentID, attemptID string) (Submission, error) {
	row := s.db.QueryRowContext(ctx,
		selectSubmission+` WHERE exam_id=$1 AND student_id=$2 AND attempt_id=$3`,
		examID, studentID, attemptID)
	return scanSubmission(row)
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts SubmissionListOpts) ([]Submission, error) {
	query := selectSubmission
	args := []interface{}{}
	where := ""
	add := func(cond string, v interface{}) {
		args = append(args, v)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if opts.ExamID != "" {
		add("exam_id=$%d", opts.ExamID)
	}
	if opts.StudentID != "" {
		add("student_id=$%d", opts.StudentID)
	}
	query += where + ` ORDER BY submitted_at DESC, id`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			query += fmt.Sprintf(` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// GradeSubmission annotates a stored submission with a score in [0,100].
func (s *SQLStore) GradeSubmission(ctx context.Context, id string, score int) (Submission, error) {
	if score < 0 || score > 100 {
		return Submission{}, &ValidationError{Problems: []string{"score must be between 0 and 100"}}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE submissions SET score=$1 WHERE id=$2`, score, id)
	if err != nil {
		return Submission{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Submission{}, ErrNotFound
	}
	return s.GetSubmission(ctx, id)
}

const selectSubmission = `
	SELECT id, exam_id, user_id, student_name, student_email, student_id, attempt_id, answers_json, score, submitted_at
	FROM submissions`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var ansJSON string
	var score sql.NullInt64
	err := row.Scan(&sub.ID, &sub.ExamID, &sub.UserID, &sub.StudentName, &sub.StudentEmail,
		&sub.StudentID, &sub.AttemptID, &ansJSON, &score, &sub.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(ansJSON), &sub.Answers); err != nil {
		return Submission{}, &ValidationError{Problems: []string{
			fmt.Sprintf("submission %s: bad answers payload: %v", sub.ID, err)}}
	}
	if score.Valid {
		v := int(score.Int64)
		sub.Score = &v
	}
	return sub, nil
}
