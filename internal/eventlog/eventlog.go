// Package eventlog appends an audit trail of portal activity to the
// event_log table. Failures here are logged by callers, never fatal.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeExamCreated       = "ExamCreated"
	TypeExamUpdated       = "ExamUpdated"
	TypeSubmissionCreated = "SubmissionCreated"
	TypeSubmissionGraded  = "SubmissionGraded"
)

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Append records one event. Key is the natural key of the subject document
// (exam id, submission id); payload is marshalled to JSON.
func (r *Repo) Append(ctx context.Context, typ, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(data), time.Now().Unix())
	return err
}
