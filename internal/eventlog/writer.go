package eventlog

import (
	"context"
	"log"

	"github.com/examstack/examstack/internal/store"
)

type submissionStore interface {
	CreateSubmission(ctx context.Context, in store.NewSubmission) (store.Submission, bool, error)
}

// RecordingWriter decorates the submission store with audit events. Sessions
// submit through this, so the countdown-expiry path is recorded the same as
// an explicit submit. A failed append never fails the submission.
type RecordingWriter struct {
	Store submissionStore
	Log   *Repo
}

func (w RecordingWriter) CreateSubmission(ctx context.Context, in store.NewSubmission) (store.Submission, bool, error) {
	sub, created, err := w.Store.CreateSubmission(ctx, in)
	if err == nil && created {
		if aerr := w.Log.Append(ctx, TypeSubmissionCreated, sub.ID, sub); aerr != nil {
			log.Printf("eventlog: %v", aerr)
		}
	}
	return sub, created, err
}
