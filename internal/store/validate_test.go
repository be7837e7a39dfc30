package store

import (
	"errors"
	"strings"
	"testing"
)

func validDraft() ExamDraft {
	return ExamDraft{
		Title:       "Midterm",
		DurationMin: 45,
		Questions: []QuestionDraft{
			{Text: "2+2?", Type: QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4"},
			{Text: "Explain your reasoning.", Type: QuestionText},
		},
	}
}

func TestValidateExamDraftAccepts(t *testing.T) {
	if err := ValidateExamDraft(validDraft()); err != nil {
		t.Fatalf("valid draft rejected: %v", err)
	}
}

func TestValidateExamDraftRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ExamDraft)
		want   string
	}{
		{
			name:   "missing title",
			mutate: func(d *ExamDraft) { d.Title = "" },
			want:   "title is required",
		},
		{
			name:   "zero duration",
			mutate: func(d *ExamDraft) { d.DurationMin = 0 },
			want:   "durationmin",
		},
		{
			name:   "no questions",
			mutate: func(d *ExamDraft) { d.Questions = nil },
			want:   "questions",
		},
		{
			name:   "unknown question type",
			mutate: func(d *ExamDraft) { d.Questions[0].Type = "essay" },
			want:   "must be one of",
		},
		{
			name:   "single option",
			mutate: func(d *ExamDraft) { d.Questions[0].Options = []string{"4"} },
			want:   "at least two options",
		},
		{
			name:   "blank option",
			mutate: func(d *ExamDraft) { d.Questions[0].Options = []string{"4", "  "} },
			want:   "options must not be blank",
		},
		{
			name:   "missing correct answer",
			mutate: func(d *ExamDraft) { d.Questions[0].CorrectAnswer = "" },
			want:   "correct answer required",
		},
		{
			name:   "correct answer not an option",
			mutate: func(d *ExamDraft) { d.Questions[0].CorrectAnswer = "5" },
			want:   "must be one of the options",
		},
		{
			name:   "text question with options",
			mutate: func(d *ExamDraft) { d.Questions[1].Options = []string{"a", "b"} },
			want:   "take no options",
		},
		{
			name:   "text question with correct answer",
			mutate: func(d *ExamDraft) { d.Questions[1].CorrectAnswer = "a" },
			want:   "take no options",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := ValidateExamDraft(d)
			if err == nil {
				t.Fatal("draft accepted, want rejection")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if !strings.Contains(strings.ToLower(verr.Error()), tc.want) {
				t.Errorf("problems %v do not mention %q", verr.Problems, tc.want)
			}
		})
	}
}

func TestValidateExamDraftCollectsAllProblems(t *testing.T) {
	d := validDraft()
	d.Title = ""
	d.Questions[0].CorrectAnswer = "5"
	err := ValidateExamDraft(d)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %T, want *ValidationError", err)
	}
	if len(verr.Problems) < 2 {
		t.Errorf("problems = %v, want both the title and the answer reported", verr.Problems)
	}
}
