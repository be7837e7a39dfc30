package store

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExamDraft is the decoded form payload for creating or editing an exam.
type ExamDraft struct {
	Title       string          `json:"title" validate:"required"`
	DurationMin int             `json:"duration_min" validate:"required,gt=0"`
	Questions   []QuestionDraft `json:"questions" validate:"required,min=1,dive"`
}

type QuestionDraft struct {
	// Set when editing an existing question, empty for new ones.
	ID            string       `json:"id,omitempty"`
	Text          string       `json:"text" validate:"required"`
	Type          QuestionType `json:"type" validate:"required,oneof=multiple-choice text"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
}

// ValidateExamDraft applies struct tags plus the cross-field rules the tags
// cannot express: multiple-choice questions need at least two non-blank
// options and a correct answer drawn from them; text questions carry neither.
func ValidateExamDraft(d ExamDraft) error {
	var problems []string

	if err := validate.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, fieldProblem(fe))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	for i, q := range d.Questions {
		switch q.Type {
		case QuestionMultipleChoice:
			if len(q.Options) < 2 {
				problems = append(problems, fmt.Sprintf("question %d: at least two options required", i+1))
				continue
			}
			blank := false
			for _, opt := range q.Options {
				if strings.TrimSpace(opt) == "" {
					blank = true
					break
				}
			}
			if blank {
				problems = append(problems, fmt.Sprintf("question %d: options must not be blank", i+1))
			}
			if q.CorrectAnswer == "" {
				problems = append(problems, fmt.Sprintf("question %d: correct answer required", i+1))
			} else if !contains(q.Options, q.CorrectAnswer) {
				problems = append(problems, fmt.Sprintf("question %d: correct answer must be one of the options", i+1))
			}
		case QuestionText:
			if len(q.Options) > 0 || q.CorrectAnswer != "" {
				problems = append(problems, fmt.Sprintf("question %d: text questions take no options or correct answer", i+1))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func fieldProblem(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", strings.ToLower(fe.Field()), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", strings.ToLower(fe.Field()), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
