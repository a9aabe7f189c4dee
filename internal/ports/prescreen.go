package ports

import "context"

// PrescreenGenerator produces a prescreening questionnaire from a free-form
// prompt describing the survey's qualification questions and answers.
type PrescreenGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}
