package approval

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wisentia/internal/domain"
)

// sanitizeQuiz repairs malformed questions and options in place of failing
// the whole job, substituting placeholder content so downstream counts stay
// consistent. True/false questions always come out with exactly two options.
func sanitizeQuiz(quiz *domain.GeneratedQuiz, logger zerolog.Logger) *domain.GeneratedQuiz {
	out := *quiz
	out.Questions = make([]domain.GeneratedQuestion, 0, len(quiz.Questions))

	for i, q := range quiz.Questions {
		if strings.TrimSpace(q.QuestionText) == "" {
			logger.Warn().Int("question", i+1).Msg("approval: question text missing, substituting placeholder")
			q.QuestionText = fmt.Sprintf("Question %d (content unavailable)", i+1)
		}

		switch q.QuestionType {
		case domain.QuestionTypeTrueFalse:
			q.Options = trueFalseOptions(q.Options)
		case domain.QuestionTypeMultipleChoice, "":
			q.QuestionType = domain.QuestionTypeMultipleChoice
			q.Options = repairedChoiceOptions(q.Options, i+1, logger)
		default:
			logger.Warn().Int("question", i+1).Str("type", string(q.QuestionType)).
				Msg("approval: unknown question type, treating as multiple choice")
			q.QuestionType = domain.QuestionTypeMultipleChoice
			q.Options = repairedChoiceOptions(q.Options, i+1, logger)
		}

		out.Questions = append(out.Questions, q)
	}
	return &out
}

// trueFalseOptions reduces whatever the model produced to the canonical
// True/False pair, preserving which answer was marked correct.
func trueFalseOptions(opts []domain.GeneratedOption) []domain.GeneratedOption {
	trueCorrect := true
	for _, o := range opts {
		if o.IsCorrect {
			trueCorrect = strings.EqualFold(strings.TrimSpace(o.OptionText), "true")
			break
		}
	}
	return []domain.GeneratedOption{
		{OptionText: "True", IsCorrect: trueCorrect},
		{OptionText: "False", IsCorrect: !trueCorrect},
	}
}

// repairedChoiceOptions backfills empty texts and guarantees at least two
// options with at least one marked correct.
func repairedChoiceOptions(opts []domain.GeneratedOption, questionNo int, logger zerolog.Logger) []domain.GeneratedOption {
	out := make([]domain.GeneratedOption, 0, len(opts))
	for j, o := range opts {
		if strings.TrimSpace(o.OptionText) == "" {
			o.OptionText = fmt.Sprintf("Option %d", j+1)
		}
		out = append(out, o)
	}
	if len(out) < 2 {
		logger.Warn().Int("question", questionNo).Int("options", len(out)).
			Msg("approval: too few options, substituting placeholders")
		for len(out) < 2 {
			out = append(out, domain.GeneratedOption{
				OptionText: fmt.Sprintf("Option %d", len(out)+1),
				IsCorrect:  len(out) == 0,
			})
		}
	}
	hasCorrect := false
	for _, o := range out {
		if o.IsCorrect {
			hasCorrect = true
			break
		}
	}
	if !hasCorrect {
		out[0].IsCorrect = true
	}
	return out
}
