package approval

import (
	"testing"

	"github.com/rs/zerolog"

	"wisentia/internal/domain"
)

func TestSanitizeQuizSubstitutesMissingQuestionText(t *testing.T) {
	quiz := &domain.GeneratedQuiz{
		Title: "Go Basics",
		Questions: []domain.GeneratedQuestion{
			{QuestionText: "  ", QuestionType: domain.QuestionTypeMultipleChoice, Options: []domain.GeneratedOption{
				{OptionText: "A", IsCorrect: true},
				{OptionText: "B"},
			}},
		},
	}

	got := sanitizeQuiz(quiz, zerolog.Nop())
	if got.Questions[0].QuestionText != "Question 1 (content unavailable)" {
		t.Fatalf("question text = %q", got.Questions[0].QuestionText)
	}
	// Input must not be mutated.
	if quiz.Questions[0].QuestionText != "  " {
		t.Fatalf("input mutated: %q", quiz.Questions[0].QuestionText)
	}
}

func TestSanitizeQuizCanonicalizesTrueFalse(t *testing.T) {
	quiz := &domain.GeneratedQuiz{
		Questions: []domain.GeneratedQuestion{
			{QuestionText: "Go has generics.", QuestionType: domain.QuestionTypeTrueFalse, Options: []domain.GeneratedOption{
				{OptionText: "Yes, that is correct", IsCorrect: false},
				{OptionText: " FALSE ", IsCorrect: true},
				{OptionText: "Maybe"},
			}},
		},
	}

	got := sanitizeQuiz(quiz, zerolog.Nop())
	opts := got.Questions[0].Options
	if len(opts) != 2 {
		t.Fatalf("options = %d, want 2", len(opts))
	}
	if opts[0].OptionText != "True" || opts[1].OptionText != "False" {
		t.Fatalf("option texts = %q, %q", opts[0].OptionText, opts[1].OptionText)
	}
	if opts[0].IsCorrect || !opts[1].IsCorrect {
		t.Fatalf("correctness not preserved: %+v", opts)
	}
}

func TestSanitizeQuizTrueFalseWithoutCorrectDefaultsToTrue(t *testing.T) {
	quiz := &domain.GeneratedQuiz{
		Questions: []domain.GeneratedQuestion{
			{QuestionText: "Q", QuestionType: domain.QuestionTypeTrueFalse},
		},
	}

	opts := sanitizeQuiz(quiz, zerolog.Nop()).Questions[0].Options
	if !opts[0].IsCorrect || opts[1].IsCorrect {
		t.Fatalf("want True marked correct: %+v", opts)
	}
}

func TestSanitizeQuizBackfillsChoiceOptions(t *testing.T) {
	quiz := &domain.GeneratedQuiz{
		Questions: []domain.GeneratedQuestion{
			{QuestionText: "Pick one", Options: []domain.GeneratedOption{
				{OptionText: "   "},
			}},
		},
	}

	q := sanitizeQuiz(quiz, zerolog.Nop()).Questions[0]
	if q.QuestionType != domain.QuestionTypeMultipleChoice {
		t.Fatalf("type = %q", q.QuestionType)
	}
	if len(q.Options) != 2 {
		t.Fatalf("options = %d, want 2", len(q.Options))
	}
	if q.Options[0].OptionText != "Option 1" || q.Options[1].OptionText != "Option 2" {
		t.Fatalf("option texts = %+v", q.Options)
	}
	if !q.Options[0].IsCorrect {
		t.Fatalf("first option should be marked correct: %+v", q.Options)
	}
}

func TestSanitizeQuizUnknownTypeBecomesMultipleChoice(t *testing.T) {
	quiz := &domain.GeneratedQuiz{
		Questions: []domain.GeneratedQuestion{
			{QuestionText: "Explain interfaces", QuestionType: "short_answer", Options: []domain.GeneratedOption{
				{OptionText: "An interface is a method set", IsCorrect: false},
				{OptionText: "A struct", IsCorrect: false},
			}},
		},
	}

	q := sanitizeQuiz(quiz, zerolog.Nop()).Questions[0]
	if q.QuestionType != domain.QuestionTypeMultipleChoice {
		t.Fatalf("type = %q", q.QuestionType)
	}
	if !q.Options[0].IsCorrect {
		t.Fatalf("no correct option after repair: %+v", q.Options)
	}
}
