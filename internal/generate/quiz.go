package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"wisentia/internal/domain"
	"wisentia/internal/llm"
)

// TextGenerator is the slice of the LLM gateway the generators need.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) llm.Result
}

// Tuning caps one generation round trip. MaxTokens bounds the completion and
// Timeout sets the first attempt's deadline, which the gateway grows on
// retries. Zero values fall back to per-generator defaults.
type Tuning struct {
	MaxTokens int
	Timeout   time.Duration
}

const defaultQuizMaxTokens = 4096

// QuizGenerator turns a video transcript into a structured quiz.
type QuizGenerator struct {
	gw     TextGenerator
	tuning Tuning
	logger zerolog.Logger
}

func NewQuizGenerator(gw TextGenerator, tuning Tuning, logger zerolog.Logger) *QuizGenerator {
	if tuning.MaxTokens <= 0 {
		tuning.MaxTokens = defaultQuizMaxTokens
	}
	return &QuizGenerator{gw: gw, tuning: tuning, logger: logger}
}

const quizSystemPrompt = "You are an educational content designer. You respond only with a single valid JSON object, no markdown, no commentary."

const quizPromptTemplate = `Create a quiz with %d questions from the transcript below.

Requirements:
- Difficulty level %d of 5, written for %s.
- Questions and options in %s.
- Mix multiple_choice (4 options) and true_false questions.
- Every question needs at least one correct option.

Respond with exactly this JSON shape:
{
  "title": "...",
  "description": "...",
  "passingScore": %d,
  "questions": [
    {
      "questionText": "...",
      "questionType": "multiple_choice",
      "options": [
        {"optionText": "...", "isCorrect": true},
        {"optionText": "...", "isCorrect": false}
      ]
    }
  ]
}

Transcript:
%s`

// BuildQuizPrompt renders the user prompt for the given parameters.
func BuildQuizPrompt(params domain.GenerationParams) string {
	audience := params.Audience
	if audience == "" {
		audience = "a general learner audience"
	}
	return fmt.Sprintf(quizPromptTemplate,
		params.NumQuestions,
		params.Difficulty,
		audience,
		languageName(params.Language),
		params.PassingScore,
		params.Transcript,
	)
}

// Generate runs one quiz generation round trip. It never panics; every
// outcome is a structured Result.
func (g *QuizGenerator) Generate(ctx context.Context, params domain.GenerationParams) Result {
	if strings.TrimSpace(params.Transcript) == "" {
		return validationFailure("transcript is empty", "")
	}

	res := g.gw.Generate(ctx, llm.Request{
		System:      quizSystemPrompt,
		Prompt:      BuildQuizPrompt(params),
		MaxTokens:   g.tuning.MaxTokens,
		Timeout:     g.tuning.Timeout,
		Temperature: 0.7,
		JSONMode:    true,
	})
	if !res.Success {
		return failureFromGateway(res)
	}

	span, err := ExtractJSONObject(res.Content)
	if err != nil {
		return validationFailure(err.Error(), res.Content)
	}
	var quiz domain.GeneratedQuiz
	if err := json.Unmarshal([]byte(span), &quiz); err != nil {
		return validationFailure(fmt.Sprintf("parse quiz JSON: %v", err), res.Content)
	}

	if len(quiz.Questions) == 0 {
		return validationFailure("model produced no questions", res.Content)
	}
	// A near miss is accepted; anything shorter than requested-2 is rejected.
	if len(quiz.Questions) < params.NumQuestions-2 {
		return validationFailure(
			fmt.Sprintf("model produced %d of %d requested questions", len(quiz.Questions), params.NumQuestions),
			res.Content,
		)
	}
	for i, q := range quiz.Questions {
		if q.QuestionType == domain.QuestionTypeMultipleChoice && len(q.Options) < 2 {
			return validationFailure(
				fmt.Sprintf("question %d has %d options, need at least 2", i+1, len(q.Options)),
				res.Content,
			)
		}
	}

	backfillQuiz(&quiz, params)
	g.logger.Debug().
		Int("questions", len(quiz.Questions)).
		Str("model", res.Model).
		Msg("generate: quiz parsed")

	return Result{
		Success: true,
		Quiz:    &quiz,
		Model:   res.Model,
		Usage:   res.Usage,
		CostUSD: res.CostUSD,
	}
}

// backfillQuiz supplies derived defaults for optional fields the model left out.
func backfillQuiz(quiz *domain.GeneratedQuiz, params domain.GenerationParams) {
	if strings.TrimSpace(quiz.Title) == "" {
		quiz.Title = fmt.Sprintf("Quiz (difficulty %d)", params.Difficulty)
	}
	if strings.TrimSpace(quiz.Description) == "" {
		quiz.Description = fmt.Sprintf("Auto-generated quiz with %d questions.", len(quiz.Questions))
	}
	if quiz.PassingScore <= 0 || quiz.PassingScore > 100 {
		quiz.PassingScore = params.PassingScore
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].QuestionType == "" {
			quiz.Questions[i].QuestionType = domain.QuestionTypeMultipleChoice
		}
	}
}

// languageName turns a BCP 47 code into the English language name used in
// prompts, falling back to English for anything unparseable.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return "English"
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return "English"
}
