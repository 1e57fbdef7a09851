package domain

// QuestionType enumerates supported quiz question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

// GeneratedQuiz is the structured quiz payload produced by the LLM.
type GeneratedQuiz struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	PassingScore int                 `json:"passingScore"`
	Questions    []GeneratedQuestion `json:"questions"`
}

// GeneratedQuestion is one question within a generated quiz.
type GeneratedQuestion struct {
	QuestionText string            `json:"questionText"`
	QuestionType QuestionType      `json:"questionType"`
	Options      []GeneratedOption `json:"options"`
}

// GeneratedOption is one answer option. Correctness counts are not
// validated; a question may mark several options correct.
type GeneratedOption struct {
	OptionText string `json:"optionText"`
	IsCorrect  bool   `json:"isCorrect"`
}

// MaterializedQuiz records the domain rows created from an approved quiz.
type MaterializedQuiz struct {
	QuizID        int64 `json:"quizId"`
	QuestionCount int   `json:"questionCount"`
	OptionCount   int   `json:"optionCount"`
}
