package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wisentia/internal/domain"
	"wisentia/internal/infra"
	"wisentia/internal/sqlinline"
)

// TxRunner is an SQLExecutor that can also open transactions. Satisfied by
// infra.SQLRunner.
type TxRunner interface {
	infra.SQLExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// QuizRepoPG materializes generated quizzes into real rows.
type QuizRepoPG struct {
	sql TxRunner
}

func NewQuizRepo(sql TxRunner) *QuizRepoPG {
	return &QuizRepoPG{sql: sql}
}

// CreateQuiz writes the quiz, its questions and their options in one
// transaction so a partial quiz can never be observed.
func (r *QuizRepoPG) CreateQuiz(ctx context.Context, quiz *domain.GeneratedQuiz, videoID, courseID *int64) (*domain.MaterializedQuiz, error) {
	insertQuiz, err := infra.StripMarker(sqlinline.QInsertQuiz)
	if err != nil {
		return nil, err
	}
	insertQuestion, err := infra.StripMarker(sqlinline.QInsertQuizQuestion)
	if err != nil {
		return nil, err
	}
	insertOption, err := infra.StripMarker(sqlinline.QInsertQuizOption)
	if err != nil {
		return nil, err
	}

	tx, err := r.sql.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var quizID int64
	if err := tx.QueryRow(ctx, insertQuiz, videoID, courseID, quiz.Title, quiz.Description, quiz.PassingScore).Scan(&quizID); err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}

	optionCount := 0
	for qi, question := range quiz.Questions {
		var questionID int64
		if err := tx.QueryRow(ctx, insertQuestion, quizID, question.QuestionText, string(question.QuestionType), qi).Scan(&questionID); err != nil {
			return nil, fmt.Errorf("insert question %d: %w", qi+1, err)
		}
		for oi, option := range question.Options {
			if _, err := tx.Exec(ctx, insertOption, questionID, option.OptionText, option.IsCorrect, oi); err != nil {
				return nil, fmt.Errorf("insert option %d of question %d: %w", oi+1, qi+1, err)
			}
			optionCount++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.MaterializedQuiz{
		QuizID:        quizID,
		QuestionCount: len(quiz.Questions),
		OptionCount:   optionCount,
	}, nil
}

var _ domain.QuizMaterializer = (*QuizRepoPG)(nil)
