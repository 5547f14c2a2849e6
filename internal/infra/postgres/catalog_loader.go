package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"live-quiz-service/internal/domain"
)

// CatalogLoader loads questionnaires, questions and answers from Postgres.
// The catalog is authored by CRUD tooling outside this service; here it is
// strictly read-only.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) LoadQuestionnaire(ctx context.Context, id string) (domain.Questionnaire, error) {
	q := domain.Questionnaire{ID: id}

	err := l.pool.QueryRow(ctx,
		`SELECT title FROM questionnaires WHERE id=$1`, id).Scan(&q.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Questionnaire{}, domain.ErrQuestionnaireNotFound
	}
	if err != nil {
		return domain.Questionnaire{}, fmt.Errorf("load questionnaire: %w", err)
	}

	questions, err := l.loadQuestions(ctx, id)
	if err != nil {
		return domain.Questionnaire{}, err
	}
	q.Questions = questions
	return q, nil
}

func (l *CatalogLoader) loadQuestions(ctx context.Context, questionnaireID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, text, answer_time FROM questions
		 WHERE questionnaire_id=$1 ORDER BY position, id`, questionnaireID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var question domain.Question
		if err := rows.Scan(&question.ID, &question.Text, &question.AnswerTime); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	for i := range questions {
		answers, err := l.loadAnswers(ctx, questions[i].ID)
		if err != nil {
			return nil, err
		}
		questions[i].Answers = answers
	}
	return questions, nil
}

func (l *CatalogLoader) loadAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, text, correct FROM answers
		 WHERE question_id=$1 ORDER BY position, id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.Text, &a.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return answers, nil
}
