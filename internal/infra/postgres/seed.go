package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"live-quiz-service/internal/domain"
)

// SeedQuestionnaire inserts a questionnaire with its questions and answers,
// replacing existing rows with the same ids. Used by the seed command and
// by tests; production catalogs are authored elsewhere.
func SeedQuestionnaire(ctx context.Context, db *bun.DB, q domain.Questionnaire) error {
	if _, err := db.ExecContext(ctx,
		`INSERT INTO questionnaires (id, title) VALUES (?, ?)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title`,
		q.ID, q.Title); err != nil {
		return fmt.Errorf("seed questionnaire: %w", err)
	}

	for qi, question := range q.Questions {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO questions (id, questionnaire_id, text, answer_time, position) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, answer_time=EXCLUDED.answer_time, position=EXCLUDED.position`,
			question.ID, q.ID, question.Text, question.Countdown(), qi); err != nil {
			return fmt.Errorf("seed question %s: %w", question.ID, err)
		}
		for ai, answer := range question.Answers {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO answers (id, question_id, text, correct, position) VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (id) DO UPDATE SET text=EXCLUDED.text, correct=EXCLUDED.correct, position=EXCLUDED.position`,
				answer.ID, question.ID, answer.Text, answer.Correct, ai); err != nil {
				return fmt.Errorf("seed answer %s: %w", answer.ID, err)
			}
		}
	}
	return nil
}

// DemoQuestionnaire is the fixture installed by the seed command.
func DemoQuestionnaire() domain.Questionnaire {
	return domain.Questionnaire{
		ID:    "demo",
		Title: "General knowledge",
		Questions: []domain.Question{
			{
				ID:         "demo-q1",
				Text:       "What is the capital of France?",
				AnswerTime: 10,
				Answers: []domain.Answer{
					{ID: "demo-q1-a1", Text: "Lyon"},
					{ID: "demo-q1-a2", Text: "Paris", Correct: true},
					{ID: "demo-q1-a3", Text: "Marseille"},
				},
			},
			{
				ID:         "demo-q2",
				Text:       "What is 2 + 2?",
				AnswerTime: 10,
				Answers: []domain.Answer{
					{ID: "demo-q2-a1", Text: "3"},
					{ID: "demo-q2-a2", Text: "4", Correct: true},
					{ID: "demo-q2-a3", Text: "5"},
				},
			},
		},
	}
}
