package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

// ExportAllQuizzes builds export-ready records for every saved quiz.
func (s *Store) ExportAllQuizzes(ctx context.Context) ([]model.QuizExport, error) {
	summaries, err := s.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	now := time.Now()
	results := make([]model.QuizExport, 0, len(summaries))
	for _, sum := range summaries {
		q, err := s.GetQuiz(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("get quiz %s: %w", sum.ID, err)
		}
		results = append(results, model.NewQuizExport(q, now))
	}
	return results, nil
}
