// Package generate defines the quiz generation capability and the pieces
// shared by its implementations.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizgen/internal/model"
)

// Generator turns a configuration into a quiz. Failures are reported as
// *model.GenerationError.
type Generator interface {
	Generate(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error)
}

// Func adapts an ordinary function to the Generator interface.
type Func func(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error) {
	return f(ctx, cfg)
}

// DefaultTitle derives a quiz title from its content source.
func DefaultTitle(src model.ContentSource) string {
	label := src.Label()
	if label == "" {
		return "Generated Quiz"
	}
	if src.Kind == model.SourceDocument {
		if i := strings.LastIndexByte(label, '.'); i > 0 {
			label = label[:i]
		}
	}
	return label + " Quiz"
}

// Assemble checks generated questions against the configuration, gives every
// question a fresh id and wraps them in a quiz. Questions of a type that was
// not requested, or that fail validation, are dropped; a quiz with fewer
// questions than requested is a retryable generation error.
func Assemble(cfg model.QuizConfig, questions []model.Question) (*model.Quiz, error) {
	kept := make([]model.Question, 0, cfg.QuestionCount)
	for i, q := range questions {
		if len(kept) == cfg.QuestionCount {
			break
		}
		if !slices.Contains(cfg.QuestionTypes, q.Type) {
			slog.Warn("dropping question of unrequested type", "index", i, "type", q.Type)
			continue
		}
		if cfg.Difficulty != model.DifficultyMixed && !q.Difficulty.ValidForQuestion() {
			q.Difficulty = cfg.Difficulty
		}
		if err := q.Validate(); err != nil {
			slog.Warn("dropping invalid generated question", "index", i, "error", err)
			continue
		}
		q = q.Clone()
		q.ID = uuid.NewString()
		kept = append(kept, q)
	}
	if len(kept) < cfg.QuestionCount {
		return nil, &model.GenerationError{
			Err:       fmt.Errorf("got %d usable questions, want %d", len(kept), cfg.QuestionCount),
			Retryable: true,
		}
	}
	now := time.Now()
	return &model.Quiz{
		ID:        uuid.NewString(),
		Title:     DefaultTitle(cfg.Source),
		Questions: kept,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Retry wraps g so that retryable failures are attempted again, up to
// attempts times in total, waiting backoff between tries and doubling it.
func Retry(g Generator, attempts int, backoff time.Duration) Generator {
	if attempts < 1 {
		attempts = 1
	}
	return Func(func(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error) {
		var lastErr error
		wait := backoff
		for i := 1; i <= attempts; i++ {
			quiz, err := g.Generate(ctx, cfg)
			if err == nil {
				return quiz, nil
			}
			lastErr = err
			if !model.IsRetryable(err) || i == attempts {
				break
			}
			slog.Warn("generation failed, retrying", "attempt", i, "max_attempts", attempts, "error", err)
			select {
			case <-ctx.Done():
				return nil, &model.GenerationError{Err: ctx.Err()}
			case <-time.After(wait):
			}
			wait *= 2
		}
		var ge *model.GenerationError
		if !errors.As(lastErr, &ge) {
			lastErr = &model.GenerationError{Err: lastErr}
		}
		return nil, lastErr
	})
}
