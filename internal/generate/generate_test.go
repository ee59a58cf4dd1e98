package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

func photosynthesisConfig(count int, types ...model.QuestionType) model.QuizConfig {
	if len(types) == 0 {
		types = model.QuestionTypes
	}
	return model.QuizConfig{
		Source:        model.ContentSource{Kind: model.SourceTopic, Topic: "Photosynthesis"},
		QuestionCount: count,
		QuestionTypes: types,
		Difficulty:    model.DifficultyMixed,
	}
}

func TestStaticScenario(t *testing.T) {
	quiz, err := NewStatic().Generate(context.Background(), photosynthesisConfig(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(quiz.Questions))
	}
	if quiz.Title != "Photosynthesis Quiz" {
		t.Errorf("Title = %q", quiz.Title)
	}
	if err := quiz.Validate(); err != nil {
		t.Errorf("generated quiz invalid: %v", err)
	}
}

func TestStaticRespectsTypesAndCount(t *testing.T) {
	quiz, err := NewStatic().Generate(context.Background(), photosynthesisConfig(7, model.TypeTrueFalse))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != 7 {
		t.Fatalf("got %d questions, want 7", len(quiz.Questions))
	}
	ids := map[string]bool{}
	for _, q := range quiz.Questions {
		if q.Type != model.TypeTrueFalse {
			t.Errorf("unexpected type %q", q.Type)
		}
		if ids[q.ID] {
			t.Errorf("duplicate id %q", q.ID)
		}
		ids[q.ID] = true
	}
}

func TestStaticRejectsInvalidConfig(t *testing.T) {
	cfg := photosynthesisConfig(3)
	cfg.Source.Topic = ""
	_, err := NewStatic().Generate(context.Background(), cfg)
	var ge *model.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("Generate = %v, want GenerationError", err)
	}
	if !model.IsValidation(err) {
		t.Error("GenerationError should wrap the validation failure")
	}
}

func TestAssembleDropsBadQuestions(t *testing.T) {
	qs := []model.Question{
		SampleQuestions[0],
		{Type: model.TypeMultipleChoice, Text: "broken", Difficulty: model.DifficultyEasy, Options: []string{"a", "b"}},
		SampleQuestions[1],
	}
	_, err := Assemble(photosynthesisConfig(3), qs)
	if !model.IsRetryable(err) {
		t.Fatalf("Assemble = %v, want retryable error", err)
	}

	quiz, err := Assemble(photosynthesisConfig(2), qs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if quiz.Questions[0].Type != model.TypeMultipleChoice || quiz.Questions[1].Type != model.TypeTrueFalse {
		t.Errorf("unexpected order: %v, %v", quiz.Questions[0].Type, quiz.Questions[1].Type)
	}
}

func TestAssembleFillsDifficulty(t *testing.T) {
	cfg := photosynthesisConfig(1, model.TypeTrueFalse)
	cfg.Difficulty = model.DifficultyHard
	q := SampleQuestions[1]
	q.Difficulty = ""
	quiz, err := Assemble(cfg, []model.Question{q})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if quiz.Questions[0].Difficulty != model.DifficultyHard {
		t.Errorf("Difficulty = %q, want hard", quiz.Questions[0].Difficulty)
	}
}

func TestDefaultTitle(t *testing.T) {
	tests := []struct {
		src  model.ContentSource
		want string
	}{
		{model.ContentSource{Kind: model.SourceTopic, Topic: " World War II "}, "World War II Quiz"},
		{model.ContentSource{Kind: model.SourceText, Text: "some text"}, "Generated Quiz"},
		{model.ContentSource{Kind: model.SourceDocument, Document: &model.Document{Name: "biology.pdf"}}, "biology Quiz"},
	}
	for _, tt := range tests {
		if got := DefaultTitle(tt.src); got != tt.want {
			t.Errorf("DefaultTitle(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	flaky := Func(func(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error) {
		calls++
		if calls < 3 {
			return nil, &model.GenerationError{Err: errors.New("timeout"), Retryable: true}
		}
		return NewStatic().Generate(ctx, cfg)
	})

	quiz, err := Retry(flaky, 3, time.Millisecond).Generate(context.Background(), photosynthesisConfig(3))
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 || len(quiz.Questions) != 3 {
		t.Errorf("calls = %d, questions = %d", calls, len(quiz.Questions))
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	broken := Func(func(context.Context, model.QuizConfig) (*model.Quiz, error) {
		calls++
		return nil, errors.New("bad request")
	})
	_, err := Retry(broken, 5, time.Millisecond).Generate(context.Background(), photosynthesisConfig(3))
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	var ge *model.GenerationError
	if !errors.As(err, &ge) {
		t.Errorf("error %v should be wrapped as GenerationError", err)
	}
}
