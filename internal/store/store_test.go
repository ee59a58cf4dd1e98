package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testQuiz(id, title string) *model.Quiz {
	return &model.Quiz{
		ID:    id,
		Title: title,
		Config: model.QuizConfig{
			Source:        model.ContentSource{Kind: model.SourceTopic, Topic: "Photosynthesis"},
			QuestionCount: 3,
			QuestionTypes: model.QuestionTypes,
			Difficulty:    model.DifficultyMixed,
		},
		Questions: []model.Question{
			{
				ID:            "q1",
				Type:          model.TypeMultipleChoice,
				Text:          "What is the primary function of photosynthesis?",
				Difficulty:    model.DifficultyMedium,
				Options:       []string{"Absorb water", "Convert sunlight", "Release oxygen", "Grow taller"},
				CorrectOption: 1,
				Explanation:   "Light becomes chemical energy.",
			},
			{
				ID:          "q2",
				Type:        model.TypeTrueFalse,
				Text:        "Chlorophyll is green.",
				Difficulty:  model.DifficultyEasy,
				CorrectBool: true,
			},
			{
				ID:          "q3",
				Type:        model.TypeFillInBlank,
				Text:        "Photosynthesis produces _____ and oxygen.",
				Difficulty:  model.DifficultyHard,
				CorrectText: "glucose",
			},
		},
	}
}

func TestQuizCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.QuizCount(ctx)
	if err != nil {
		t.Fatalf("QuizCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 quizzes, got %d", count)
	}

	q := testQuiz("quiz-1", "Photosynthesis Quiz")
	if err := s.SaveQuiz(ctx, q); err != nil {
		t.Fatalf("SaveQuiz: %v", err)
	}
	if q.CreatedAt.IsZero() || q.UpdatedAt.IsZero() {
		t.Error("SaveQuiz should stamp timestamps")
	}

	got, err := s.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if got.Title != "Photosynthesis Quiz" {
		t.Errorf("expected title 'Photosynthesis Quiz', got %q", got.Title)
	}
	if len(got.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got.Questions))
	}
	for i, id := range []string{"q1", "q2", "q3"} {
		if got.Questions[i].ID != id {
			t.Errorf("question %d id = %q, want %q", i, got.Questions[i].ID, id)
		}
	}
	mcq := got.Questions[0]
	if len(mcq.Options) != 4 || mcq.Options[1] != "Convert sunlight" || mcq.CorrectOption != 1 {
		t.Errorf("multiple choice not round-tripped: %+v", mcq)
	}
	if !got.Questions[1].CorrectBool {
		t.Error("true/false answer not round-tripped")
	}
	if got.Questions[2].CorrectText != "glucose" {
		t.Errorf("fill answer = %q", got.Questions[2].CorrectText)
	}
	if got.Config.Source.Topic != "Photosynthesis" || got.Config.QuestionCount != 3 {
		t.Errorf("config not round-tripped: %+v", got.Config)
	}

	// Not found.
	_, err = s.GetQuiz(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveQuizReplacesQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q := testQuiz("quiz-1", "First")
	if err := s.SaveQuiz(ctx, q); err != nil {
		t.Fatalf("SaveQuiz: %v", err)
	}
	created := q.CreatedAt

	q.Title = "Second"
	q.Questions = q.Questions[1:]
	q.Questions[0].Text = "Edited statement."
	if err := s.SaveQuiz(ctx, q); err != nil {
		t.Fatalf("second SaveQuiz: %v", err)
	}

	got, err := s.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if got.Title != "Second" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Questions) != 2 || got.Questions[0].Text != "Edited statement." {
		t.Errorf("questions not replaced: %+v", got.Questions)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at changed: %v -> %v", created, got.CreatedAt)
	}
}

func TestSaveQuizValidates(t *testing.T) {
	s := newTestStore(t)
	q := testQuiz("quiz-1", "")
	err := s.SaveQuiz(context.Background(), q)
	var se *model.SaveError
	if !errors.As(err, &se) {
		t.Fatalf("expected SaveError, got %v", err)
	}
	if !model.IsValidation(err) {
		t.Error("SaveError should wrap the validation failure")
	}
}

func TestListAndDeleteQuizzes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testQuiz("a", "Alpha")
	if err := s.SaveQuiz(ctx, a); err != nil {
		t.Fatalf("SaveQuiz: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	b := testQuiz("b", "Beta")
	b.Questions = b.Questions[:1]
	if err := s.SaveQuiz(ctx, b); err != nil {
		t.Fatalf("SaveQuiz: %v", err)
	}

	list, err := s.ListQuizzes(ctx)
	if err != nil {
		t.Fatalf("ListQuizzes: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(list))
	}
	if list[0].ID != "b" || list[0].QuestionCount != 1 {
		t.Errorf("first summary = %+v, want most recent quiz b with 1 question", list[0])
	}
	if list[1].QuestionCount != 3 {
		t.Errorf("second summary = %+v", list[1])
	}

	if err := s.DeleteQuiz(ctx, "a"); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}
	if err := s.DeleteQuiz(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteQuiz = %v, want ErrNotFound", err)
	}
	qs, err := s.getQuestions(ctx, "a")
	if err != nil {
		t.Fatalf("getQuestions: %v", err)
	}
	if len(qs) != 0 {
		t.Errorf("questions of deleted quiz remain: %d", len(qs))
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hash, err := s.GetImportedFileHash(ctx, "quizzes/bio.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := s.SetImportedFileHash(ctx, "quizzes/bio.json", "abc"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash(ctx, "quizzes/bio.json", "def"); err != nil {
		t.Fatalf("SetImportedFileHash (update): %v", err)
	}
	hash, err = s.GetImportedFileHash(ctx, "quizzes/bio.json")
	if err != nil {
		t.Fatalf("GetImportedFileHash: %v", err)
	}
	if hash != "def" {
		t.Errorf("expected hash 'def', got %q", hash)
	}
}

func TestExportAllQuizzes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveQuiz(ctx, testQuiz("a", "Alpha")); err != nil {
		t.Fatalf("SaveQuiz: %v", err)
	}

	exports, err := s.ExportAllQuizzes(ctx)
	if err != nil {
		t.Fatalf("ExportAllQuizzes: %v", err)
	}
	if len(exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(exports))
	}
	e := exports[0]
	if e.Title != "Alpha" || len(e.Questions) != 3 {
		t.Errorf("unexpected export %+v", e)
	}
	if e.Questions[1].Answer != "True" {
		t.Errorf("true/false answer = %q", e.Questions[1].Answer)
	}
}

func TestImportQuizzes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q := testQuiz("", "Imported")
	q.Questions[0].ID = ""
	data, err := json.Marshal([]*model.Quiz{q})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	imported, err := s.ImportQuizzes(ctx, "bio.json", data)
	if err != nil {
		t.Fatalf("ImportQuizzes: %v", err)
	}
	if len(imported) != 1 || imported[0].ID == "" || imported[0].Questions[0].ID == "" {
		t.Fatalf("ids not generated: %+v", imported)
	}
	got, err := s.GetQuiz(ctx, imported[0].ID)
	if err != nil {
		t.Fatalf("GetQuiz: %v", err)
	}
	if got.Title != "Imported" || len(got.Questions) != 3 {
		t.Errorf("unexpected quiz %+v", got)
	}

	if _, err := s.ImportQuizzes(ctx, "bio.json", data); !errors.Is(err, ErrAlreadyImported) {
		t.Errorf("second import = %v, want ErrAlreadyImported", err)
	}

	tests := []struct {
		name string
		data string
	}{
		{"empty", "  "},
		{"not json", "questions: 3"},
		{"empty array", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ImportQuizzes(ctx, tt.name+".json", []byte(tt.data))
			if !model.IsValidation(err) {
				t.Errorf("ImportQuizzes() = %v, want ValidationError", err)
			}
		})
	}
}

func TestImportQuizzesIsAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	good := testQuiz("", "Good")
	bad := testQuiz("", "Bad")
	bad.Questions[0].Options = bad.Questions[0].Options[:1]
	data, err := json.Marshal([]*model.Quiz{good, bad})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := s.ImportQuizzes(ctx, "mixed.json", data); !model.IsValidation(err) {
		t.Fatalf("ImportQuizzes() = %v, want ValidationError", err)
	}
	if n, err := s.QuizCount(ctx); err != nil || n != 0 {
		t.Fatalf("QuizCount after failed import = %d, %v; want 0", n, err)
	}
	if hash, _ := s.GetImportedFileHash(ctx, "mixed.json"); hash != "" {
		t.Errorf("failed import recorded hash %q", hash)
	}

	fixed := testQuiz("", "Fixed")
	data, err = json.Marshal([]*model.Quiz{testQuiz("", "Good"), fixed})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	imported, err := s.ImportQuizzes(ctx, "mixed.json", data)
	if err != nil {
		t.Fatalf("ImportQuizzes (corrected): %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("imported %d quizzes, want 2", len(imported))
	}
	if n, err := s.QuizCount(ctx); err != nil || n != 2 {
		t.Errorf("QuizCount after corrected import = %d, %v; want 2", n, err)
	}
}
