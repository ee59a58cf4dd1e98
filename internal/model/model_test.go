package model

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func validMCQ() Question {
	return Question{
		ID:            "q1",
		Type:          TypeMultipleChoice,
		Text:          "What is the primary function of photosynthesis in plants?",
		Difficulty:    DifficultyMedium,
		Options:       []string{"Absorb water", "Convert sunlight", "Release oxygen", "Grow taller"},
		CorrectOption: 1,
	}
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(q *Question)
		wantField string
	}{
		{"valid", func(q *Question) {}, ""},
		{"empty text", func(q *Question) { q.Text = "  " }, "question"},
		{"unknown type", func(q *Question) { q.Type = "essay" }, "type"},
		{"mixed difficulty", func(q *Question) { q.Difficulty = DifficultyMixed }, "difficulty"},
		{"three options", func(q *Question) { q.Options = q.Options[:3] }, "options"},
		{"empty option", func(q *Question) { q.Options[2] = "" }, "options"},
		{"index too high", func(q *Question) { q.CorrectOption = 4 }, "correct_option"},
		{"negative index", func(q *Question) { q.CorrectOption = -1 }, "correct_option"},
		{"fill without answer", func(q *Question) {
			q.Type = TypeFillInBlank
			q.Options = nil
			q.CorrectText = ""
		}, "correct_text"},
		{"true false ignores options", func(q *Question) {
			q.Type = TypeTrueFalse
			q.Options = nil
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validMCQ()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestQuizValidateDuplicateIDs(t *testing.T) {
	q := &Quiz{Title: "Quiz", Questions: []Question{validMCQ(), validMCQ()}}
	err := q.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("Validate() = %v, want duplicate id error", err)
	}

	q.Title = ""
	if err := q.Validate(); !IsValidation(err) {
		t.Errorf("empty title: Validate() = %v, want ValidationError", err)
	}
}

func TestQuizCloneIsDeep(t *testing.T) {
	orig := &Quiz{Title: "Quiz", Questions: []Question{validMCQ()}}
	c := orig.Clone()
	c.Questions[0].Options[0] = "changed"
	c.Questions[0].Text = "changed"
	if orig.Questions[0].Options[0] == "changed" || orig.Questions[0].Text == "changed" {
		t.Error("Clone shares question data with the original")
	}
}

func TestContentSourceIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		src  ContentSource
		want bool
	}{
		{"zero value", ContentSource{}, true},
		{"blank topic", ContentSource{Kind: SourceTopic, Topic: "   "}, true},
		{"topic", ContentSource{Kind: SourceTopic, Topic: "Photosynthesis"}, false},
		{"text kind ignores topic", ContentSource{Kind: SourceText, Topic: "x"}, true},
		{"text", ContentSource{Kind: SourceText, Text: "Plants convert light."}, false},
		{"nil document", ContentSource{Kind: SourceDocument}, true},
		{"document", ContentSource{Kind: SourceDocument, Document: &Document{Name: "a.pdf", Data: []byte("%PDF")}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnswerText(t *testing.T) {
	mcq := validMCQ()
	if got := mcq.AnswerText(); got != "B) Convert sunlight" {
		t.Errorf("mcq AnswerText() = %q", got)
	}
	tf := Question{Type: TypeTrueFalse, CorrectBool: true}
	if got := tf.AnswerText(); got != "True" {
		t.Errorf("tf AnswerText() = %q", got)
	}
	fill := Question{Type: TypeFillInBlank, CorrectText: "glucose"}
	if got := fill.AnswerText(); got != "glucose" {
		t.Errorf("fill AnswerText() = %q", got)
	}
}

func TestNewQuizExport(t *testing.T) {
	q := &Quiz{ID: "abc", Title: "Photosynthesis Quiz", Questions: []Question{validMCQ()}}
	q.Config.Source = ContentSource{Kind: SourceTopic, Topic: "Photosynthesis"}
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	exp := NewQuizExport(q, at)
	if exp.Source != "Photosynthesis" {
		t.Errorf("Source = %q", exp.Source)
	}
	if len(exp.Questions) != 1 || exp.Questions[0].Number != 1 {
		t.Fatalf("unexpected questions: %+v", exp.Questions)
	}
	if exp.Questions[0].Answer != "B) Convert sunlight" {
		t.Errorf("Answer = %q", exp.Questions[0].Answer)
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("handler: %w", &GenerationError{Err: cause, Retryable: true})
	if !IsRetryable(err) {
		t.Error("expected retryable generation error")
	}
	if !errors.Is(err, cause) {
		t.Error("GenerationError should unwrap to its cause")
	}
	if IsRetryable(&GenerationError{Err: cause}) {
		t.Error("non-retryable error reported as retryable")
	}
	se := &SaveError{QuizID: "q", Err: cause}
	if !errors.Is(se, cause) {
		t.Error("SaveError should unwrap to its cause")
	}
}
