package model

import (
	"strings"
)

// Validate checks the type-specific invariants of a question.
func (q Question) Validate() error {
	if !q.Type.Valid() {
		return Invalid("type", "unknown question type %q", q.Type)
	}
	if strings.TrimSpace(q.Text) == "" {
		return Invalid("question", "question text is required")
	}
	if !q.Difficulty.ValidForQuestion() {
		return Invalid("difficulty", "difficulty must be easy, medium or hard, got %q", q.Difficulty)
	}
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) != OptionCount {
			return Invalid("options", "multiple choice needs exactly %d options, got %d", OptionCount, len(q.Options))
		}
		for i, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return Invalid("options", "option %c is empty", 'A'+i)
			}
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return Invalid("correct_option", "correct option %d out of range", q.CorrectOption)
		}
	case TypeFillInBlank:
		if strings.TrimSpace(q.CorrectText) == "" {
			return Invalid("correct_text", "fill-in-the-blank answer is required")
		}
	}
	return nil
}

// Validate checks the quiz title, question ids and every question.
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.Title) == "" {
		return Invalid("title", "title is required")
	}
	seen := make(map[string]bool, len(q.Questions))
	for i, qq := range q.Questions {
		if qq.ID == "" {
			return Invalid("id", "question %d has no id", i+1)
		}
		if seen[qq.ID] {
			return Invalid("id", "duplicate question id %q", qq.ID)
		}
		seen[qq.ID] = true
		if err := qq.Validate(); err != nil {
			ve := err.(*ValidationError)
			return Invalid(ve.Field, "question %d: %s", i+1, ve.Message)
		}
	}
	return nil
}

// Validate checks that a configuration may be submitted.
func (c QuizConfig) Validate() error {
	if !c.Source.Kind.Valid() {
		return Invalid("source", "unknown content source %q", c.Source.Kind)
	}
	if c.Source.IsEmpty() {
		return Invalid("source", "content source is empty")
	}
	if c.QuestionCount < MinQuestionCount || c.QuestionCount > MaxQuestionCount {
		return Invalid("question_count", "must be between %d and %d", MinQuestionCount, MaxQuestionCount)
	}
	if len(c.QuestionTypes) == 0 {
		return Invalid("question_types", "select at least one question type")
	}
	for _, t := range c.QuestionTypes {
		if !t.Valid() {
			return Invalid("question_types", "unknown question type %q", t)
		}
	}
	if !c.Difficulty.Valid() {
		return Invalid("difficulty", "unknown difficulty %q", c.Difficulty)
	}
	return nil
}
