// Package builder collects quiz generation parameters and packages them into a
// model.QuizConfig once the configuration is complete.
package builder

import (
	"log/slog"
	"slices"
	"unicode/utf8"

	"github.com/pavelanni/quizgen/internal/document"
	"github.com/pavelanni/quizgen/internal/model"
)

// Builder accumulates the settings chosen on the create page.
// The zero value is not usable; call New.
type Builder struct {
	source     model.ContentSource
	count      int
	types      map[model.QuestionType]bool
	difficulty model.Difficulty
	textPolicy model.PastedTextPolicy
}

// New returns a builder with the create page defaults: 20 questions,
// multiple choice and true/false selected, mixed difficulty, topic source.
func New(policy model.PastedTextPolicy) *Builder {
	if policy != model.PastedTextTruncate {
		policy = model.PastedTextReject
	}
	return &Builder{
		source: model.ContentSource{Kind: model.SourceTopic},
		count:  model.DefaultQuestionCount,
		types: map[model.QuestionType]bool{
			model.TypeMultipleChoice: true,
			model.TypeTrueFalse:      true,
		},
		difficulty: model.DifficultyMixed,
		textPolicy: policy,
	}
}

// UpdateContentSource replaces the current content source with a topic or
// pasted text. Pasted text above model.MaxPastedTextRunes is rejected or
// truncated depending on the builder's policy.
func (b *Builder) UpdateContentSource(kind model.SourceKind, value string) error {
	switch kind {
	case model.SourceTopic:
		b.source = model.ContentSource{Kind: kind, Topic: value}
	case model.SourceText:
		if n := utf8.RuneCountInString(value); n > model.MaxPastedTextRunes {
			if b.textPolicy == model.PastedTextReject {
				return model.Invalid("text", "pasted text has %d characters, limit is %d", n, model.MaxPastedTextRunes)
			}
			slog.Debug("truncating pasted text", "chars", n, "limit", model.MaxPastedTextRunes)
			value = string([]rune(value)[:model.MaxPastedTextRunes])
		}
		b.source = model.ContentSource{Kind: kind, Text: value}
	case model.SourceDocument:
		return model.Invalid("source", "documents must be set with UpdateDocument")
	default:
		return model.Invalid("source", "unknown content source %q", kind)
	}
	return nil
}

// UpdateDocument replaces the current content source with an uploaded
// document. Documents above model.MaxDocumentBytes and files that are neither
// PDF nor text are rejected.
func (b *Builder) UpdateDocument(doc *model.Document) error {
	if doc == nil || doc.Size() == 0 {
		return model.Invalid("document", "no document provided")
	}
	if doc.Size() > model.MaxDocumentBytes {
		return model.Invalid("document", "document is %d bytes, limit is %d", doc.Size(), model.MaxDocumentBytes)
	}
	if err := document.Check(doc); err != nil {
		return model.Invalid("document", "%v", err)
	}
	b.source = model.ContentSource{Kind: model.SourceDocument, Document: doc}
	return nil
}

// SetQuestionCount clamps n to the allowed range and returns the stored value.
func (b *Builder) SetQuestionCount(n int) int {
	b.count = max(model.MinQuestionCount, min(n, model.MaxQuestionCount))
	return b.count
}

// ToggleQuestionType adds or removes t from the selected types.
func (b *Builder) ToggleQuestionType(t model.QuestionType, enabled bool) error {
	if !t.Valid() {
		return model.Invalid("question_types", "unknown question type %q", t)
	}
	if enabled {
		b.types[t] = true
	} else {
		delete(b.types, t)
	}
	return nil
}

// SetDifficulty selects the difficulty requested from the generator.
func (b *Builder) SetDifficulty(d model.Difficulty) error {
	if !d.Valid() {
		return model.Invalid("difficulty", "unknown difficulty %q", d)
	}
	b.difficulty = d
	return nil
}

// IsSubmittable reports whether the content source has content and at least
// one question type is selected.
func (b *Builder) IsSubmittable() bool {
	return !b.source.IsEmpty() && len(b.types) > 0
}

// QuestionCount returns the current question count.
func (b *Builder) QuestionCount() int { return b.count }

// Difficulty returns the current difficulty.
func (b *Builder) Difficulty() model.Difficulty { return b.difficulty }

// Source returns the current content source.
func (b *Builder) Source() model.ContentSource { return b.source }

// QuestionTypes returns the selected types in display order.
func (b *Builder) QuestionTypes() []model.QuestionType {
	var out []model.QuestionType
	for _, t := range model.QuestionTypes {
		if b.types[t] {
			out = append(out, t)
		}
	}
	return out
}

// HasType reports whether t is selected.
func (b *Builder) HasType(t model.QuestionType) bool { return b.types[t] }

// Build returns the generation request, or a ValidationError when the
// configuration is not submittable.
func (b *Builder) Build() (model.QuizConfig, error) {
	cfg := model.QuizConfig{
		Source:        b.source,
		QuestionCount: b.count,
		QuestionTypes: slices.Clip(b.QuestionTypes()),
		Difficulty:    b.difficulty,
	}
	if err := cfg.Validate(); err != nil {
		return model.QuizConfig{}, err
	}
	return cfg, nil
}
