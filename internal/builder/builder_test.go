package builder

import (
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pavelanni/quizgen/internal/model"
)

func TestDefaults(t *testing.T) {
	b := New(model.PastedTextReject)
	if b.QuestionCount() != 20 {
		t.Errorf("QuestionCount() = %d, want 20", b.QuestionCount())
	}
	if b.Difficulty() != model.DifficultyMixed {
		t.Errorf("Difficulty() = %q, want mixed", b.Difficulty())
	}
	want := []model.QuestionType{model.TypeMultipleChoice, model.TypeTrueFalse}
	if got := b.QuestionTypes(); !slices.Equal(got, want) {
		t.Errorf("QuestionTypes() = %v, want %v", got, want)
	}
	if b.IsSubmittable() {
		t.Error("fresh builder should not be submittable without content")
	}
}

func TestSetQuestionCountClamps(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{100, 100},
		{101, 100},
		{150, 100},
	}
	b := New(model.PastedTextReject)
	for _, tt := range tests {
		if got := b.SetQuestionCount(tt.in); got != tt.want {
			t.Errorf("SetQuestionCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if b.QuestionCount() != tt.want {
			t.Errorf("after SetQuestionCount(%d), QuestionCount() = %d", tt.in, b.QuestionCount())
		}
	}
}

func TestIsSubmittable(t *testing.T) {
	tests := []struct {
		name    string
		content string
		types   []model.QuestionType
		want    bool
	}{
		{"empty content, all types", "", model.QuestionTypes, false},
		{"blank content, one type", "   ", []model.QuestionType{model.TypeTrueFalse}, false},
		{"content, no types", "Photosynthesis", nil, false},
		{"content and type", "Photosynthesis", []model.QuestionType{model.TypeFillInBlank}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(model.PastedTextReject)
			for _, qt := range model.QuestionTypes {
				_ = b.ToggleQuestionType(qt, slices.Contains(tt.types, qt))
			}
			if err := b.UpdateContentSource(model.SourceTopic, tt.content); err != nil {
				t.Fatalf("UpdateContentSource: %v", err)
			}
			if got := b.IsSubmittable(); got != tt.want {
				t.Errorf("IsSubmittable() = %v, want %v", got, tt.want)
			}
			_, err := b.Build()
			if tt.want && err != nil {
				t.Errorf("Build() = %v, want nil", err)
			}
			if !tt.want && !model.IsValidation(err) {
				t.Errorf("Build() = %v, want ValidationError", err)
			}
		})
	}
}

func TestToggleRoundTrip(t *testing.T) {
	b := New(model.PastedTextReject)
	before := b.QuestionTypes()

	for _, qt := range model.QuestionTypes {
		had := b.HasType(qt)
		if err := b.ToggleQuestionType(qt, !had); err != nil {
			t.Fatalf("ToggleQuestionType: %v", err)
		}
		if err := b.ToggleQuestionType(qt, had); err != nil {
			t.Fatalf("ToggleQuestionType: %v", err)
		}
	}
	if got := b.QuestionTypes(); !slices.Equal(got, before) {
		t.Errorf("after round trip QuestionTypes() = %v, want %v", got, before)
	}

	// Enabling an already-enabled type is a no-op.
	_ = b.ToggleQuestionType(model.TypeMultipleChoice, true)
	_ = b.ToggleQuestionType(model.TypeMultipleChoice, true)
	if got := b.QuestionTypes(); !slices.Equal(got, before) {
		t.Errorf("double enable changed set: %v", got)
	}

	if err := b.ToggleQuestionType("essay", true); !model.IsValidation(err) {
		t.Errorf("unknown type: got %v, want ValidationError", err)
	}
}

func TestPastedTextPolicy(t *testing.T) {
	long := strings.Repeat("é", model.MaxPastedTextRunes+10)

	t.Run("reject", func(t *testing.T) {
		b := New(model.PastedTextReject)
		if err := b.UpdateContentSource(model.SourceText, long); !model.IsValidation(err) {
			t.Fatalf("UpdateContentSource = %v, want ValidationError", err)
		}
		if b.Source().Kind != model.SourceTopic {
			t.Error("rejected text should not replace the source")
		}
	})

	t.Run("truncate", func(t *testing.T) {
		b := New(model.PastedTextTruncate)
		if err := b.UpdateContentSource(model.SourceText, long); err != nil {
			t.Fatalf("UpdateContentSource: %v", err)
		}
		if n := utf8.RuneCountInString(b.Source().Text); n != model.MaxPastedTextRunes {
			t.Errorf("kept %d runes, want %d", n, model.MaxPastedTextRunes)
		}
	})

	t.Run("at limit", func(t *testing.T) {
		b := New(model.PastedTextReject)
		if err := b.UpdateContentSource(model.SourceText, long[:len("é")*model.MaxPastedTextRunes]); err != nil {
			t.Errorf("text at the limit rejected: %v", err)
		}
	})
}

func TestUpdateDocument(t *testing.T) {
	b := New(model.PastedTextReject)
	if err := b.UpdateDocument(nil); !model.IsValidation(err) {
		t.Errorf("nil document: %v", err)
	}
	big := &model.Document{Name: "big.pdf", Data: make([]byte, model.MaxDocumentBytes+1)}
	if err := b.UpdateDocument(big); !model.IsValidation(err) {
		t.Errorf("oversized document: %v", err)
	}
	for _, bad := range []*model.Document{
		{Name: "empty.txt", ContentType: "text/plain"},
		{Name: "photo.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")},
		{Name: "fake.pdf", ContentType: "application/pdf", Data: []byte("not a pdf")},
		{Name: "latin1.txt", ContentType: "text/plain", Data: []byte{'c', 'a', 'f', 0xe9}},
	} {
		if err := b.UpdateDocument(bad); !model.IsValidation(err) {
			t.Errorf("UpdateDocument(%s) = %v, want ValidationError", bad.Name, err)
		}
	}
	if b.IsSubmittable() {
		t.Error("rejected documents must not make the builder submittable")
	}
	doc := &model.Document{Name: "notes.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	if err := b.UpdateDocument(doc); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if !b.IsSubmittable() {
		t.Error("builder with a document should be submittable")
	}
}

func TestBuildScenario(t *testing.T) {
	b := New(model.PastedTextReject)
	_ = b.UpdateContentSource(model.SourceTopic, "Photosynthesis")
	b.SetQuestionCount(3)
	for _, qt := range model.QuestionTypes {
		_ = b.ToggleQuestionType(qt, true)
	}
	if err := b.SetDifficulty(model.DifficultyMixed); err != nil {
		t.Fatalf("SetDifficulty: %v", err)
	}
	if err := b.SetDifficulty("extreme"); !model.IsValidation(err) {
		t.Errorf("SetDifficulty(extreme) = %v, want ValidationError", err)
	}

	cfg, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cfg.QuestionCount != 3 || cfg.Difficulty != model.DifficultyMixed {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !slices.Equal(cfg.QuestionTypes, model.QuestionTypes) {
		t.Errorf("QuestionTypes = %v", cfg.QuestionTypes)
	}
	if cfg.Source.Topic != "Photosynthesis" {
		t.Errorf("Source.Topic = %q", cfg.Source.Topic)
	}
}
