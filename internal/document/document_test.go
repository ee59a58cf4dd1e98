package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/quizgen/internal/export"
	"github.com/pavelanni/quizgen/internal/generate"
	"github.com/pavelanni/quizgen/internal/model"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		doc     *model.Document
		want    string
		wantErr error
	}{
		{
			name: "plain text by content type",
			doc:  &model.Document{Name: "notes", ContentType: "text/plain", Data: []byte("  Plants   use light.\r\n\r\n\r\nThey make sugar. ")},
			want: "Plants use light.\n\nThey make sugar.",
		},
		{
			name: "markdown by extension",
			doc:  &model.Document{Name: "notes.md", Data: []byte("# Cells")},
			want: "# Cells",
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrNoText,
		},
		{
			name:    "whitespace only",
			doc:     &model.Document{Name: "a.txt", Data: []byte(" \n\t ")},
			wantErr: ErrNoText,
		},
		{
			name:    "binary",
			doc:     &model.Document{Name: "image.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
			wantErr: ErrUnsupported,
		},
		{
			name:    "fake pdf",
			doc:     &model.Document{Name: "slides.pdf", ContentType: "application/pdf", Data: []byte("hello")},
			wantErr: ErrUnsupported,
		},
		{
			name:    "invalid utf-8",
			doc:     &model.Document{Name: "a.txt", Data: []byte{0xff, 0xfe, 'a'}},
			wantErr: ErrUnsupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.doc)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractRenderedPDF(t *testing.T) {
	quiz := &model.Quiz{ID: "q", Title: "Photosynthesis Quiz", Questions: []model.Question{generate.SampleQuestions[1]}}
	quiz.Questions[0].ID = "q1"
	f, err := export.Render(quiz, model.FormatPDF)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	text, err := Extract(&model.Document{Name: "quiz.pdf", ContentType: "application/pdf", Data: f.Data})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, want := range []string{"Photosynthesis Quiz", "Answer Key"} {
		if !strings.Contains(text, want) {
			t.Errorf("extracted text missing %q:\n%s", want, text)
		}
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract(&model.Document{Name: "broken.pdf", Data: []byte("%PDF-1.4\nnot really")})
	if err == nil {
		t.Fatal("expected an error for a truncated PDF")
	}
}
