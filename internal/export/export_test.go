package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/pavelanni/quizgen/internal/generate"
	"github.com/pavelanni/quizgen/internal/model"
)

func sampleQuiz() *model.Quiz {
	return &model.Quiz{
		ID:    "quiz-1",
		Title: "Photosynthesis Quiz",
		Config: model.QuizConfig{
			Source:     model.ContentSource{Kind: model.SourceTopic, Topic: "Photosynthesis"},
			Difficulty: model.DifficultyMixed,
		},
		Questions: []model.Question{
			{
				ID:            "q1",
				Type:          model.TypeMultipleChoice,
				Text:          "What is the primary function of photosynthesis in plants?",
				Difficulty:    model.DifficultyMedium,
				Options:       []string{"Absorb water", "Convert light (sunlight) to energy", "Release CO2", "Grow roots"},
				CorrectOption: 1,
				Explanation:   "Light energy becomes chemical energy.",
			},
			{
				ID:          "q2",
				Type:        model.TypeTrueFalse,
				Text:        "Chlorophyll is the green pigment in plants.",
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

func TestRenderPDF(t *testing.T) {
	f, err := Render(sampleQuiz(), model.FormatPDF)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if f.Name != "photosynthesis-quiz.pdf" || f.ContentType != "application/pdf" {
		t.Errorf("unexpected file metadata: %q %q", f.Name, f.ContentType)
	}
	data := string(f.Data)
	if !strings.HasPrefix(data, "%PDF-") || !strings.HasSuffix(strings.TrimSpace(data), "%%EOF") {
		t.Error("missing PDF header or trailer")
	}

	doc := buildPDF(layout(sampleQuiz()))
	if n := doc.PageCount(); n != 1 {
		t.Errorf("PageCount = %d, want 1", n)
	}
	content := uncompressedPDF(t, sampleQuiz())
	for _, want := range []string{
		"Photosynthesis Quiz",
		"Convert light",
		"Answer Key",
		"Light energy becomes chemical energy.",
	} {
		if !bytes.Contains(content, utf16BE(want)) {
			t.Errorf("PDF missing %q", want)
		}
	}
}

func TestRenderPDFKeepsUnicode(t *testing.T) {
	builtin := &model.Quiz{ID: "sample", Title: "Photosynthesis Quiz", Questions: generate.SampleQuestions}
	russian := &model.Quiz{
		ID:    "ru",
		Title: "Фотосинтез",
		Questions: []model.Question{{
			ID:          "q1",
			Type:        model.TypeTrueFalse,
			Text:        "Хлорофилл придаёт листьям зелёный цвет.",
			Difficulty:  model.DifficultyEasy,
			CorrectBool: true,
		}},
	}
	tests := []struct {
		name string
		quiz *model.Quiz
		want []string
	}{
		{"built-in sample", builtin, []string{"6CO₂", "6H₂O", "→", "6O₂", "C₆H₁₂O₆"}},
		{"cyrillic", russian, []string{"Фотосинтез", "Хлорофилл", "зелёный"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := uncompressedPDF(t, tt.quiz)
			for _, want := range tt.want {
				if !bytes.Contains(content, utf16BE(want)) {
					t.Errorf("PDF lost %q", want)
				}
			}
		})
	}
}

func TestRenderPDFPaginates(t *testing.T) {
	q := sampleQuiz()
	base := q.Questions[0]
	for i := 0; i < 60; i++ {
		qq := base.Clone()
		qq.ID = string(rune('a'+i%26)) + strings.Repeat("x", i)
		q.Questions = append(q.Questions, qq)
	}
	if n := buildPDF(layout(q)).PageCount(); n < 2 {
		t.Errorf("PageCount = %d, long quiz should span several pages", n)
	}
	if _, err := Render(q, model.FormatPDF); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

// uncompressedPDF renders q with plain content streams. Text drawn with the
// embedded font is stored as UTF-16BE.
func uncompressedPDF(t *testing.T, q *model.Quiz) []byte {
	t.Helper()
	doc := buildPDF(layout(q))
	doc.SetCompression(false)
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("Output: %v", err)
	}
	return buf.Bytes()
}

func utf16BE(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	return b
}

func TestRenderWord(t *testing.T) {
	f, err := Render(sampleQuiz(), model.FormatWord)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if f.Name != "photosynthesis-quiz.docx" {
		t.Errorf("Name = %q", f.Name)
	}
	zr, err := zip.NewReader(bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		t.Fatalf("open docx: %v", err)
	}
	names := map[string]*zip.File{}
	for _, zf := range zr.File {
		names[zf.Name] = zf
	}
	for _, want := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if names[want] == nil {
			t.Errorf("docx missing part %s", want)
		}
	}
	rc, err := names["word/document.xml"].Open()
	if err != nil {
		t.Fatalf("open document.xml: %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read document.xml: %v", err)
	}
	for _, want := range []string{"Photosynthesis Quiz", "B) Convert light (sunlight) to energy", "3. glucose"} {
		if !bytes.Contains(body, []byte(want)) {
			t.Errorf("document.xml missing %q", want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	f, err := render(sampleQuiz(), model.FormatJSON, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var got model.QuizExport
	if err := json.Unmarshal(f.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Title != "Photosynthesis Quiz" || len(got.Questions) != 3 {
		t.Errorf("unexpected export %+v", got)
	}
	if got.Questions[0].Answer != "B) Convert light (sunlight) to energy" {
		t.Errorf("answer = %q", got.Questions[0].Answer)
	}
}

func TestRenderErrors(t *testing.T) {
	empty := sampleQuiz()
	empty.Questions = nil
	tests := []struct {
		name   string
		quiz   *model.Quiz
		format model.ExportFormat
	}{
		{"unknown format", sampleQuiz(), model.ExportFormat("odt")},
		{"no questions", empty, model.FormatPDF},
		{"nil quiz", nil, model.FormatWord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.quiz, tt.format)
			var ee *model.ExportError
			if !errors.As(err, &ee) {
				t.Fatalf("Render() error = %v, want ExportError", err)
			}
			if ee.Format != tt.format {
				t.Errorf("Format = %q", ee.Format)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Photosynthesis Quiz", "photosynthesis-quiz.pdf"},
		{"  Cells & Tissues!! ", "cells-tissues.pdf"},
		{"???", "quiz.pdf"},
	}
	for _, tt := range tests {
		if got := Filename(tt.title, model.FormatPDF); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
