// Package views renders the HTML pages of the quiz generator as templ
// components.
//
//go:generate templ generate
package views

import (
	"context"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pavelanni/quizgen/internal/builder"
	"github.com/pavelanni/quizgen/internal/i18n"
	"github.com/pavelanni/quizgen/internal/model"
)

// CreateData drives the create page.
type CreateData struct {
	Builder *builder.Builder
	Error   string
	// Retry is set when a generation attempt failed and the same settings
	// can be submitted again.
	Retry bool
}

// PreviewData is a snapshot of an edit session taken for rendering.
type PreviewData struct {
	Quiz *model.Quiz
	// ActiveID is the question being edited, empty when all are Viewing.
	ActiveID string
	// Draft is the working copy of the active question.
	Draft    *model.Question
	Modified bool
	Notice   string
	Error    string
}

// QuizListData drives the saved quizzes page.
type QuizListData struct {
	Quizzes []model.QuizSummary
	Notice  string
	Error   string
}

const check = "✓"

var sourceTabs = []struct {
	kind  model.SourceKind
	label string
}{
	{model.SourceTopic, "TabTopic"},
	{model.SourceText, "TabText"},
	{model.SourceDocument, "TabDocument"},
}

var exportLinks = []struct {
	format model.ExportFormat
	label  string
}{
	{model.FormatPDF, "ExportPDF"},
	{model.FormatWord, "ExportWord"},
	{model.FormatJSON, "ExportJSON"},
}

// url prefixes p with the deployment base path.
func url(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

func backLink(ctx context.Context, backURL string) string {
	if backURL == "" {
		return url(ctx, "/")
	}
	return backURL
}

func pageTitle(ctx context.Context, title string) string {
	app := i18n.T(ctx, "AppTitle")
	if title == "" {
		return app
	}
	return title + " · " + app
}

// charCount is the pasted text counter. The inner span is rewritten by the
// page script as the user types.
func charCount(ctx context.Context, text string) string {
	return i18n.Td(ctx, "CharacterCount", map[string]any{
		"Count": `<span id="char-count">` + strconv.Itoa(utf8.RuneCountInString(text)) + `</span>`,
		"Max":   i18n.Number(ctx, model.MaxPastedTextRunes),
	})
}

func updatedAt(ctx context.Context, t time.Time) string {
	return i18n.Td(ctx, "UpdatedAt", map[string]any{"Time": t.Local().Format("2006-01-02 15:04")})
}

func boolLabel(ctx context.Context, v bool) string {
	if v {
		return i18n.T(ctx, "True")
	}
	return i18n.T(ctx, "False")
}

func optionLetter(i int) string {
	return string(rune('A' + i))
}

// draftOptions pads the options of a draft so every input slot is shown.
func draftOptions(q model.Question) []string {
	opts := make([]string, max(model.OptionCount, len(q.Options)))
	copy(opts, q.Options)
	return opts
}
