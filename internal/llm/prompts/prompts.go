package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/quizgen/internal/model"
)

//go:embed prompts/*.txt
var defaultFS embed.FS

var (
	sourceMaterialRegex     = regexp.MustCompile(`(?i)</?\s*source-material\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var (
	loadOnce       sync.Once
	loadErr        error
	systemTemplate *template.Template
	userTemplate   *template.Template
)

var typeDescriptions = map[model.QuestionType]string{
	model.TypeMultipleChoice: `"mcq" (multiple choice: exactly 4 options, 1 correct)`,
	model.TypeTrueFalse:      `"tf" (true or false statement)`,
	model.TypeFillInBlank:    `"fill" (sentence with one blank written as _____)`,
}

// GenerateData holds template data for generation prompts.
type GenerateData struct {
	Count      int
	Types      []string
	Difficulty string
	Topic      string
	Material   string
	Document   string
}

// Load loads prompt templates from fsys, or from the embedded defaults when
// fsys is nil. It uses sync.Once to ensure templates are loaded only once.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		if fsys == nil {
			fsys = defaultFS
		}
		systemTemplate, loadErr = parse(fsys, "prompts/system.txt")
		if loadErr != nil {
			return
		}
		userTemplate, loadErr = parse(fsys, "prompts/generate.txt")
	})
	return loadErr
}

func parse(fsys fs.FS, name string) (*template.Template, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// BuildSystemPrompt renders the system prompt describing the response format.
func BuildSystemPrompt() (string, error) {
	if systemTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}
	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, nil); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildGeneratePrompt renders the user prompt for a configuration.
// documentText is the text extracted from an uploaded document, if any.
func BuildGeneratePrompt(cfg model.QuizConfig, documentText string) (string, error) {
	if userTemplate == nil {
		return "", errors.New("templates not initialized: call Load first")
	}

	data := GenerateData{
		Count:      cfg.QuestionCount,
		Difficulty: string(cfg.Difficulty),
	}
	for _, t := range cfg.QuestionTypes {
		data.Types = append(data.Types, typeDescriptions[t])
	}
	switch cfg.Source.Kind {
	case model.SourceTopic:
		data.Topic = sanitize(cfg.Source.Topic, 500)
	case model.SourceText:
		data.Material = sanitize(cfg.Source.Text, model.MaxPastedTextRunes)
	case model.SourceDocument:
		data.Document = sanitize(documentText, model.MaxPastedTextRunes)
	default:
		return "", fmt.Errorf("unknown content source %q", cfg.Source.Kind)
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize strips delimiter tags that could break out of the material block
// and caps the length in runes.
func sanitize(s string, limit int) string {
	s = sourceMaterialRegex.ReplaceAllString(s, "")
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > limit {
		runes := []rune(s)
		s = string(runes[:limit]) + "\n\n[Material truncated due to length]"
	}
	return s
}
