// Package export renders quizzes to downloadable documents.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

// File is a rendered quiz ready to be written or served.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

var typeLabels = map[model.QuestionType]string{
	model.TypeMultipleChoice: "Multiple Choice",
	model.TypeTrueFalse:      "True/False",
	model.TypeFillInBlank:    "Fill in the Blank",
}

var difficultyLabels = map[model.Difficulty]string{
	model.DifficultyEasy:   "Easy",
	model.DifficultyMedium: "Medium",
	model.DifficultyHard:   "Hard",
	model.DifficultyMixed:  "Mixed",
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Render converts q to the requested format. Failures are returned as
// *model.ExportError.
func Render(q *model.Quiz, format model.ExportFormat) (*File, error) {
	f, err := render(q, format, time.Now())
	if err != nil {
		return nil, &model.ExportError{Format: format, Err: err}
	}
	return f, nil
}

func render(q *model.Quiz, format model.ExportFormat, now time.Time) (*File, error) {
	if q == nil {
		return nil, fmt.Errorf("no quiz")
	}
	if len(q.Questions) == 0 {
		return nil, fmt.Errorf("quiz %s has no questions", q.ID)
	}
	name := Filename(q.Title, format)
	switch format {
	case model.FormatPDF:
		data, err := writePDF(layout(q))
		if err != nil {
			return nil, err
		}
		return &File{Name: name, ContentType: "application/pdf", Data: data}, nil
	case model.FormatWord:
		data, err := writeDOCX(layout(q))
		if err != nil {
			return nil, err
		}
		return &File{
			Name:        name,
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Data:        data,
		}, nil
	case model.FormatJSON:
		data, err := json.MarshalIndent(model.NewQuizExport(q, now), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		return &File{Name: name, ContentType: "application/json", Data: append(data, '\n')}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Filename derives a download name such as "photosynthesis-quiz.pdf".
func Filename(title string, format model.ExportFormat) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "quiz"
	}
	return slug + "." + string(format)
}

type blockKind int

const (
	blockTitle blockKind = iota
	blockMeta
	blockHeading
	blockQuestion
	blockOption
	blockText
	blockSpacer
)

type block struct {
	kind blockKind
	text string
}

// layout flattens a quiz into the blocks shared by the PDF and Word writers:
// the questions first, then an answer key.
func layout(q *model.Quiz) []block {
	blocks := []block{{kind: blockTitle, text: q.Title}}

	var meta []string
	if d, ok := difficultyLabels[q.Config.Difficulty]; ok {
		meta = append(meta, "Difficulty: "+d)
	}
	meta = append(meta, fmt.Sprintf("%d questions", len(q.Questions)))
	if label := q.Config.Source.Label(); label != "" {
		meta = append(meta, "Source: "+label)
	}
	blocks = append(blocks, block{kind: blockMeta, text: strings.Join(meta, " | ")}, block{kind: blockSpacer})

	for i, qq := range q.Questions {
		blocks = append(blocks, block{
			kind: blockQuestion,
			text: fmt.Sprintf("%d. [%s, %s] %s", i+1, typeLabels[qq.Type], difficultyLabels[qq.Difficulty], qq.Text),
		})
		switch qq.Type {
		case model.TypeMultipleChoice:
			for j, opt := range qq.Options {
				blocks = append(blocks, block{kind: blockOption, text: fmt.Sprintf("%c) %s", 'A'+j, opt)})
			}
		case model.TypeTrueFalse:
			blocks = append(blocks, block{kind: blockOption, text: "True / False"})
		case model.TypeFillInBlank:
			blocks = append(blocks, block{kind: blockOption, text: "Answer: ____________________"})
		}
		blocks = append(blocks, block{kind: blockSpacer})
	}

	blocks = append(blocks, block{kind: blockHeading, text: "Answer Key"})
	for i, qq := range q.Questions {
		blocks = append(blocks, block{kind: blockText, text: fmt.Sprintf("%d. %s", i+1, qq.AnswerText())})
		if qq.Explanation != "" {
			blocks = append(blocks, block{kind: blockOption, text: qq.Explanation})
		}
	}
	return blocks
}
