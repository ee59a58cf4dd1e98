package model

import "time"

// ExportFormat is a document format a quiz can be rendered to.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatWord ExportFormat = "docx"
	FormatJSON ExportFormat = "json"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == FormatPDF || f == FormatWord || f == FormatJSON
}

// QuizExport is the top-level JSON structure for quiz export.
type QuizExport struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	ExportedAt time.Time        `json:"exported_at"`
	Difficulty Difficulty       `json:"difficulty,omitempty"`
	Source     string           `json:"source,omitempty"`
	Questions  []QuestionExport `json:"questions"`
}

// QuestionExport holds per-question data for export.
type QuestionExport struct {
	Number      int          `json:"number"`
	Type        QuestionType `json:"type"`
	Difficulty  Difficulty   `json:"difficulty"`
	Text        string       `json:"text"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
}

// AnswerText renders the correct answer of q as plain text.
func (q Question) AnswerText() string {
	switch q.Type {
	case TypeMultipleChoice:
		if q.CorrectOption >= 0 && q.CorrectOption < len(q.Options) {
			return string(rune('A'+q.CorrectOption)) + ") " + q.Options[q.CorrectOption]
		}
		return ""
	case TypeTrueFalse:
		if q.CorrectBool {
			return "True"
		}
		return "False"
	default:
		return q.CorrectText
	}
}

// NewQuizExport flattens a quiz into its export representation.
func NewQuizExport(q *Quiz, at time.Time) QuizExport {
	out := QuizExport{
		ID:         q.ID,
		Title:      q.Title,
		ExportedAt: at,
		Difficulty: q.Config.Difficulty,
		Source:     q.Config.Source.Label(),
		Questions:  make([]QuestionExport, 0, len(q.Questions)),
	}
	for i, qq := range q.Questions {
		out.Questions = append(out.Questions, QuestionExport{
			Number:      i + 1,
			Type:        qq.Type,
			Difficulty:  qq.Difficulty,
			Text:        qq.Text,
			Options:     qq.Options,
			Answer:      qq.AnswerText(),
			Explanation: qq.Explanation,
		})
	}
	return out
}
