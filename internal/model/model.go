package model

import (
	"context"
	"slices"
	"strings"
	"time"
)

const (
	// MaxPastedTextRunes is the largest pasted text accepted as a content source.
	MaxPastedTextRunes = 50_000
	// MaxDocumentBytes is the largest uploaded document accepted as a content source.
	MaxDocumentBytes = 50 << 20

	MinQuestionCount     = 1
	MaxQuestionCount     = 100
	DefaultQuestionCount = 20

	// OptionCount is the number of options every multiple choice question carries.
	OptionCount = 4
)

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// QuestionType identifies the answer shape of a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "mcq"
	TypeTrueFalse      QuestionType = "tf"
	TypeFillInBlank    QuestionType = "fill"
)

// QuestionTypes lists every question type in display order.
var QuestionTypes = []QuestionType{TypeMultipleChoice, TypeTrueFalse, TypeFillInBlank}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return slices.Contains(QuestionTypes, t)
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	// DifficultyMixed is only meaningful for a configuration; questions are
	// always easy, medium or hard.
	DifficultyMixed Difficulty = "mixed"
)

// Difficulties lists every configuration difficulty in display order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed}

// Valid reports whether d may be used in a configuration.
func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

// ValidForQuestion reports whether d may be attached to a single question.
func (d Difficulty) ValidForQuestion() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// SourceKind selects which content source variant is populated.
type SourceKind string

const (
	SourceTopic    SourceKind = "topic"
	SourceText     SourceKind = "text"
	SourceDocument SourceKind = "document"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	return k == SourceTopic || k == SourceText || k == SourceDocument
}

// Document is an uploaded file used as generation input.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Size returns the document size in bytes.
func (d *Document) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Data))
}

// ContentSource is the material a quiz is generated from. Exactly one of
// Topic, Text and Document is populated, selected by Kind.
type ContentSource struct {
	Kind     SourceKind `json:"kind"`
	Topic    string     `json:"topic,omitempty"`
	Text     string     `json:"text,omitempty"`
	Document *Document  `json:"document,omitempty"`
}

// IsEmpty reports whether the selected variant carries no content.
func (c ContentSource) IsEmpty() bool {
	switch c.Kind {
	case SourceTopic:
		return strings.TrimSpace(c.Topic) == ""
	case SourceText:
		return strings.TrimSpace(c.Text) == ""
	case SourceDocument:
		return c.Document.Size() == 0
	default:
		return true
	}
}

// Label returns a short human readable description of the source.
func (c ContentSource) Label() string {
	switch c.Kind {
	case SourceTopic:
		return strings.TrimSpace(c.Topic)
	case SourceDocument:
		if c.Document != nil {
			return c.Document.Name
		}
	}
	return ""
}

// QuizConfig holds the parameters sent to a generation service.
type QuizConfig struct {
	Source        ContentSource  `json:"source"`
	QuestionCount int            `json:"question_count"`
	QuestionTypes []QuestionType `json:"question_types"`
	Difficulty    Difficulty     `json:"difficulty"`
}

// Question is a single quiz question. The answer fields used depend on Type:
// multiple choice uses Options and CorrectOption, true/false uses CorrectBool,
// fill-in-the-blank uses CorrectText.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"question"`
	Difficulty    Difficulty   `json:"difficulty"`
	Explanation   string       `json:"explanation"`
	Options       []string     `json:"options,omitempty"`
	CorrectOption int          `json:"correct_option"`
	CorrectBool   bool         `json:"correct_bool"`
	CorrectText   string       `json:"correct_text,omitempty"`
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

// Quiz is a titled, ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	Config    QuizConfig `json:"config"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of q.
func (q *Quiz) Clone() *Quiz {
	c := *q
	c.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		c.Questions[i] = qq.Clone()
	}
	c.Config.QuestionTypes = slices.Clone(q.Config.QuestionTypes)
	return &c
}

// QuestionIndex returns the position of the question with the given id, or -1.
func (q *Quiz) QuestionIndex(id string) int {
	return slices.IndexFunc(q.Questions, func(qq Question) bool { return qq.ID == id })
}

// QuizSummary is a lightweight row for listing saved quizzes.
type QuizSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"question_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PastedTextPolicy decides what happens to pasted text above MaxPastedTextRunes.
type PastedTextPolicy string

const (
	PastedTextReject   PastedTextPolicy = "reject"
	PastedTextTruncate PastedTextPolicy = "truncate"
)

// EditConflictPolicy decides what happens when an edit starts while another
// question is being edited.
type EditConflictPolicy string

const (
	EditConflictReject EditConflictPolicy = "reject"
	EditConflictCommit EditConflictPolicy = "commit"
)

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath           string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies      bool   // Set Secure flag on cookies (disable for local dev)
	SessionKey         []byte // Signing key for the edit-session cookie
	PastedTextPolicy   PastedTextPolicy
	EditConflictPolicy EditConflictPolicy
}
