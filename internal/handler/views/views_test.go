package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/pavelanni/quizgen/internal/builder"
	appI18n "github.com/pavelanni/quizgen/internal/i18n"
	"github.com/pavelanni/quizgen/internal/model"
)

func render(t *testing.T, basePath string, c templ.Component) string {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	ctx := model.ContextWithBasePath(context.Background(), basePath)
	ctx = model.ContextWithCSRFToken(ctx, "tok-123")
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func sampleQuiz() *model.Quiz {
	return &model.Quiz{
		ID:    "quiz-1",
		Title: "Cells <Quiz>",
		Questions: []model.Question{
			{
				ID:            "q1",
				Type:          model.TypeMultipleChoice,
				Text:          "Which organelle makes energy?",
				Difficulty:    model.DifficultyEasy,
				Options:       []string{"Nucleus", "Mitochondria", "Ribosome", "Vacuole"},
				CorrectOption: 1,
				Explanation:   "Mitochondria produce ATP.",
			},
			{
				ID:          "q2",
				Type:        model.TypeTrueFalse,
				Text:        "Plant cells have walls.",
				Difficulty:  model.DifficultyMedium,
				CorrectBool: true,
				Explanation: "Cellulose walls.",
			},
			{
				ID:          "q3",
				Type:        model.TypeFillInBlank,
				Text:        "The control centre is the ____.",
				Difficulty:  model.DifficultyHard,
				CorrectText: "nucleus",
				Explanation: "It holds the DNA.",
			},
		},
	}
}

func TestPages(t *testing.T) {
	quiz := sampleQuiz()
	draft := quiz.Questions[0].Clone()
	draft.Options = draft.Options[:2]

	tests := []struct {
		name    string
		page    templ.Component
		want    []string
		notWant []string
	}{
		{
			name: "create",
			page: CreatePage(CreateData{Builder: builder.New(model.PastedTextReject)}),
			want: []string{
				"<!doctype html>",
				`id="create-form"`,
				`action="/quiz/generate"`,
				`name="csrf_token" value="tok-123"`,
				`value="mcq"`,
				`<span id="char-count">0</span>`,
				"Generate Quiz",
			},
			notWant: []string{"Try Again", `role="alert"`},
		},
		{
			name: "create retry",
			page: CreatePage(CreateData{Builder: builder.New(model.PastedTextReject), Error: "upstream down", Retry: true}),
			want: []string{`role="alert" class="error">upstream down</p>`, "Try Again"},
		},
		{
			name: "preview",
			page: PreviewPage(PreviewData{Quiz: quiz, Modified: true}),
			want: []string{
				"<title>Cells &lt;Quiz&gt; · ",
				`value="Cells &lt;Quiz&gt;"`,
				`action="/quiz/quiz-1/questions/q1/toggle"`,
				`class="option correct"><span class="letter">B</span> Mitochondria ✓</li>`,
				`href="/quiz/quiz-1/export/pdf"`,
				`class="badge difficulty difficulty-hard"`,
				"Unsaved changes",
			},
			notWant: []string{`class="question editing"`, "<Quiz>"},
		},
		{
			name: "preview editing",
			page: PreviewPage(PreviewData{Quiz: quiz, ActiveID: "q1", Draft: &draft}),
			want: []string{
				`<li class="question editing" id="q-q1">`,
				`action="/quiz/quiz-1/questions/q1/save"`,
				`formaction="/quiz/quiz-1/questions/q1/cancel"`,
				`name="correct_option" value="1" checked`,
				`name="option_3" value=""`,
				`<li class="question viewing" id="q-q2">`,
			},
			notWant: []string{"Unsaved changes"},
		},
		{
			name: "quiz list",
			page: QuizListPage(QuizListData{
				Quizzes: []model.QuizSummary{{ID: "quiz-1", Title: "Cells", QuestionCount: 3, UpdatedAt: time.Now()}},
				Notice:  "Quiz deleted.",
			}),
			want: []string{
				`<a href="/quiz/quiz-1">Cells</a>`,
				`action="/quiz/quiz-1/delete"`,
				`role="alert" class="notice">Quiz deleted.</p>`,
				`action="/quizzes/import"`,
			},
			notWant: []string{`class="error"`},
		},
		{
			name: "empty quiz list",
			page: QuizListPage(QuizListData{}),
			want: []string{"No saved quizzes"},
		},
		{
			name: "error",
			page: ErrorPage("Quiz not found.", ""),
			want: []string{`role="alert" class="error">Quiz not found.</p>`, `<p><a href="/">`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, "", tt.page)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q", w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output unexpectedly contains %q", w)
				}
			}
		})
	}
}

func TestPagesUseBasePath(t *testing.T) {
	tests := []struct {
		name string
		page templ.Component
		want string
	}{
		{"header", Header(), `href="/quizgen/quizzes"`},
		{"create", CreatePage(CreateData{Builder: builder.New(model.PastedTextReject)}), `action="/quizgen/quiz/generate"`},
		{"preview", PreviewPage(PreviewData{Quiz: sampleQuiz()}), `action="/quizgen/quiz/quiz-1/save"`},
		{"error", ErrorPage("boom", ""), `<p><a href="/quizgen/">`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := render(t, "/quizgen", tt.page); !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, out)
			}
		})
	}
}
