package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pavelanni/quizgen/internal/model"
)

const threeQuestions = `{"questions": [
  {"type": "mcq", "question": "What do plants convert sunlight into?", "difficulty": "Medium",
   "options": ["Water", "Chemical energy", "Soil", "Heat"], "correct_option": 1, "explanation": "Glucose."},
  {"type": "TF", "question": "Chlorophyll is green.", "difficulty": "easy", "correct_bool": true, "explanation": "It reflects green light."},
  {"type": "fill", "question": "Photosynthesis produces _____ and oxygen.", "difficulty": "hard", "correct_text": "glucose", "explanation": "C6H12O6."}
]}`

func topicConfig(count int) model.QuizConfig {
	return model.QuizConfig{
		Source:        model.ContentSource{Kind: model.SourceTopic, Topic: "Photosynthesis"},
		QuestionCount: count,
		QuestionTypes: model.QuestionTypes,
		Difficulty:    model.DifficultyMixed,
	}
}

// fakeServer mimics the two OpenAI endpoints the client uses.
func fakeServer(t *testing.T, status int, content string) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			_, _ = io.WriteString(w, `{"object":"list","data":[{"id":"test-model","object":"model"}]}`)
		case "/v1/chat/completions":
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			for _, m := range req.Messages {
				prompts = append(prompts, m.Content)
			}
			if status != http.StatusOK {
				w.WriteHeader(status)
				_, _ = io.WriteString(w, `{"error":{"message":"failure","type":"server_error"}}`)
				return
			}
			body, _ := json.Marshal(map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"created": 1,
				"model":   "test-model",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]string{"role": "assistant", "content": content},
					"finish_reason": "stop",
				}},
				"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
			})
			_, _ = w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL+"/v1", "test-key", "test-model")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGenerate(t *testing.T) {
	srv, prompts := fakeServer(t, http.StatusOK, threeQuestions)
	c := newTestClient(t, srv)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	quiz, err := c.Generate(context.Background(), topicConfig(3))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(quiz.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(quiz.Questions))
	}
	if quiz.Questions[1].Type != model.TypeTrueFalse {
		t.Errorf("type not normalized: %q", quiz.Questions[1].Type)
	}
	if quiz.Questions[0].Difficulty != model.DifficultyMedium {
		t.Errorf("difficulty not normalized: %q", quiz.Questions[0].Difficulty)
	}
	if quiz.Title != "Photosynthesis Quiz" {
		t.Errorf("Title = %q", quiz.Title)
	}
	if len(*prompts) != 2 || !strings.Contains((*prompts)[1], "Topic: Photosynthesis") {
		t.Errorf("unexpected prompts sent: %q", *prompts)
	}
}

func TestGenerateTooFewQuestions(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusOK, threeQuestions)
	c := newTestClient(t, srv)

	_, err := c.Generate(context.Background(), topicConfig(5))
	if !model.IsRetryable(err) {
		t.Fatalf("Generate = %v, want retryable GenerationError", err)
	}
}

func TestGenerateAPIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeServer(t, tt.status, "")
			c := newTestClient(t, srv)
			_, err := c.Generate(context.Background(), topicConfig(1))
			var ge *model.GenerationError
			if !errors.As(err, &ge) {
				t.Fatalf("Generate = %v, want GenerationError", err)
			}
			if ge.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", ge.Retryable, tt.retryable)
			}
		})
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	srv, prompts := fakeServer(t, http.StatusOK, threeQuestions)
	c := newTestClient(t, srv)
	cfg := topicConfig(3)
	cfg.QuestionTypes = nil
	if _, err := c.Generate(context.Background(), cfg); !model.IsValidation(err) {
		t.Fatalf("Generate = %v, want wrapped ValidationError", err)
	}
	if len(*prompts) != 0 {
		t.Error("invalid config should not reach the API")
	}
}

func TestParseQuestions(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"plain", threeQuestions, 3, false},
		{"fenced", "```json\n" + threeQuestions + "\n```", 3, false},
		{"empty list", `{"questions": []}`, 0, true},
		{"not json", "Sure! Here are your questions.", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := parseQuestions(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseQuestions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(qs) != tt.want {
				t.Errorf("got %d questions, want %d", len(qs), tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if isRetryable(context.Canceled) {
		t.Error("cancellation should not be retried")
	}
	if !isRetryable(errors.New("connection reset")) {
		t.Error("transport errors should be retried")
	}
}
