package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/quizgen/internal/builder"
	"github.com/pavelanni/quizgen/internal/handler/views"
	"github.com/pavelanni/quizgen/internal/model"
)

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	b := builder.New(h.config.PastedTextPolicy)
	if topic := r.URL.Query().Get("topic"); topic != "" {
		_ = b.UpdateContentSource(model.SourceTopic, topic)
	}
	h.render(w, r, http.StatusOK, views.CreatePage(views.CreateData{Builder: b}))
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	b := builder.New(h.config.PastedTextPolicy)
	if err := h.fillBuilder(b, r); err != nil {
		h.renderCreate(w, r, b, err)
		return
	}
	if !b.IsSubmittable() {
		h.renderCreate(w, r, b, model.Invalid("source", "add content and select at least one question type"))
		return
	}
	cfg, err := b.Build()
	if err != nil {
		h.renderCreate(w, r, b, err)
		return
	}

	client, err := h.clientID(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	slog.Info("generating quiz", "source", cfg.Source.Kind, "count", cfg.QuestionCount, "types", cfg.QuestionTypes, "difficulty", cfg.Difficulty)
	quiz, err := h.gen.Generate(r.Context(), cfg)
	if err != nil {
		slog.Error("quiz generation failed", "error", err)
		h.renderCreate(w, r, b, err)
		return
	}

	h.edits.Open(client, quiz)
	http.Redirect(w, r, h.path("/quiz/"+quiz.ID), http.StatusSeeOther)
}

// renderCreate shows the create form again with err. The retry button is
// only offered when the generator reported a transient failure.
func (h *Handler) renderCreate(w http.ResponseWriter, r *http.Request, b *builder.Builder, err error) {
	var ge *model.GenerationError
	if !model.IsValidation(err) && !errors.As(err, &ge) {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, statusFor(err), views.CreatePage(views.CreateData{
		Builder: b,
		Error:   h.message(r, err),
		Retry:   model.IsRetryable(err),
	}))
}

// fillBuilder applies the submitted create form to b. Settings are applied
// before the content source so a rejected source still keeps them.
func (h *Handler) fillBuilder(b *builder.Builder, r *http.Request) error {
	form := r.PostForm

	if v := form.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.Invalid("count", "question count must be a number")
		}
		b.SetQuestionCount(n)
	}
	types := form["types"]
	for _, t := range model.QuestionTypes {
		enabled := false
		for _, v := range types {
			if v == string(t) {
				enabled = true
			}
		}
		if err := b.ToggleQuestionType(t, enabled); err != nil {
			return err
		}
	}
	if d := form.Get("difficulty"); d != "" {
		if err := b.SetDifficulty(model.Difficulty(d)); err != nil {
			return err
		}
	}

	kind := model.SourceKind(form.Get("source"))
	switch kind {
	case "", model.SourceTopic:
		return b.UpdateContentSource(model.SourceTopic, strings.TrimSpace(form.Get("topic")))
	case model.SourceText:
		return b.UpdateContentSource(model.SourceText, form.Get("text"))
	case model.SourceDocument:
		doc, err := readDocument(r)
		if err != nil {
			return err
		}
		return b.UpdateDocument(doc)
	default:
		return model.Invalid("source", "unknown content source %q", kind)
	}
}

// readDocument loads the uploaded document. One byte past the limit is read
// so oversized files are reported by the builder.
func readDocument(r *http.Request) (*model.Document, error) {
	file, header, err := r.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, model.Invalid("document", "no document provided")
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, model.MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &model.Document{
		Name:        header.Filename,
		ContentType: contentType(header, data),
		Data:        data,
	}, nil
}

func contentType(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return http.DetectContentType(data)
}

