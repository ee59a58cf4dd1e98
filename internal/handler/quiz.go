package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizgen/internal/editor"
	"github.com/pavelanni/quizgen/internal/export"
	"github.com/pavelanni/quizgen/internal/handler/views"
	appI18n "github.com/pavelanni/quizgen/internal/i18n"
	"github.com/pavelanni/quizgen/internal/model"
	"github.com/pavelanni/quizgen/internal/store"
)

// session makes sure the client has an edit session for the quiz in the URL,
// opening one from the store for saved quizzes. reopened is set when the
// session had to be loaded from the store.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (client, quizID string, reopened bool, err error) {
	client, err = h.clientID(w, r)
	if err != nil {
		return "", "", false, err
	}
	quizID = chi.URLParam(r, "quizID")
	if h.edits.Has(client, quizID) {
		return client, quizID, false, nil
	}
	quiz, err := h.store.GetQuiz(r.Context(), quizID)
	if err != nil {
		return "", "", false, err
	}
	return client, quizID, h.edits.OpenIfAbsent(client, quiz), nil
}

// snapshot captures what the preview page needs from s.
func snapshot(s *editor.Session) views.PreviewData {
	data := views.PreviewData{Quiz: s.Quiz(), Modified: s.Modified()}
	if id, ok := s.ActiveEditID(); ok {
		if d, ok := s.Draft(id); ok {
			data.ActiveID = id
			data.Draft = &d
		}
	}
	return data
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	client, quizID, _, err := h.session(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var data views.PreviewData
	ok, _ := h.edits.With(client, quizID, func(s *editor.Session) error {
		data = snapshot(s)
		return nil
	})
	if !ok {
		h.renderError(w, r, store.ErrNotFound)
		return
	}
	if r.URL.Query().Get("saved") == "1" {
		data.Notice = appI18n.T(r.Context(), "QuizSaved")
	}
	h.render(w, r, http.StatusOK, views.PreviewPage(data))
}

// mutate runs fn on the client's session. A failure re-renders the preview
// with the error and the session state after fn; success redirects back to
// the preview, optionally scrolled to anchor. If the session expired, fn is
// not run and the saved quiz is shown instead.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, anchor string, fn func(s *editor.Session) error) {
	client, quizID, reopened, err := h.session(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var data views.PreviewData
	ok, err := h.edits.With(client, quizID, func(s *editor.Session) error {
		if reopened {
			data = snapshot(s)
			return errSessionExpired
		}
		ferr := fn(s)
		data = snapshot(s)
		return ferr
	})
	if !ok {
		h.renderError(w, r, store.ErrNotFound)
		return
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("quiz update failed", "quiz_id", quizID, "error", err)
		}
		data.Error = h.message(r, err)
		h.render(w, r, status, views.PreviewPage(data))
		return
	}
	http.Redirect(w, r, h.path("/quiz/"+quizID)+anchor, http.StatusSeeOther)
}

func (h *Handler) handleTitle(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "", func(s *editor.Session) error {
		return s.SetTitle(r.PostFormValue("title"))
	})
}

// handleToggle is the edit/save button of a question. When the question is
// being edited, the submitted form is applied to its draft before saving.
func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "questionID")
	h.mutate(w, r, "#q-"+qid, func(s *editor.Session) error {
		if s.State(qid) == editor.Editing {
			if err := applyDraft(s, qid, r.PostForm); err != nil {
				return err
			}
		}
		return s.StartEdit(qid)
	})
}

func (h *Handler) handleSaveQuestion(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "questionID")
	h.mutate(w, r, "#q-"+qid, func(s *editor.Session) error {
		if err := applyDraft(s, qid, r.PostForm); err != nil {
			return err
		}
		return s.Save(qid)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	qid := chi.URLParam(r, "questionID")
	h.mutate(w, r, "#q-"+qid, func(s *editor.Session) error {
		return s.Cancel(qid)
	})
}

// applyDraft copies the submitted question fields into the draft. Fields
// missing from the form are left unchanged.
func applyDraft(s *editor.Session, qid string, form url.Values) error {
	var ferr error
	err := s.UpdateDraft(qid, func(q *model.Question) {
		if _, ok := form["text"]; ok {
			q.Text = strings.TrimSpace(form.Get("text"))
		}
		if _, ok := form["explanation"]; ok {
			q.Explanation = strings.TrimSpace(form.Get("explanation"))
		}
		if d := form.Get("difficulty"); d != "" {
			q.Difficulty = model.Difficulty(d)
		}
		switch q.Type {
		case model.TypeMultipleChoice:
			for i := range model.OptionCount {
				key := "option_" + strconv.Itoa(i)
				if _, ok := form[key]; !ok {
					continue
				}
				for len(q.Options) <= i {
					q.Options = append(q.Options, "")
				}
				q.Options[i] = strings.TrimSpace(form.Get(key))
			}
			if v := form.Get("correct_option"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					ferr = model.Invalid("correct_option", "invalid option %q", v)
					return
				}
				q.CorrectOption = n
			}
		case model.TypeTrueFalse:
			if v := form.Get("correct_bool"); v != "" {
				b, err := strconv.ParseBool(v)
				if err != nil {
					ferr = model.Invalid("correct_bool", "invalid answer %q", v)
					return
				}
				q.CorrectBool = b
			}
		case model.TypeFillInBlank:
			if _, ok := form["correct_text"]; ok {
				q.CorrectText = strings.TrimSpace(form.Get("correct_text"))
			}
		}
	})
	if err != nil {
		return err
	}
	return ferr
}

// handleSaveQuiz persists the committed quiz. Drafts of a question still
// being edited are not included.
func (h *Handler) handleSaveQuiz(w http.ResponseWriter, r *http.Request) {
	client, quizID, _, err := h.session(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var data views.PreviewData
	ok, err := h.edits.With(client, quizID, func(s *editor.Session) error {
		data = snapshot(s)
		if err := h.store.SaveQuiz(r.Context(), s.Quiz()); err != nil {
			return err
		}
		s.MarkSaved()
		return nil
	})
	if !ok {
		h.renderError(w, r, store.ErrNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to save quiz", "quiz_id", quizID, "error", err)
		data.Error = h.message(r, err)
		h.render(w, r, statusFor(err), views.PreviewPage(data))
		return
	}
	http.Redirect(w, r, h.path("/quiz/"+quizID)+"?saved=1", http.StatusSeeOther)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := model.ExportFormat(chi.URLParam(r, "format"))
	if !format.Valid() {
		h.renderError(w, r, model.Invalid("format", "unknown export format %q", format))
		return
	}

	quiz, err := h.exportSource(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	file, err := export.Render(quiz, format)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	if _, err := w.Write(file.Data); err != nil {
		slog.Error("failed to write export", "quiz_id", quiz.ID, "error", err)
	}
}

// exportSource prefers the client's session, which may hold unsaved changes,
// and falls back to the stored quiz.
func (h *Handler) exportSource(w http.ResponseWriter, r *http.Request) (*model.Quiz, error) {
	client, err := h.clientID(w, r)
	if err != nil {
		return nil, err
	}
	quizID := chi.URLParam(r, "quizID")
	var quiz *model.Quiz
	ok, _ := h.edits.With(client, quizID, func(s *editor.Session) error {
		quiz = s.Quiz()
		return nil
	})
	if ok {
		return quiz, nil
	}
	return h.store.GetQuiz(r.Context(), quizID)
}
