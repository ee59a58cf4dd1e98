package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/quizgen/internal/handler/views"
	appI18n "github.com/pavelanni/quizgen/internal/i18n"
)

// handleImport loads quizzes from an uploaded JSON export. Uploading the
// same file twice is reported as a conflict instead of creating duplicates.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderQuizList(w, r, http.StatusBadRequest, views.QuizListData{Error: appI18n.Td(r.Context(), "InvalidInput", map[string]any{"Message": "no file uploaded"})})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	quizzes, err := h.store.ImportQuizzes(r.Context(), header.Filename, data)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("import failed", "file", header.Filename, "error", err)
		}
		h.renderQuizList(w, r, status, views.QuizListData{Error: h.message(r, err)})
		return
	}
	http.Redirect(w, r, h.path("/quizzes")+"?imported="+strconv.Itoa(len(quizzes)), http.StatusSeeOther)
}

func (h *Handler) handleQuizList(w http.ResponseWriter, r *http.Request) {
	data := views.QuizListData{}
	if n, err := strconv.Atoi(r.URL.Query().Get("imported")); err == nil {
		data.Notice = appI18n.Tp(r.Context(), "QuizzesImported", n)
	}
	if r.URL.Query().Get("deleted") == "1" {
		data.Notice = appI18n.T(r.Context(), "QuizDeleted")
	}
	h.renderQuizList(w, r, http.StatusOK, data)
}

// handleDeleteQuiz removes a saved quiz and drops the caller's edit session
// for it.
func (h *Handler) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	client, err := h.clientID(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	quizID := chi.URLParam(r, "quizID")
	if err := h.store.DeleteQuiz(r.Context(), quizID); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("delete failed", "quiz_id", quizID, "error", err)
		}
		h.renderQuizList(w, r, status, views.QuizListData{Error: h.message(r, err)})
		return
	}
	h.edits.Close(client, quizID)
	slog.Info("quiz deleted", "quiz_id", quizID)
	http.Redirect(w, r, h.path("/quizzes")+"?deleted=1", http.StatusSeeOther)
}

// renderQuizList fills in the saved quizzes and renders the list page.
func (h *Handler) renderQuizList(w http.ResponseWriter, r *http.Request, status int, data views.QuizListData) {
	quizzes, err := h.store.ListQuizzes(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data.Quizzes = quizzes
	h.render(w, r, status, views.QuizListPage(data))
}
