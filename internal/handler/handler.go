package handler

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/pavelanni/quizgen/internal/editor"
	"github.com/pavelanni/quizgen/internal/generate"
	"github.com/pavelanni/quizgen/internal/handler/views"
	appI18n "github.com/pavelanni/quizgen/internal/i18n"
	"github.com/pavelanni/quizgen/internal/model"
	"github.com/pavelanni/quizgen/internal/store"
)

// errSessionExpired is returned when a change targets an edit session that
// was evicted. The quiz is reloaded from the store.
var errSessionExpired = errors.New("edit session expired")

const (
	clientCookieName = "quizgen_client"
	clientMaxAge     = 30 * 24 * 60 * 60
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	gen     generate.Generator
	edits   *editor.Registry
	cookies *sessions.CookieStore
	config  model.AppConfig
}

// New creates a new Handler. Without a configured session key a random one
// is generated, which invalidates client cookies on every restart.
func New(s *store.Store, gen generate.Generator, edits *editor.Registry, cfg model.AppConfig) (*Handler, error) {
	key := cfg.SessionKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session key: %w", err)
		}
		slog.Warn("no session key configured, client cookies will not survive a restart")
	}
	cookies := sessions.NewCookieStore(key)
	cookies.Options = &sessions.Options{
		Path:     cookiePath(cfg.BasePath),
		MaxAge:   clientMaxAge,
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	return &Handler{store: s, gen: gen, edits: edits, cookies: cookies, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(limitBody(model.MaxDocumentBytes + 1<<20))
		r.Use(h.csrfMiddleware)

		r.Get("/", h.handleIndex)
		r.Post("/quiz/generate", h.handleGenerate)
		r.Get("/quiz/{quizID}", h.handlePreview)
		r.Post("/quiz/{quizID}/title", h.handleTitle)
		r.Post("/quiz/{quizID}/questions/{questionID}/toggle", h.handleToggle)
		r.Post("/quiz/{quizID}/questions/{questionID}/save", h.handleSaveQuestion)
		r.Post("/quiz/{quizID}/questions/{questionID}/cancel", h.handleCancel)
		r.Post("/quiz/{quizID}/save", h.handleSaveQuiz)
		r.Post("/quiz/{quizID}/delete", h.handleDeleteQuiz)
		r.Get("/quiz/{quizID}/export/{format}", h.handleExport)
		r.Get("/quizzes", h.handleQuizList)
		r.Post("/quizzes/import", h.handleImport)
	})
}

// BasePathMiddleware makes the configured base path available to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func cookiePath(basePath string) string {
	if basePath == "" {
		return "/"
	}
	return basePath + "/"
}

// clientID identifies the browser that owns a set of edit sessions. The id
// lives in a signed cookie and is issued on first use.
func (h *Handler) clientID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, err := h.cookies.Get(r, clientCookieName)
	if err != nil {
		// Signed with an old key; a fresh session replaces it.
		slog.Debug("discarding client cookie", "error", err)
	}
	if id, ok := sess.Values["client"].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values["client"] = id
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save client cookie: %w", err)
	}
	return id, nil
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.render(w, r, status, views.ErrorPage(h.message(r, err), ""))
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	var ge *model.GenerationError
	switch {
	case model.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrEditInProgress), errors.Is(err, editor.ErrNotEditing), errors.Is(err, errSessionExpired):
		return http.StatusConflict
	case errors.Is(err, editor.ErrUnknownQuestion), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyImported):
		return http.StatusConflict
	case errors.As(err, &ge):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// message turns err into text for the user.
func (h *Handler) message(r *http.Request, err error) string {
	ctx := r.Context()
	var (
		ve *model.ValidationError
		ge *model.GenerationError
	)
	switch {
	case errors.As(err, &ve):
		return appI18n.Td(ctx, "InvalidInput", map[string]any{"Message": ve.Message})
	case errors.Is(err, editor.ErrEditInProgress):
		return appI18n.T(ctx, "EditInProgress")
	case errors.Is(err, errSessionExpired):
		return appI18n.T(ctx, "SessionExpired")
	case errors.Is(err, store.ErrNotFound):
		return appI18n.T(ctx, "QuizNotFound")
	case errors.Is(err, store.ErrAlreadyImported):
		return appI18n.T(ctx, "AlreadyImported")
	case errors.As(err, &ge):
		return appI18n.T(ctx, "GenerationFailed")
	default:
		return err.Error()
	}
}
