package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizgen/internal/builder"
	"github.com/pavelanni/quizgen/internal/editor"
	"github.com/pavelanni/quizgen/internal/export"
	"github.com/pavelanni/quizgen/internal/generate"
	"github.com/pavelanni/quizgen/internal/handler"
	appI18n "github.com/pavelanni/quizgen/internal/i18n"
	"github.com/pavelanni/quizgen/internal/llm"
	"github.com/pavelanni/quizgen/internal/model"
	"github.com/pavelanni/quizgen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizgen",
		Short: "Generate, review and export quizzes with LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), exportCmd(), importCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `quizgen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addGeneratorFlags registers the flags that select and configure the
// generation backend.
func addGeneratorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("generator", "openai", "Generation backend (openai, static)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Int("retries", 3, "Generation attempts before giving up")
	f.Duration("retry-backoff", time.Second, "Wait before the first retry, doubled each time")
	f.String("text-policy", string(model.PastedTextReject), "Pasted text over the limit (reject, truncate)")
}

func addLogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "quizgen.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on cookies")
	f.String("session-key", "", "Signing key for client cookies (random when empty)")
	f.String("edit-policy", string(model.EditConflictReject), "Starting an edit while another is open (reject, commit)")
	f.Duration("session-ttl", editor.DefaultSessionTTL, "Idle time before an unsaved edit session is dropped")
	addGeneratorFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a quiz without the web UI and print it as JSON",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringP("topic", "t", "", "Topic to generate questions about")
	f.String("text-file", "", "File with text to generate questions from")
	f.String("document", "", "PDF or text document to generate questions from")
	f.IntP("count", "n", model.DefaultQuestionCount, "Number of questions")
	f.StringSlice("types", []string{string(model.TypeMultipleChoice), string(model.TypeTrueFalse)}, "Question types (mcq, tf, fill)")
	f.StringP("difficulty", "d", string(model.DifficultyMixed), "Difficulty (easy, medium, hard, mixed)")
	f.Bool("save", false, "Also save the quiz to the database")
	f.String("db", "quizgen.db", "SQLite database path (with --save)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addGeneratorFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved quizzes as PDF, Word or JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "quizgen.db", "SQLite database path")
	f.String("quiz-id", "", "Quiz to export")
	f.Bool("all", false, "Export every saved quiz as one JSON document")
	f.StringP("format", "f", string(model.FormatPDF), "Export format (pdf, docx, json)")
	f.StringP("output", "o", "", "Output file path (- for stdout, default derived from the title)")
	addLogFlags(cmd)
	cmd.MarkFlagsOneRequired("quiz-id", "all")
	cmd.MarkFlagsMutuallyExclusive("quiz-id", "all")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import quizzes from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().String("db", "quizgen.db", "SQLite database path")
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizgen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizgen")
	v.AddConfigPath("/etc/quizgen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newGenerator builds the configured generation backend wrapped with retries.
// The OpenAI client is returned separately so callers can health-check it.
func newGenerator(v *viper.Viper) (generate.Generator, *llm.Client, error) {
	var (
		gen    generate.Generator
		client *llm.Client
	)
	switch name := strings.ToLower(v.GetString("generator")); name {
	case "static":
		gen = generate.NewStatic()
	case "openai", "":
		c, err := llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
		if err != nil {
			return nil, nil, fmt.Errorf("create LLM client: %w", err)
		}
		gen, client = c, c
	default:
		return nil, nil, fmt.Errorf("unknown generator %q", name)
	}
	return generate.Retry(gen, v.GetInt("retries"), v.GetDuration("retry-backoff")), client, nil
}

func textPolicy(v *viper.Viper) model.PastedTextPolicy {
	p := model.PastedTextPolicy(strings.ToLower(v.GetString("text-policy")))
	if p != model.PastedTextReject && p != model.PastedTextTruncate {
		slog.Warn("invalid text-policy, using reject", "policy", p)
		p = model.PastedTextReject
	}
	return p
}

func editPolicy(v *viper.Viper) model.EditConflictPolicy {
	p := model.EditConflictPolicy(strings.ToLower(v.GetString("edit-policy")))
	if p != model.EditConflictReject && p != model.EditConflictCommit {
		slog.Warn("invalid edit-policy, using reject", "policy", p)
		p = model.EditConflictReject
	}
	return p
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	saved, err := db.QuizCount(cmd.Context())
	if err != nil {
		return fmt.Errorf("read database: %w", err)
	}
	slog.Info("opened database", "path", v.GetString("db"), "quizzes", saved)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gen, llmClient, err := newGenerator(v)
	if err != nil {
		return err
	}
	if llmClient != nil {
		if err := llmClient.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.AppConfig{
		BasePath:           basePath,
		SecureCookies:      v.GetBool("secure-cookies"),
		SessionKey:         []byte(v.GetString("session-key")),
		PastedTextPolicy:   textPolicy(v),
		EditConflictPolicy: editPolicy(v),
	}

	ttl := v.GetDuration("session-ttl")
	edits := editor.NewRegistry(cfg.EditConflictPolicy, ttl)
	go evictLoop(edits, ttl)

	h, err := handler.New(db, gen, edits, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"generator", v.GetString("generator"),
		"model", v.GetString("llm-model"),
		"lang", lang,
		"base_path", basePath,
		"text_policy", cfg.PastedTextPolicy,
		"edit_policy", cfg.EditConflictPolicy,
		"session_ttl", ttl,
	)
	return http.ListenAndServe(addr, r)
}

// evictLoop drops idle edit sessions for the lifetime of the process.
func evictLoop(edits *editor.Registry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = editor.DefaultSessionTTL
	}
	t := time.NewTicker(max(ttl/4, time.Minute))
	defer t.Stop()
	for range t.C {
		edits.Evict()
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	b := builder.New(textPolicy(v))
	if err := configureBuilder(b, v); err != nil {
		return err
	}
	cfg, err := b.Build()
	if err != nil {
		return err
	}

	gen, _, err := newGenerator(v)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	quiz, err := gen.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	slog.Info("generated quiz", "id", quiz.ID, "title", quiz.Title, "questions", len(quiz.Questions))

	if v.GetBool("save") {
		db, err := store.New(v.GetString("db"))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
		slog.Info("saved quiz", "id", quiz.ID, "db", v.GetString("db"))
	}

	data, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeOutput(v.GetString("output"), append(data, '\n'))
}

// configureBuilder applies the generate command flags to b. Exactly one
// content source may be given.
func configureBuilder(b *builder.Builder, v *viper.Viper) error {
	b.SetQuestionCount(v.GetInt("count"))
	selected := make(map[model.QuestionType]bool)
	for _, t := range v.GetStringSlice("types") {
		qt := model.QuestionType(strings.TrimSpace(t))
		if !qt.Valid() {
			return model.Invalid("types", "unknown question type %q", t)
		}
		selected[qt] = true
	}
	for _, t := range model.QuestionTypes {
		if err := b.ToggleQuestionType(t, selected[t]); err != nil {
			return err
		}
	}
	if err := b.SetDifficulty(model.Difficulty(v.GetString("difficulty"))); err != nil {
		return err
	}

	topic, textFile, docPath := v.GetString("topic"), v.GetString("text-file"), v.GetString("document")
	n := 0
	for _, s := range []string{topic, textFile, docPath} {
		if s != "" {
			n++
		}
	}
	if n != 1 {
		return model.Invalid("source", "give exactly one of --topic, --text-file or --document")
	}

	switch {
	case topic != "":
		return b.UpdateContentSource(model.SourceTopic, topic)
	case textFile != "":
		data, err := os.ReadFile(textFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", textFile, err)
		}
		return b.UpdateContentSource(model.SourceText, string(data))
	default:
		data, err := os.ReadFile(docPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", docPath, err)
		}
		return b.UpdateDocument(&model.Document{
			Name:        filepath.Base(docPath),
			ContentType: http.DetectContentType(data),
			Data:        data,
		})
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	format := model.ExportFormat(strings.ToLower(v.GetString("format")))
	if !format.Valid() {
		return fmt.Errorf("unknown export format %q", format)
	}

	if v.GetBool("all") {
		if format != model.FormatJSON {
			return fmt.Errorf("--all only supports json, got %q", format)
		}
		results, err := db.ExportAllQuizzes(ctx)
		if err != nil {
			return fmt.Errorf("export quizzes: %w", err)
		}
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		out := v.GetString("output")
		if out == "" {
			out = "-"
		}
		return writeOutput(out, append(data, '\n'))
	}

	quiz, err := db.GetQuiz(ctx, v.GetString("quiz-id"))
	if err != nil {
		return err
	}
	file, err := export.Render(quiz, format)
	if err != nil {
		return err
	}
	out := v.GetString("output")
	if out == "" {
		out = file.Name
	}
	if err := writeOutput(out, file.Data); err != nil {
		return err
	}
	slog.Info("exported quiz", "id", quiz.ID, "format", format, "output", out, "bytes", len(file.Data))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, err := db.ImportQuizzes(ctx, path, data); err != nil {
			if errors.Is(err, store.ErrAlreadyImported) {
				slog.Info("quiz file unchanged, skipping", "path", path)
				continue
			}
			return fmt.Errorf("import %s: %w", path, err)
		}
	}

	total, err := db.QuizCount(ctx)
	if err != nil {
		return fmt.Errorf("count quizzes: %w", err)
	}
	slog.Info("import finished", "files", len(args), "quizzes", total)
	return nil
}

func writeOutput(path string, data []byte) error {
	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
