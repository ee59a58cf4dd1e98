package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/quizgen/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a quiz does not exist.
var ErrNotFound = errors.New("quiz not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quizzes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT NOT NULL,
		quiz_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		text TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		options TEXT NOT NULL DEFAULT '[]',
		correct_option INTEGER NOT NULL DEFAULT 0,
		correct_bool INTEGER NOT NULL DEFAULT 0,
		correct_text TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (quiz_id, id),
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS quiz_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveQuiz inserts or replaces a quiz and all of its questions. Failures are
// reported as *model.SaveError.
func (s *Store) SaveQuiz(ctx context.Context, q *model.Quiz) error {
	if err := q.Validate(); err != nil {
		return &model.SaveError{QuizID: q.ID, Err: err}
	}
	if err := s.saveQuiz(ctx, q); err != nil {
		return &model.SaveError{QuizID: q.ID, Err: err}
	}
	return nil
}

func (s *Store) saveQuiz(ctx context.Context, q *model.Quiz) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveQuizTx(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

// saveQuizTx replaces q and its questions inside tx.
func saveQuizTx(ctx context.Context, tx *sql.Tx, q *model.Quiz) error {
	cfg, err := json.Marshal(q.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now

	_, err = tx.ExecContext(ctx,
		`INSERT INTO quizzes (id, title, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, config = excluded.config, updated_at = excluded.updated_at`,
		q.ID, q.Title, string(cfg), q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert quiz: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = ?`, q.ID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}
	for i, qq := range q.Questions {
		opts, err := json.Marshal(qq.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (id, quiz_id, position, type, text, difficulty, explanation, options, correct_option, correct_bool, correct_text)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			qq.ID, q.ID, i, qq.Type, qq.Text, qq.Difficulty, qq.Explanation, string(opts), qq.CorrectOption, qq.CorrectBool, qq.CorrectText,
		)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	return nil
}

// GetQuiz returns a quiz with its questions in display order.
func (s *Store) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	var (
		q   model.Quiz
		cfg string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, config, created_at, updated_at FROM quizzes WHERE id = ?`, id,
	).Scan(&q.ID, &q.Title, &cfg, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &q.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	questions, err := s.getQuestions(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return &q, nil
}

func (s *Store) getQuestions(ctx context.Context, quizID string) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, text, difficulty, explanation, options, correct_option, correct_bool, correct_text
		 FROM questions WHERE quiz_id = ? ORDER BY position`, quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var (
			qq   model.Question
			opts string
		)
		if err := rows.Scan(&qq.ID, &qq.Type, &qq.Text, &qq.Difficulty, &qq.Explanation, &opts, &qq.CorrectOption, &qq.CorrectBool, &qq.CorrectText); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(opts), &qq.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
		questions = append(questions, qq)
	}
	return questions, rows.Err()
}

// ListQuizzes returns a summary of every saved quiz, most recently updated first.
func (s *Store) ListQuizzes(ctx context.Context) ([]model.QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, updated_at, (SELECT COUNT(*) FROM questions WHERE quiz_id = quizzes.id)
		 FROM quizzes ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.QuizSummary
	for rows.Next() {
		var sum model.QuizSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.UpdatedAt, &sum.QuestionCount); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteQuiz removes a quiz and its questions.
func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// QuizCount returns the number of saved quizzes.
func (s *Store) QuizCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&count)
	return count, err
}
