package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pavelanni/quizgen/internal/model"
)

// ErrAlreadyImported is returned when the same file content was imported
// under the same name before.
var ErrAlreadyImported = errors.New("file already imported")

// ImportQuizzes saves the quizzes in a JSON file, either a single quiz object
// or an array of them. Missing quiz and question ids are generated. Every
// quiz is validated before anything is written, and the quizzes and the
// content hash recorded under name are stored in one transaction. Importing
// identical content again returns ErrAlreadyImported.
func (s *Store) ImportQuizzes(ctx context.Context, name string, data []byte) ([]*model.Quiz, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	stored, err := s.GetImportedFileHash(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check import status: %w", err)
	}
	if stored == hash {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyImported, name)
	}

	quizzes, err := parseQuizzes(data)
	if err != nil {
		return nil, model.Invalid("file", "%s: %v", name, err)
	}
	for i, q := range quizzes {
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		for j := range q.Questions {
			if q.Questions[j].ID == "" {
				q.Questions[j].ID = uuid.NewString()
			}
		}
		if err := q.Validate(); err != nil {
			return nil, model.Invalid("file", "%s: quiz %d: %v", name, i+1, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, q := range quizzes {
		if err := saveQuizTx(ctx, tx, q); err != nil {
			return nil, &model.SaveError{QuizID: q.ID, Err: err}
		}
	}
	if err := setMetadata(ctx, tx, importKey(name), hash); err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	slog.Info("imported quizzes", "file", name, "count", len(quizzes))
	return quizzes, nil
}

func parseQuizzes(data []byte) ([]*model.Quiz, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	var quizzes []*model.Quiz
	if data[0] == '[' {
		if err := json.Unmarshal(data, &quizzes); err != nil {
			return nil, err
		}
	} else {
		var q model.Quiz
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, &q)
	}
	if len(quizzes) == 0 {
		return nil, errors.New("no quizzes in file")
	}
	return quizzes, nil
}
