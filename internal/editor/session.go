// Package editor implements the review/edit workflow of a generated quiz.
//
// Every question is either Viewing or Editing. An Editing question owns a
// draft copy of its fields; the draft is committed on Save and dropped on
// Cancel. At most one question per session is Editing at any time.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/quizgen/internal/model"
)

// State is the edit state of a single question.
type State int

const (
	Viewing State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

var (
	// ErrEditInProgress is returned when an edit starts while another
	// question is Editing and the session rejects conflicting edits.
	ErrEditInProgress = errors.New("another question is being edited")
	// ErrUnknownQuestion is returned for ids not present in the quiz.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrNotEditing is returned when a draft operation targets a Viewing question.
	ErrNotEditing = errors.New("question is not being edited")
)

// Session holds one quiz under review. It is not safe for concurrent use;
// see Registry for sharing sessions between requests.
type Session struct {
	quiz     *model.Quiz
	drafts   map[string]*model.Question
	active   string
	policy   model.EditConflictPolicy
	modified bool
}

// New opens a session over a copy of quiz with every question Viewing.
func New(quiz *model.Quiz, policy model.EditConflictPolicy) *Session {
	if policy != model.EditConflictCommit {
		policy = model.EditConflictReject
	}
	return &Session{
		quiz:   quiz.Clone(),
		drafts: make(map[string]*model.Question),
		policy: policy,
	}
}

// Quiz returns a copy of the committed quiz. Drafts are not included.
func (s *Session) Quiz() *model.Quiz {
	return s.quiz.Clone()
}

// QuizID returns the id of the quiz under review.
func (s *Session) QuizID() string { return s.quiz.ID }

// ActiveEditID returns the id of the Editing question, if any.
func (s *Session) ActiveEditID() (string, bool) {
	return s.active, s.active != ""
}

// State returns the edit state of the question with the given id.
func (s *Session) State(id string) State {
	if _, ok := s.drafts[id]; ok {
		return Editing
	}
	return Viewing
}

// Draft returns a copy of the draft of an Editing question.
func (s *Session) Draft(id string) (model.Question, bool) {
	d, ok := s.drafts[id]
	if !ok {
		return model.Question{}, false
	}
	return d.Clone(), true
}

// Modified reports whether committed changes exist that have not been
// acknowledged with MarkSaved.
func (s *Session) Modified() bool { return s.modified }

// MarkSaved records that the committed quiz has been persisted.
func (s *Session) MarkSaved() { s.modified = false }

// StartEdit moves a Viewing question to Editing. Calling it on the question
// that is already Editing saves that question instead, matching the single
// edit/save toggle of the preview page. If a different question is Editing,
// the session either rejects the call with ErrEditInProgress or commits the
// prior draft first, depending on its conflict policy.
func (s *Session) StartEdit(id string) error {
	idx := s.quiz.QuestionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if s.active == id {
		return s.Save(id)
	}
	if s.active != "" {
		if s.policy == model.EditConflictReject {
			return fmt.Errorf("%w: %s", ErrEditInProgress, s.active)
		}
		if err := s.Save(s.active); err != nil {
			return fmt.Errorf("commit %s before editing %s: %w", s.active, id, err)
		}
	}
	d := s.quiz.Questions[idx].Clone()
	s.drafts[id] = &d
	s.active = id
	return nil
}

// UpdateDraft applies fn to the draft of an Editing question. The draft's id
// and type cannot be changed.
func (s *Session) UpdateDraft(id string, fn func(q *model.Question)) error {
	d, ok := s.drafts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, id)
	}
	qid, typ := d.ID, d.Type
	fn(d)
	d.ID, d.Type = qid, typ
	return nil
}

// Save validates the draft of an Editing question, commits it and returns the
// question to Viewing. On validation failure the question stays Editing with
// its draft intact.
func (s *Session) Save(id string) error {
	d, ok := s.drafts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, id)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	idx := s.quiz.QuestionIndex(id)
	s.quiz.Questions[idx] = d.Clone()
	s.modified = true
	s.finish(id)
	return nil
}

// Cancel drops the draft of an Editing question without committing it.
func (s *Session) Cancel(id string) error {
	if _, ok := s.drafts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotEditing, id)
	}
	s.finish(id)
	return nil
}

// SetTitle replaces the quiz title.
func (s *Session) SetTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Invalid("title", "title is required")
	}
	if title != s.quiz.Title {
		s.quiz.Title = title
		s.modified = true
	}
	return nil
}

func (s *Session) finish(id string) {
	delete(s.drafts, id)
	if s.active == id {
		s.active = ""
	}
}
