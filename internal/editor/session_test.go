package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/quizgen/internal/model"
)

func testQuiz() *model.Quiz {
	return &model.Quiz{
		ID:    "quiz-1",
		Title: "Photosynthesis Quiz",
		Questions: []model.Question{
			{
				ID:            "1",
				Type:          model.TypeMultipleChoice,
				Text:          "What is the primary function of photosynthesis in plants?",
				Difficulty:    model.DifficultyMedium,
				Options:       []string{"Absorb water", "Convert sunlight", "Release oxygen", "Grow taller"},
				CorrectOption: 1,
				Explanation:   "Light energy becomes chemical energy.",
			},
			{
				ID:          "2",
				Type:        model.TypeTrueFalse,
				Text:        "Chlorophyll captures light energy.",
				Difficulty:  model.DifficultyEasy,
				CorrectBool: true,
			},
			{
				ID:          "3",
				Type:        model.TypeFillInBlank,
				Text:        "6CO2 + 6H2O + light → _____ + 6O2",
				Difficulty:  model.DifficultyHard,
				CorrectText: "C6H12O6 (glucose)",
			},
		},
	}
}

func countEditing(s *Session) int {
	n := 0
	for _, q := range s.quiz.Questions {
		if s.State(q.ID) == Editing {
			n++
		}
	}
	return n
}

func TestInitialState(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)
	for _, q := range s.Quiz().Questions {
		if s.State(q.ID) != Viewing {
			t.Errorf("question %s starts in %v", q.ID, s.State(q.ID))
		}
	}
	if _, ok := s.ActiveEditID(); ok {
		t.Error("new session should have no active edit")
	}
	if s.Modified() {
		t.Error("new session should not be modified")
	}
}

func TestEditOptionAndSave(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)

	if err := s.StartEdit("1"); err != nil {
		t.Fatalf("StartEdit: %v", err)
	}
	if id, ok := s.ActiveEditID(); !ok || id != "1" {
		t.Fatalf("ActiveEditID() = %q, %v", id, ok)
	}
	err := s.UpdateDraft("1", func(q *model.Question) {
		q.Options[1] = "Updated option"
		q.ID = "hijacked"
		q.Type = model.TypeTrueFalse
	})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}

	// Committed quiz is untouched until save.
	if got := s.Quiz().Questions[0].Options[1]; got != "Convert sunlight" {
		t.Errorf("option changed before save: %q", got)
	}

	if err := s.Save("1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	q := s.Quiz().Questions[0]
	if q.Options[1] != "Updated option" {
		t.Errorf("options[1] = %q, want 'Updated option'", q.Options[1])
	}
	if q.CorrectOption != 1 {
		t.Errorf("CorrectOption = %d, want 1", q.CorrectOption)
	}
	if q.ID != "1" || q.Type != model.TypeMultipleChoice {
		t.Errorf("draft changed identity: id=%q type=%q", q.ID, q.Type)
	}
	if s.State("1") != Viewing {
		t.Error("question should be Viewing after save")
	}
	if _, ok := s.ActiveEditID(); ok {
		t.Error("active edit should be cleared after save")
	}
	if !s.Modified() {
		t.Error("session should be modified after save")
	}
	s.MarkSaved()
	if s.Modified() {
		t.Error("MarkSaved should clear modified")
	}
}

func TestToggleActsAsSave(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)
	_ = s.StartEdit("2")
	_ = s.UpdateDraft("2", func(q *model.Question) { q.CorrectBool = false })
	if err := s.StartEdit("2"); err != nil {
		t.Fatalf("second StartEdit: %v", err)
	}
	if s.State("2") != Viewing {
		t.Error("toggle should return question to Viewing")
	}
	if s.Quiz().Questions[1].CorrectBool {
		t.Error("toggle should commit the draft")
	}
}

func TestSingleActiveEdit(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		s := New(testQuiz(), model.EditConflictReject)
		_ = s.StartEdit("1")
		err := s.StartEdit("2")
		if !errors.Is(err, ErrEditInProgress) {
			t.Fatalf("StartEdit(2) = %v, want ErrEditInProgress", err)
		}
		if countEditing(s) != 1 || s.State("1") != Editing {
			t.Error("rejected edit should leave question 1 editing")
		}
	})

	t.Run("commit", func(t *testing.T) {
		s := New(testQuiz(), model.EditConflictCommit)
		_ = s.StartEdit("1")
		_ = s.UpdateDraft("1", func(q *model.Question) { q.Text = "Edited" })
		if err := s.StartEdit("3"); err != nil {
			t.Fatalf("StartEdit(3): %v", err)
		}
		if countEditing(s) != 1 || s.State("3") != Editing {
			t.Error("exactly question 3 should be editing")
		}
		if s.Quiz().Questions[0].Text != "Edited" {
			t.Error("prior draft should be committed")
		}
	})

	t.Run("commit fails on invalid prior draft", func(t *testing.T) {
		s := New(testQuiz(), model.EditConflictCommit)
		_ = s.StartEdit("1")
		_ = s.UpdateDraft("1", func(q *model.Question) { q.Text = "" })
		if err := s.StartEdit("2"); !model.IsValidation(err) {
			t.Fatalf("StartEdit(2) = %v, want ValidationError", err)
		}
		if s.State("1") != Editing || s.State("2") != Viewing {
			t.Error("failed commit should not move the edit")
		}
	})
}

func TestSaveValidates(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		mutate func(q *model.Question)
	}{
		{"empty text", "2", func(q *model.Question) { q.Text = "" }},
		{"empty option", "1", func(q *model.Question) { q.Options[3] = " " }},
		{"missing option", "1", func(q *model.Question) { q.Options = q.Options[:3] }},
		{"index out of range", "1", func(q *model.Question) { q.CorrectOption = 7 }},
		{"empty blank answer", "3", func(q *model.Question) { q.CorrectText = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(testQuiz(), model.EditConflictReject)
			_ = s.StartEdit(tt.id)
			_ = s.UpdateDraft(tt.id, tt.mutate)
			if err := s.Save(tt.id); !model.IsValidation(err) {
				t.Fatalf("Save = %v, want ValidationError", err)
			}
			if s.State(tt.id) != Editing {
				t.Error("invalid save should keep the question editing")
			}
			if _, ok := s.Draft(tt.id); !ok {
				t.Error("draft should survive a failed save")
			}
		})
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)
	_ = s.StartEdit("3")
	_ = s.UpdateDraft("3", func(q *model.Question) { q.CorrectText = "sugar" })
	if err := s.Cancel("3"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.Quiz().Questions[2].CorrectText != "C6H12O6 (glucose)" {
		t.Error("cancel should not commit the draft")
	}
	if s.Modified() {
		t.Error("cancel should not mark the session modified")
	}
	if err := s.Cancel("3"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("second Cancel = %v, want ErrNotEditing", err)
	}
}

func TestUnknownAndViewingErrors(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)
	if err := s.StartEdit("nope"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("StartEdit(nope) = %v", err)
	}
	if err := s.Save("1"); !errors.Is(err, ErrNotEditing) {
		t.Errorf("Save on viewing = %v", err)
	}
	if err := s.UpdateDraft("1", func(*model.Question) {}); !errors.Is(err, ErrNotEditing) {
		t.Errorf("UpdateDraft on viewing = %v", err)
	}
}

func TestSetTitle(t *testing.T) {
	s := New(testQuiz(), model.EditConflictReject)
	if err := s.SetTitle("   "); !model.IsValidation(err) {
		t.Errorf("SetTitle(blank) = %v", err)
	}
	if err := s.SetTitle("  Plant Biology "); err != nil {
		t.Fatalf("SetTitle: %v", err)
	}
	if s.Quiz().Title != "Plant Biology" {
		t.Errorf("Title = %q", s.Quiz().Title)
	}
	if !s.Modified() {
		t.Error("title change should mark modified")
	}
}

func TestSessionCopiesInput(t *testing.T) {
	q := testQuiz()
	s := New(q, model.EditConflictReject)
	_ = s.StartEdit("1")
	_ = s.UpdateDraft("1", func(qq *model.Question) { qq.Options[0] = "changed" })
	_ = s.Save("1")
	if q.Questions[0].Options[0] != "Absorb water" {
		t.Error("session mutated the caller's quiz")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(model.EditConflictReject, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Open("alice", testQuiz())
	r.Open("bob", testQuiz())
	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	ok, err := r.With("alice", "quiz-1", func(s *Session) error { return s.StartEdit("1") })
	if !ok || err != nil {
		t.Fatalf("With(alice) = %v, %v", ok, err)
	}
	// Bob's session is independent of Alice's.
	_, err = r.With("bob", "quiz-1", func(s *Session) error { return s.StartEdit("2") })
	if err != nil {
		t.Fatalf("With(bob): %v", err)
	}

	if ok, _ := r.With("carol", "quiz-1", func(*Session) error { return nil }); ok {
		t.Error("With should report missing session")
	}

	now = now.Add(30 * time.Second)
	_, _ = r.With("bob", "quiz-1", func(*Session) error { return nil })
	now = now.Add(45 * time.Second)
	if n := r.Evict(); n != 1 {
		t.Errorf("Evict() = %d, want 1", n)
	}
	if r.Has("alice", "quiz-1") || !r.Has("bob", "quiz-1") {
		t.Error("only the idle session should be evicted")
	}

	r.Close("bob", "quiz-1")
	if r.Len() != 0 {
		t.Errorf("Len() after Close = %d", r.Len())
	}
}

func TestRegistryOpenIfAbsent(t *testing.T) {
	r := NewRegistry(model.EditConflictReject, 0)
	if !r.OpenIfAbsent("alice", testQuiz()) {
		t.Fatal("first OpenIfAbsent should create a session")
	}
	_, _ = r.With("alice", "quiz-1", func(s *Session) error { return s.SetTitle("Renamed") })

	if r.OpenIfAbsent("alice", testQuiz()) {
		t.Error("second OpenIfAbsent should keep the existing session")
	}
	var title string
	_, _ = r.With("alice", "quiz-1", func(s *Session) error {
		title = s.Quiz().Title
		return nil
	})
	if title != "Renamed" {
		t.Errorf("title = %q, existing session was replaced", title)
	}
}
