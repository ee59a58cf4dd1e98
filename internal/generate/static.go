package generate

import (
	"context"

	"github.com/pavelanni/quizgen/internal/model"
)

// SampleQuestions is the built-in Photosynthesis quiz, one question per type.
var SampleQuestions = []model.Question{
	{
		Type:          model.TypeMultipleChoice,
		Text:          "What is the primary function of photosynthesis in plants?",
		Difficulty:    model.DifficultyMedium,
		Options:       []string{"To absorb water from soil", "To convert sunlight into chemical energy", "To release oxygen into atmosphere", "To grow taller and stronger"},
		CorrectOption: 1,
		Explanation:   "Photosynthesis converts light energy into chemical energy (glucose) that plants use for growth and metabolism.",
	},
	{
		Type:        model.TypeTrueFalse,
		Text:        "Chlorophyll is the green pigment responsible for capturing light energy in photosynthesis.",
		Difficulty:  model.DifficultyEasy,
		CorrectBool: true,
		Explanation: "Chlorophyll is indeed the primary pigment that absorbs light energy, giving plants their green color.",
	},
	{
		Type:        model.TypeFillInBlank,
		Text:        "The chemical equation for photosynthesis is: 6CO₂ + 6H₂O + light energy → _____ + 6O₂",
		Difficulty:  model.DifficultyHard,
		CorrectText: "C₆H₁₂O₆ (glucose)",
		Explanation: "The products of photosynthesis are glucose (C₆H₁₂O₆) and oxygen (O₂).",
	},
}

// Static is a generator that never calls out: it cycles through a fixed
// question set, keeping only the requested types, until the requested count
// is reached. It backs demos and tests.
type Static struct {
	Questions []model.Question
}

// NewStatic returns a Static generator over SampleQuestions.
func NewStatic() *Static {
	return &Static{Questions: SampleQuestions}
}

// Generate implements Generator.
func (s *Static) Generate(ctx context.Context, cfg model.QuizConfig) (*model.Quiz, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.GenerationError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &model.GenerationError{Err: err}
	}
	var pool []model.Question
	for _, q := range s.Questions {
		for _, t := range cfg.QuestionTypes {
			if q.Type == t {
				pool = append(pool, q)
			}
		}
	}
	if len(pool) == 0 {
		return Assemble(cfg, nil)
	}
	out := make([]model.Question, 0, cfg.QuestionCount)
	for i := 0; len(out) < cfg.QuestionCount; i++ {
		out = append(out, pool[i%len(pool)].Clone())
	}
	return Assemble(cfg, out)
}
