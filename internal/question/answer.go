package question

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/localize"
)

type questionReader interface {
	Read(ctx context.Context, viewer Viewer, id uuid.UUID, locale localize.Locale) (*Question, error)
}

// EvaluatorOptions tunes answer grading.
type EvaluatorOptions struct {
	// StrictMatching makes MATCH_THE_FOLLOWING require every paired id to be
	// submitted. By default any subset of paired ids is accepted.
	StrictMatching bool
	Metrics        *Metrics
}

// Evaluator grades submitted answers against the owner view of a question.
type Evaluator struct {
	questions questionReader
	opts      EvaluatorOptions
	logger    zerolog.Logger
}

func NewEvaluator(questions questionReader, opts EvaluatorOptions, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		questions: questions,
		opts:      opts,
		logger:    logger.With().Str("component", "answer_evaluator").Logger(),
	}
}

// Evaluate reports whether answer is correct for the question. Choice answers
// are choice ids, comma separated when more than one is expected. Unknown
// questions and free-text questions are never correct.
func (e *Evaluator) Evaluate(ctx context.Context, id uuid.UUID, answer string) (bool, error) {
	q, err := e.questions.Read(ctx, System, id, localize.None)
	if err != nil {
		return false, err
	}
	if q == nil {
		e.logger.Debug().Str("question_id", id.String()).Msg("answer for unknown question")
		return false, nil
	}

	var correct bool
	switch q.Type {
	case TypeChooseTheBest:
		correct = chooseTheBest(q.Choices, answer)
	case TypeMultiChoice:
		correct = multiChoice(q.Choices, answer)
	case TypeMatchTheFollowing:
		correct = matchTheFollowing(q.Choices, q.Matches, answer, e.opts.StrictMatching)
	}
	e.opts.Metrics.evaluation(q.Type, correct)
	return correct, nil
}

func chooseTheBest(choices []Choice, answer string) bool {
	for _, c := range choices {
		if c.Correct() {
			return c.ID.UUID.String() == strings.TrimSpace(answer)
		}
	}
	return false
}

func multiChoice(choices []Choice, answer string) bool {
	want := make(map[string]struct{})
	for _, c := range choices {
		if c.Correct() {
			want[c.ID.UUID.String()] = struct{}{}
		}
	}
	if len(want) == 0 {
		return false
	}
	return sameSet(want, splitIDs(answer))
}

// matchTheFollowing accepts the answer when every submitted id belongs to a
// pair; strict also requires every paired id to be submitted.
func matchTheFollowing(choices, matches []Choice, answer string, strict bool) bool {
	n := min(len(choices), len(matches))
	paired := make(map[string]struct{}, 2*n)
	for i := 0; i < n; i++ {
		paired[choices[i].ID.UUID.String()] = struct{}{}
		paired[matches[i].ID.UUID.String()] = struct{}{}
	}
	if len(paired) == 0 {
		return false
	}

	submitted := splitIDs(answer)
	if len(submitted) == 0 {
		return false
	}
	if strict {
		return sameSet(paired, submitted)
	}
	for id := range submitted {
		if _, ok := paired[id]; !ok {
			return false
		}
	}
	return true
}

func splitIDs(answer string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.Split(answer, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

func sameSet(want, got map[string]struct{}) bool {
	if len(want) != len(got) {
		return false
	}
	for id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}
