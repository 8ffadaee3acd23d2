package question

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

var errForeignKey = errors.New("violates foreign key constraint")

type overlayKey struct {
	id     uuid.UUID
	locale string
}

type memState struct {
	questions        map[uuid.UUID]repository.Question
	questionOverlays map[overlayKey]repository.QuestionLocalized
	choices          map[uuid.UUID]repository.Choice
	choiceOverlays   map[overlayKey]string
	matches          map[uuid.UUID][]repository.Match
	labels           map[string]map[string]repository.Label
	links            map[string]map[uuid.UUID]map[string]struct{}
}

func newMemState() memState {
	return memState{
		questions:        map[uuid.UUID]repository.Question{},
		questionOverlays: map[overlayKey]repository.QuestionLocalized{},
		choices:          map[uuid.UUID]repository.Choice{},
		choiceOverlays:   map[overlayKey]string{},
		matches:          map[uuid.UUID][]repository.Match{},
		labels:           map[string]map[string]repository.Label{},
		links:            map[string]map[uuid.UUID]map[string]struct{}{},
	}
}

func (s memState) clone() memState {
	out := newMemState()
	for k, v := range s.questions {
		out.questions[k] = v
	}
	for k, v := range s.questionOverlays {
		out.questionOverlays[k] = v
	}
	for k, v := range s.choices {
		out.choices[k] = v
	}
	for k, v := range s.choiceOverlays {
		out.choiceOverlays[k] = v
	}
	for k, v := range s.matches {
		out.matches[k] = append([]repository.Match(nil), v...)
	}
	for tax, labels := range s.labels {
		out.labels[tax] = map[string]repository.Label{}
		for k, v := range labels {
			out.labels[tax][k] = v
		}
	}
	for tax, byQuestion := range s.links {
		out.links[tax] = map[uuid.UUID]map[string]struct{}{}
		for qid, set := range byQuestion {
			out.links[tax][qid] = map[string]struct{}{}
			for k := range set {
				out.links[tax][qid][k] = struct{}{}
			}
		}
	}
	return out
}

// memStore is an in-memory Store with the referential checks of the schema.
// WithinTx restores the previous state when fn fails.
type memStore struct {
	state  memState
	calls  map[string]int
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), calls: map[string]int{}, failOn: map[string]error{}}
}

var (
	_ Store      = (*memStore)(nil)
	_ Transactor = (*memStore)(nil)
)

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	snapshot := m.state.clone()
	if err := fn(ctx, m); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *memStore) call(op string) error {
	m.calls[op]++
	return m.failOn[op]
}

// writes sums the calls that change choice, overlay or pair rows.
func (m *memStore) writes() int {
	n := 0
	for _, op := range []string{
		"InsertChoice", "UpdateChoice", "UpsertChoiceLocalized", "DeleteChoiceLocalized", "DeleteChoices",
		"InsertMatch", "UpdateMatch", "DeleteMatchesByID",
	} {
		n += m.calls[op]
	}
	return n
}

func (m *memStore) resetCalls() {
	m.calls = map[string]int{}
}

func (m *memStore) InsertQuestion(_ context.Context, row repository.Question) error {
	if err := m.call("InsertQuestion"); err != nil {
		return err
	}
	if _, ok := m.state.questions[row.ID]; ok {
		return fmt.Errorf("duplicate question %s", row.ID)
	}
	m.state.questions[row.ID] = row
	return nil
}

func (m *memStore) UpdateQuestion(_ context.Context, arg repository.UpdateQuestionParams) (int64, error) {
	if err := m.call("UpdateQuestion"); err != nil {
		return 0, err
	}
	q, ok := m.state.questions[arg.ID]
	if !ok || q.Type != arg.Type {
		return 0, nil
	}
	q.Question, q.Explanation, q.Answer = arg.Question, arg.Explanation, arg.Answer
	q.ModifiedAt = pgtype.Timestamptz{Time: arg.ModifiedAt, Valid: true}
	q.ModifiedBy = arg.ModifiedBy
	m.state.questions[arg.ID] = q
	return 1, nil
}

func (m *memStore) UpdateQuestionAnswer(_ context.Context, arg repository.UpdateQuestionParams) (int64, error) {
	if err := m.call("UpdateQuestionAnswer"); err != nil {
		return 0, err
	}
	q, ok := m.state.questions[arg.ID]
	if !ok || q.Type != arg.Type {
		return 0, nil
	}
	q.Answer = arg.Answer
	q.ModifiedAt = pgtype.Timestamptz{Time: arg.ModifiedAt, Valid: true}
	q.ModifiedBy = arg.ModifiedBy
	m.state.questions[arg.ID] = q
	return 1, nil
}

func (m *memStore) UpsertQuestionLocalized(_ context.Context, row repository.QuestionLocalized) error {
	if err := m.call("UpsertQuestionLocalized"); err != nil {
		return err
	}
	if _, ok := m.state.questions[row.QuestionID]; !ok {
		return errForeignKey
	}
	m.state.questionOverlays[overlayKey{row.QuestionID, row.Locale}] = row
	return nil
}

func (m *memStore) resolveQuestion(q repository.Question, locale localize.Locale) repository.Question {
	var overlays []localize.Overlay[repository.QuestionLocalized]
	if o, ok := m.state.questionOverlays[overlayKey{q.ID, locale.String()}]; ok {
		overlays = append(overlays, localize.Overlay[repository.QuestionLocalized]{Locale: locale, Value: o})
	}
	text := localize.Resolve(repository.QuestionLocalized{Question: q.Question, Explanation: q.Explanation}, locale, overlays...)
	q.Question, q.Explanation = text.Question, text.Explanation
	return q
}

func (m *memStore) GetQuestion(_ context.Context, id uuid.UUID, locale localize.Locale) (repository.Question, error) {
	if err := m.call("GetQuestion"); err != nil {
		return repository.Question{}, err
	}
	q, ok := m.state.questions[id]
	if !ok {
		return repository.Question{}, repository.ErrNotFound
	}
	return m.resolveQuestion(q, locale), nil
}

func (m *memStore) ListQuestions(_ context.Context, categories []string, locale localize.Locale) ([]repository.Question, error) {
	if err := m.call("ListQuestions"); err != nil {
		return nil, err
	}
	var out []repository.Question
	for _, q := range m.state.questions {
		linked := m.state.links[repository.Categories.Name][q.ID]
		all := true
		for _, c := range categories {
			if _, ok := linked[c]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, m.resolveQuestion(q, locale))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memStore) DeleteQuestionLocalized(_ context.Context, questionID uuid.UUID) error {
	if err := m.call("DeleteQuestionLocalized"); err != nil {
		return err
	}
	for k := range m.state.questionOverlays {
		if k.id == questionID {
			delete(m.state.questionOverlays, k)
		}
	}
	return nil
}

func (m *memStore) DeleteQuestion(_ context.Context, id uuid.UUID, questionType string) (int64, error) {
	if err := m.call("DeleteQuestion"); err != nil {
		return 0, err
	}
	q, ok := m.state.questions[id]
	if !ok || q.Type != questionType {
		return 0, nil
	}
	for k := range m.state.questionOverlays {
		if k.id == id {
			return 0, errForeignKey
		}
	}
	for _, c := range m.state.choices {
		if c.QuestionID == id {
			return 0, errForeignKey
		}
	}
	if len(m.state.matches[id]) > 0 {
		return 0, errForeignKey
	}
	for _, byQuestion := range m.state.links {
		if len(byQuestion[id]) > 0 {
			return 0, errForeignKey
		}
	}
	delete(m.state.questions, id)
	return 1, nil
}

func (m *memStore) DeleteAllQuestions(_ context.Context) error {
	if err := m.call("DeleteAllQuestions"); err != nil {
		return err
	}
	labels := m.state.labels
	m.state = newMemState()
	m.state.labels = labels
	return nil
}

func (m *memStore) InsertChoice(_ context.Context, row repository.Choice) error {
	if err := m.call("InsertChoice"); err != nil {
		return err
	}
	if _, ok := m.state.questions[row.QuestionID]; !ok {
		return errForeignKey
	}
	if _, ok := m.state.choices[row.ID]; ok {
		return fmt.Errorf("duplicate choice %s", row.ID)
	}
	m.state.choices[row.ID] = row
	return nil
}

func (m *memStore) UpdateChoice(_ context.Context, arg repository.UpdateChoiceParams) (int64, error) {
	if err := m.call("UpdateChoice"); err != nil {
		return 0, err
	}
	c, ok := m.state.choices[arg.ID]
	if !ok || c.QuestionID != arg.QuestionID {
		return 0, nil
	}
	if arg.Value.Valid {
		c.Value = arg.Value.String
	}
	c.IsAnswer, c.Position = arg.IsAnswer, arg.Position
	m.state.choices[arg.ID] = c
	return 1, nil
}

func (m *memStore) UpsertChoiceLocalized(_ context.Context, row repository.ChoiceLocalized) error {
	if err := m.call("UpsertChoiceLocalized"); err != nil {
		return err
	}
	if _, ok := m.state.choices[row.ChoiceID]; !ok {
		return errForeignKey
	}
	m.state.choiceOverlays[overlayKey{row.ChoiceID, row.Locale}] = row.Value
	return nil
}

func (m *memStore) ListChoices(_ context.Context, questionID uuid.UUID, locale localize.Locale) ([]repository.Choice, error) {
	if err := m.call("ListChoices"); err != nil {
		return nil, err
	}
	var out []repository.Choice
	for _, c := range m.state.choices {
		if c.QuestionID != questionID {
			continue
		}
		var overlays []localize.Overlay[string]
		if v, ok := m.state.choiceOverlays[overlayKey{c.ID, locale.String()}]; ok {
			overlays = append(overlays, localize.Overlay[string]{Locale: locale, Value: v})
		}
		c.Value = localize.Resolve(c.Value, locale, overlays...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *memStore) DeleteChoiceLocalized(_ context.Context, choiceIDs []uuid.UUID) error {
	if err := m.call("DeleteChoiceLocalized"); err != nil {
		return err
	}
	for _, id := range choiceIDs {
		for k := range m.state.choiceOverlays {
			if k.id == id {
				delete(m.state.choiceOverlays, k)
			}
		}
	}
	return nil
}

func (m *memStore) referenced(choiceID uuid.UUID) bool {
	for k := range m.state.choiceOverlays {
		if k.id == choiceID {
			return true
		}
	}
	for _, pairs := range m.state.matches {
		for _, p := range pairs {
			if p.MatchID == choiceID || (p.ChoiceID.Valid && p.ChoiceID.UUID == choiceID) {
				return true
			}
		}
	}
	return false
}

func (m *memStore) DeleteChoices(_ context.Context, questionID uuid.UUID, choiceIDs []uuid.UUID) (int64, error) {
	if err := m.call("DeleteChoices"); err != nil {
		return 0, err
	}
	var n int64
	for _, id := range choiceIDs {
		c, ok := m.state.choices[id]
		if !ok || c.QuestionID != questionID {
			continue
		}
		if m.referenced(id) {
			return 0, errForeignKey
		}
		delete(m.state.choices, id)
		n++
	}
	return n, nil
}

func (m *memStore) DeleteQuestionChoices(_ context.Context, questionID uuid.UUID) error {
	if err := m.call("DeleteQuestionChoices"); err != nil {
		return err
	}
	for id, c := range m.state.choices {
		if c.QuestionID != questionID {
			continue
		}
		for k := range m.state.choiceOverlays {
			if k.id == id {
				delete(m.state.choiceOverlays, k)
			}
		}
	}
	for id, c := range m.state.choices {
		if c.QuestionID != questionID {
			continue
		}
		if m.referenced(id) {
			return errForeignKey
		}
		delete(m.state.choices, id)
	}
	return nil
}

func (m *memStore) InsertMatch(_ context.Context, row repository.Match) error {
	if err := m.call("InsertMatch"); err != nil {
		return err
	}
	if _, ok := m.state.choices[row.MatchID]; !ok {
		return errForeignKey
	}
	if row.ChoiceID.Valid {
		if _, ok := m.state.choices[row.ChoiceID.UUID]; !ok {
			return errForeignKey
		}
	}
	for _, p := range m.state.matches[row.QuestionID] {
		if p.MatchID == row.MatchID {
			return fmt.Errorf("duplicate pair for match %s", row.MatchID)
		}
	}
	m.state.matches[row.QuestionID] = append(m.state.matches[row.QuestionID], row)
	return nil
}

func (m *memStore) UpdateMatch(_ context.Context, row repository.Match) (int64, error) {
	if err := m.call("UpdateMatch"); err != nil {
		return 0, err
	}
	if row.ChoiceID.Valid {
		if _, ok := m.state.choices[row.ChoiceID.UUID]; !ok {
			return 0, errForeignKey
		}
	}
	pairs := m.state.matches[row.QuestionID]
	for i, p := range pairs {
		if p.MatchID == row.MatchID {
			pairs[i] = row
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) ListMatches(_ context.Context, questionID uuid.UUID) ([]repository.Match, error) {
	if err := m.call("ListMatches"); err != nil {
		return nil, err
	}
	out := append([]repository.Match(nil), m.state.matches[questionID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memStore) DeleteMatches(_ context.Context, questionID uuid.UUID) error {
	if err := m.call("DeleteMatches"); err != nil {
		return err
	}
	delete(m.state.matches, questionID)
	return nil
}

func (m *memStore) DeleteMatchesByID(_ context.Context, questionID uuid.UUID, matchIDs []uuid.UUID) error {
	if len(matchIDs) == 0 {
		return nil
	}
	if err := m.call("DeleteMatchesByID"); err != nil {
		return err
	}
	drop := map[uuid.UUID]bool{}
	for _, id := range matchIDs {
		drop[id] = true
	}
	var keep []repository.Match
	for _, p := range m.state.matches[questionID] {
		if !drop[p.MatchID] {
			keep = append(keep, p)
		}
	}
	m.state.matches[questionID] = keep
	return nil
}

func (m *memStore) EnsureLabel(_ context.Context, t repository.Taxonomy, row repository.Label) error {
	if err := m.call("EnsureLabel"); err != nil {
		return err
	}
	if m.state.labels[t.Name] == nil {
		m.state.labels[t.Name] = map[string]repository.Label{}
	}
	if _, ok := m.state.labels[t.Name][row.ID]; !ok {
		m.state.labels[t.Name][row.ID] = row
	}
	return nil
}

func (m *memStore) AttachLabel(_ context.Context, t repository.Taxonomy, questionID uuid.UUID, labelID string) (int64, error) {
	if err := m.call("AttachLabel"); err != nil {
		return 0, err
	}
	if _, ok := m.state.labels[t.Name][labelID]; !ok {
		return 0, nil
	}
	if m.state.links[t.Name] == nil {
		m.state.links[t.Name] = map[uuid.UUID]map[string]struct{}{}
	}
	if m.state.links[t.Name][questionID] == nil {
		m.state.links[t.Name][questionID] = map[string]struct{}{}
	}
	if _, ok := m.state.links[t.Name][questionID][labelID]; ok {
		return 0, nil
	}
	m.state.links[t.Name][questionID][labelID] = struct{}{}
	return 1, nil
}

func (m *memStore) DetachLabels(_ context.Context, t repository.Taxonomy, questionID uuid.UUID) error {
	if err := m.call("DetachLabels"); err != nil {
		return err
	}
	delete(m.state.links[t.Name], questionID)
	return nil
}

func (m *memStore) addLabel(t repository.Taxonomy, id string) {
	if m.state.labels[t.Name] == nil {
		m.state.labels[t.Name] = map[string]repository.Label{}
	}
	m.state.labels[t.Name][id] = repository.Label{ID: id, Title: id, CreatedAt: time.Now(), CreatedBy: "tom"}
}
