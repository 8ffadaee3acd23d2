package question

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

// Service owns the question aggregate: the question row, its overlays, its
// choices and matches, and its category and tag links.
type Service struct {
	store     Store
	tx        Transactor
	validator *FieldValidator
	cache     AggregateCache
	metrics   *Metrics
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// ServiceOptions holds the optional collaborators of a Service.
type ServiceOptions struct {
	Cache   AggregateCache
	Metrics *Metrics
	Clock   func() time.Time
	IDs     func() uuid.UUID
}

// NewService wires the aggregate manager. store serves reads; tx runs every
// write in one transaction.
func NewService(store Store, tx Transactor, opts ServiceOptions, logger zerolog.Logger) *Service {
	s := &Service{
		store:     store,
		tx:        tx,
		validator: NewFieldValidator(),
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logger:    logger.With().Str("component", "question_service").Logger(),
		now:       opts.Clock,
		newID:     opts.IDs,
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.New
	}
	return s
}

// Create validates and stores a new question and returns its owner view.
// Nothing is stored when validation fails.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Question, error) {
	q, err := s.create(ctx, p)
	s.metrics.operation("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("question_id", q.ID.String()).Str("type", p.Type.String()).Msg("question created")
	return q, nil
}

func (s *Service) create(ctx context.Context, p CreateParams) (*Question, error) {
	if err := s.validator.Validate(p.Type, p.Question); err != nil {
		return nil, err
	}

	id := s.newID()
	now := s.now()
	var out *Question
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		if err := st.InsertQuestion(ctx, repository.Question{
			ID:          id,
			Question:    p.Question.Prompt,
			Explanation: p.Question.Explanation,
			Type:        p.Type.String(),
			Answer:      p.Question.Answer,
			CreatedAt:   now,
			CreatedBy:   p.CreatedBy,
		}); err != nil {
			return err
		}
		if err := upsertQuestionOverlay(ctx, st, id, p.Locale, p.Question); err != nil {
			return err
		}

		if p.Type.HasChoices() {
			if err := s.createChoices(ctx, st, id, p.Type, p.Locale, p.Question); err != nil {
				return err
			}
		}

		if err := s.attach(ctx, st, repository.Categories, id, p.Categories, p.CreatedBy, now); err != nil {
			return err
		}
		if err := s.attach(ctx, st, repository.Tags, id, p.Tags, p.CreatedBy, now); err != nil {
			return err
		}

		q, err := load(ctx, st, id, p.Locale)
		out = q
		return err
	})
	if err != nil {
		return nil, storeFailure("create question", err)
	}
	return out, nil
}

func (s *Service) createChoices(ctx context.Context, st Store, id uuid.UUID, t Type, locale localize.Locale, q Question) error {
	choices, _ := Reconcile(nil, withoutIDs(q.Choices), s.newID)
	if err := writeChoices(ctx, st, id, locale, choices); err != nil {
		return err
	}
	if t != TypeMatchTheFollowing {
		return nil
	}

	matches, _ := Reconcile(nil, withoutIDs(q.Matches), s.newID)
	if err := writeChoices(ctx, st, id, locale, matches); err != nil {
		return err
	}
	return syncPairs(ctx, st, id, nil, BuildPairs(choices.Result, matches.Result))
}

// attach links the question to every label, creating labels that do not
// exist yet and retrying the link once.
func (s *Service) attach(ctx context.Context, st Store, t repository.Taxonomy, questionID uuid.UUID, labels []string, user string, at time.Time) error {
	for _, label := range distinct(labels) {
		n, err := st.AttachLabel(ctx, t, questionID, label)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if err := st.EnsureLabel(ctx, t, repository.Label{
			ID:        label,
			Title:     label,
			CreatedAt: at,
			CreatedBy: user,
		}); err != nil {
			return fmt.Errorf("create %s %q: %w", t.Name, label, err)
		}
		if _, err := st.AttachLabel(ctx, t, questionID, label); err != nil {
			return err
		}
		s.logger.Info().Str(t.Name, label).Msg("label created on first use")
	}
	return nil
}

// Read returns the question resolved for locale as seen by viewer, or nil
// when it does not exist.
func (s *Service) Read(ctx context.Context, viewer Viewer, id uuid.UUID, locale localize.Locale) (*Question, error) {
	cached, err := s.cache.Get(ctx, id, locale)
	if err != nil {
		s.logger.Warn().Err(err).Str("question_id", id.String()).Msg("question cache read failed")
	}
	s.metrics.cacheLookup(cached != nil)
	if cached != nil {
		cached.redact(viewer)
		return cached, nil
	}

	generation, genErr := s.cache.Generation(ctx, id)
	if genErr != nil {
		s.logger.Warn().Err(genErr).Str("question_id", id.String()).Msg("question cache generation read failed")
	}
	q, err := load(ctx, s.store, id, locale)
	if err != nil {
		return nil, storeFailure("read question", err)
	}
	if q == nil {
		return nil, nil
	}
	if genErr == nil {
		if err := s.cache.Set(ctx, *q, locale, generation); err != nil {
			s.logger.Warn().Err(err).Str("question_id", id.String()).Msg("question cache write failed")
		}
	}
	q.redact(viewer)
	return q, nil
}

// Update rewrites a question of type t. The stored row must match both id
// and type, otherwise ErrNotFound is returned. Under a locale the base text
// stays as it is and the translation is written to the overlay.
func (s *Service) Update(ctx context.Context, t Type, id uuid.UUID, locale localize.Locale, modifiedBy string, payload Question) (*Question, error) {
	q, err := s.update(ctx, t, id, locale, modifiedBy, payload)
	s.metrics.operation("update", err)
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("question_id", id.String()).Str("locale", locale.String()).Msg("question updated")
	return q, nil
}

func (s *Service) update(ctx context.Context, t Type, id uuid.UUID, locale localize.Locale, modifiedBy string, payload Question) (*Question, error) {
	if err := s.validator.Validate(t, payload); err != nil {
		return nil, err
	}

	var out *Question
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		arg := repository.UpdateQuestionParams{
			ID:          id,
			Type:        t.String(),
			Question:    payload.Prompt,
			Explanation: payload.Explanation,
			Answer:      payload.Answer,
			ModifiedAt:  s.now(),
			ModifiedBy:  pgtype.Text{String: modifiedBy, Valid: modifiedBy != ""},
		}
		update := st.UpdateQuestion
		if locale.IsSet() {
			update = st.UpdateQuestionAnswer
		}
		n, err := update(ctx, arg)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := upsertQuestionOverlay(ctx, st, id, locale, payload); err != nil {
			return err
		}

		if t.HasChoices() {
			if err := s.updateChoices(ctx, st, id, t, locale, payload); err != nil {
				return err
			}
		}

		q, err := load(ctx, st, id, locale)
		out = q
		return err
	})
	if err != nil {
		return nil, storeFailure("update question", err)
	}
	return out, nil
}

func (s *Service) updateChoices(ctx context.Context, st Store, id uuid.UUID, t Type, locale localize.Locale, payload Question) error {
	rows, err := st.ListChoices(ctx, id, locale)
	if err != nil {
		return err
	}

	if t != TypeMatchTheFollowing {
		current := make([]Choice, 0, len(rows))
		for _, r := range rows {
			current = append(current, choiceFromRow(r))
		}
		plan, bad := Reconcile(current, payload.Choices, s.newID)
		if err := violations(bad); err != nil {
			return err
		}
		if err := writeChoices(ctx, st, id, locale, plan); err != nil {
			return err
		}
		return removeChoices(ctx, st, id, plan.Deletes)
	}

	pairs, err := st.ListMatches(ctx, id)
	if err != nil {
		return err
	}
	currentChoices, currentMatches := Partition(rows, pairs)

	choices, badChoices := Reconcile(currentChoices, payload.Choices, s.newID)
	matches, badMatches := Reconcile(currentMatches, payload.Matches, s.newID)
	if err := violations(append(badChoices, badMatches...)); err != nil {
		return err
	}
	if len(matches.Result) < len(choices.Result) {
		return violations([]string{MsgNotEnoughMatch})
	}

	if err := writeChoices(ctx, st, id, locale, choices); err != nil {
		return err
	}
	if err := writeChoices(ctx, st, id, locale, matches); err != nil {
		return err
	}
	if err := syncPairs(ctx, st, id, pairs, BuildPairs(choices.Result, matches.Result)); err != nil {
		return err
	}
	return removeChoices(ctx, st, id, append(choices.Deletes, matches.Deletes...))
}

// Delete removes the question of type t with every dependent row. Deleting
// an id that does not exist is a no-op; an existing id of another type is
// ErrNotFound.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, t Type) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		row, err := st.GetQuestion(ctx, id, localize.None)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if row.Type != t.String() {
			return ErrNotFound
		}

		if t == TypeMatchTheFollowing {
			if err := st.DeleteMatches(ctx, id); err != nil {
				return err
			}
		}
		if err := st.DeleteQuestionChoices(ctx, id); err != nil {
			return err
		}
		if err := st.DeleteQuestionLocalized(ctx, id); err != nil {
			return err
		}
		if err := st.DetachLabels(ctx, repository.Categories, id); err != nil {
			return err
		}
		if err := st.DetachLabels(ctx, repository.Tags, id); err != nil {
			return err
		}
		_, err = st.DeleteQuestion(ctx, id, t.String())
		return err
	})
	err = storeFailure("delete question", err)
	s.metrics.operation("delete", err)
	s.invalidate(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info().Str("question_id", id.String()).Msg("question deleted")
	return nil
}

// List returns the questions linked to every one of categories, resolved for
// locale as seen by viewer. An empty filter lists every question.
func (s *Service) List(ctx context.Context, viewer Viewer, locale localize.Locale, categories []string) ([]Question, error) {
	rows, err := s.store.ListQuestions(ctx, categories, locale)
	if err != nil {
		return nil, storeFailure("list questions", err)
	}
	out := make([]Question, 0, len(rows))
	for _, row := range rows {
		q, err := fill(ctx, s.store, row, locale)
		if err != nil {
			return nil, storeFailure("list questions", err)
		}
		q.redact(viewer)
		out = append(out, q)
	}
	return out, nil
}

// DeleteAll wipes every question. Categories and tags are kept.
func (s *Service) DeleteAll(ctx context.Context) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		return st.DeleteAllQuestions(ctx)
	})
	if err != nil {
		return storeFailure("delete all questions", err)
	}
	if err := s.cache.Flush(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("question cache flush failed")
	}
	s.logger.Warn().Msg("all questions deleted")
	return nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("question_id", id.String()).Msg("question cache invalidation failed")
	}
}

// load reads the full aggregate, or nil when the question does not exist.
func load(ctx context.Context, st Store, id uuid.UUID, locale localize.Locale) (*Question, error) {
	row, err := st.GetQuestion(ctx, id, locale)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	q, err := fill(ctx, st, row, locale)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func fill(ctx context.Context, st Store, row repository.Question, locale localize.Locale) (Question, error) {
	q := Question{
		ID:          row.ID,
		Type:        Type(row.Type),
		Prompt:      row.Question,
		Explanation: row.Explanation,
		Answer:      row.Answer,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		ModifiedBy:  row.ModifiedBy.String,
	}
	if row.ModifiedAt.Valid {
		at := row.ModifiedAt.Time
		q.ModifiedAt = &at
	}
	if !q.Type.HasChoices() {
		return q, nil
	}

	rows, err := st.ListChoices(ctx, row.ID, locale)
	if err != nil {
		return Question{}, err
	}
	if q.Type != TypeMatchTheFollowing {
		q.Choices = make([]Choice, 0, len(rows))
		for _, r := range rows {
			q.Choices = append(q.Choices, choiceFromRow(r))
		}
		return q, nil
	}

	pairs, err := st.ListMatches(ctx, row.ID)
	if err != nil {
		return Question{}, err
	}
	q.Choices, q.Matches = Partition(rows, pairs)
	return q, nil
}

func upsertQuestionOverlay(ctx context.Context, st Store, id uuid.UUID, locale localize.Locale, q Question) error {
	if !locale.IsSet() {
		return nil
	}
	return st.UpsertQuestionLocalized(ctx, repository.QuestionLocalized{
		QuestionID:  id,
		Locale:      locale.String(),
		Question:    q.Prompt,
		Explanation: q.Explanation,
	})
}

func withoutIDs(choices []Choice) []Choice {
	out := make([]Choice, len(choices))
	for i, c := range choices {
		c.ID = uuid.NullUUID{}
		out[i] = c
	}
	return out
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
