package category

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

const uniqueViolation = "23505"

// Service manages one taxonomy: categories or tags.
type Service struct {
	taxonomy repository.Taxonomy
	store    Store
	tx       Transactor
	validate *validator.Validate
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a label service for taxonomy t.
func NewService(t repository.Taxonomy, store Store, tx Transactor, logger zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return &Service{
		taxonomy: t,
		store:    store,
		tx:       tx,
		validate: v,
		logger:   logger.With().Str("component", t.Name+"_service").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Taxonomy returns the kind of label the service manages.
func (s *Service) Taxonomy() repository.Taxonomy {
	return s.taxonomy
}

func (s *Service) check(l Label) error {
	err := s.validate.Struct(l)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Violations = append(verr.Violations, fe.Field()+" is mandatory")
	}
	return verr
}

// Create stores a new label. Under a locale the title is also written as
// that locale's overlay.
func (s *Service) Create(ctx context.Context, locale localize.Locale, createdBy string, l Label) (*Label, error) {
	if err := s.check(l); err != nil {
		return nil, err
	}
	var out *Label
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		if err := st.InsertLabel(ctx, s.taxonomy, repository.Label{
			ID:        l.ID,
			Title:     l.Title,
			CreatedAt: s.now(),
			CreatedBy: createdBy,
		}); err != nil {
			return err
		}
		if err := s.upsertOverlay(ctx, st, l.ID, locale, l.Title); err != nil {
			return err
		}
		created, err := read(ctx, st, s.taxonomy, l.ID, locale)
		out = created
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create %s: %w", s.taxonomy.Name, err)
	}
	s.logger.Info().Str("id", l.ID).Msg("label created")
	return out, nil
}

// Read returns the label resolved for locale, or nil when it does not exist.
func (s *Service) Read(ctx context.Context, id string, locale localize.Locale) (*Label, error) {
	l, err := read(ctx, s.store, s.taxonomy, id, locale)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.taxonomy.Name, err)
	}
	return l, nil
}

// Update rewrites the title of label id. Under a locale only the overlay
// changes and the base title is kept.
func (s *Service) Update(ctx context.Context, id string, locale localize.Locale, modifiedBy string, l Label) (*Label, error) {
	l.ID = id
	if err := s.check(l); err != nil {
		return nil, err
	}
	var out *Label
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		title := pgtype.Text{String: l.Title, Valid: !locale.IsSet()}
		n, err := st.UpdateLabel(ctx, s.taxonomy, id, title, modifiedBy, s.now())
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		if err := s.upsertOverlay(ctx, st, id, locale, l.Title); err != nil {
			return err
		}
		updated, err := read(ctx, st, s.taxonomy, id, locale)
		out = updated
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", s.taxonomy.Name, err)
	}
	return out, nil
}

// List returns every label resolved for locale.
func (s *Service) List(ctx context.Context, locale localize.Locale) ([]Label, error) {
	rows, err := s.store.ListLabels(ctx, s.taxonomy, locale)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.taxonomy.Name, err)
	}
	out := make([]Label, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

// Delete detaches the label from every question and removes it. Deleting an
// unknown id is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	var n int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		var err error
		n, err = st.DeleteLabel(ctx, s.taxonomy, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.taxonomy.Name, err)
	}
	if n > 0 {
		s.logger.Info().Str("id", id).Msg("label deleted")
	}
	return nil
}

// DeleteAll wipes every label of the taxonomy.
func (s *Service) DeleteAll(ctx context.Context) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st Store) error {
		return st.DeleteAllLabels(ctx, s.taxonomy)
	})
	if err != nil {
		return fmt.Errorf("delete all %s: %w", s.taxonomy.Name, err)
	}
	return nil
}

func (s *Service) upsertOverlay(ctx context.Context, st Store, id string, locale localize.Locale, title string) error {
	if !locale.IsSet() {
		return nil
	}
	return st.UpsertLabelLocalized(ctx, s.taxonomy, repository.LabelLocalized{
		LabelID: id,
		Locale:  locale.String(),
		Title:   title,
	})
}

func read(ctx context.Context, st Store, t repository.Taxonomy, id string, locale localize.Locale) (*Label, error) {
	row, err := st.GetLabel(ctx, t, id, locale)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l := fromRow(row)
	return &l, nil
}

func fromRow(r repository.Label) Label {
	l := Label{
		ID:         r.ID,
		Title:      r.Title,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt,
		ModifiedBy: r.ModifiedBy.String,
	}
	if r.ModifiedAt.Valid {
		at := r.ModifiedAt.Time
		l.ModifiedAt = &at
	}
	return l
}
