package question

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/db/repository"
	"github.com/gokatarajesh/question-bank/internal/localize"
)

// ChoiceWrite is a choice row the reconciler wants created or updated.
type ChoiceWrite struct {
	ID       uuid.UUID
	Value    string
	IsAnswer bool
	Position int32
}

// Plan is the set of writes that turns a persisted choice list into the
// desired one. Result is the desired list with ids assigned and flags
// defaulted, in desired order.
type Plan struct {
	Creates []ChoiceWrite
	Updates []ChoiceWrite
	Deletes []uuid.UUID
	Result  []Choice
}

// Empty reports whether applying the plan would write nothing.
func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Reconcile compares current with desired without touching either.
// Desired items without id become creates with an id from newID, items with
// an id become updates when anything differs from the persisted row, and
// persisted rows missing from desired become deletes. An id that is not in
// current, or that appears twice, is reported as a violation.
func Reconcile(current, desired []Choice, newID func() uuid.UUID) (Plan, []string) {
	type persisted struct {
		choice   Choice
		position int
	}
	byID := make(map[uuid.UUID]persisted, len(current))
	for i, c := range current {
		if c.ID.Valid {
			byID[c.ID.UUID] = persisted{choice: c, position: i}
		}
	}

	var (
		plan = Plan{Result: make([]Choice, 0, len(desired))}
		bad  []string
		seen = make(map[uuid.UUID]struct{}, len(desired))
	)
	for i, d := range desired {
		w := ChoiceWrite{Value: d.Value, IsAnswer: d.Correct(), Position: int32(i)}

		if !d.ID.Valid {
			w.ID = newID()
			plan.Creates = append(plan.Creates, w)
			plan.Result = append(plan.Result, w.choice())
			continue
		}

		w.ID = d.ID.UUID
		if _, dup := seen[w.ID]; dup {
			bad = append(bad, "Duplicate choice "+w.ID.String())
			continue
		}
		cur, ok := byID[w.ID]
		if !ok {
			bad = append(bad, "Unknown choice "+w.ID.String())
			continue
		}
		seen[w.ID] = struct{}{}

		if cur.choice.Value != w.Value || cur.choice.Correct() != w.IsAnswer || cur.position != i {
			plan.Updates = append(plan.Updates, w)
		}
		plan.Result = append(plan.Result, w.choice())
	}

	for _, c := range current {
		if !c.ID.Valid {
			continue
		}
		if _, keep := seen[c.ID.UUID]; !keep {
			plan.Deletes = append(plan.Deletes, c.ID.UUID)
		}
	}
	return plan, bad
}

func (w ChoiceWrite) choice() Choice {
	return Choice{
		ID:       uuid.NullUUID{UUID: w.ID, Valid: true},
		Value:    w.Value,
		IsAnswer: pgtype.Bool{Bool: w.IsAnswer, Valid: true},
	}
}

// writeChoices applies the creates and updates of a plan. Under a locale the
// base value is only set on create; updates go to the overlay.
func writeChoices(ctx context.Context, st Store, questionID uuid.UUID, locale localize.Locale, plan Plan) error {
	for _, w := range plan.Creates {
		if err := st.InsertChoice(ctx, repository.Choice{
			ID:         w.ID,
			QuestionID: questionID,
			Value:      w.Value,
			IsAnswer:   w.IsAnswer,
			Position:   w.Position,
		}); err != nil {
			return err
		}
		if err := upsertChoiceOverlay(ctx, st, locale, w); err != nil {
			return err
		}
	}

	for _, w := range plan.Updates {
		arg := repository.UpdateChoiceParams{
			ID:         w.ID,
			QuestionID: questionID,
			IsAnswer:   w.IsAnswer,
			Position:   w.Position,
		}
		if !locale.IsSet() {
			arg.Value = pgtype.Text{String: w.Value, Valid: true}
		}
		if _, err := st.UpdateChoice(ctx, arg); err != nil {
			return err
		}
		if err := upsertChoiceOverlay(ctx, st, locale, w); err != nil {
			return err
		}
	}
	return nil
}

func upsertChoiceOverlay(ctx context.Context, st Store, locale localize.Locale, w ChoiceWrite) error {
	if !locale.IsSet() {
		return nil
	}
	return st.UpsertChoiceLocalized(ctx, repository.ChoiceLocalized{
		ChoiceID: w.ID,
		Locale:   locale.String(),
		Value:    w.Value,
	})
}

// removeChoices deletes overlays before the rows they point at.
func removeChoices(ctx context.Context, st Store, questionID uuid.UUID, choiceIDs []uuid.UUID) error {
	if len(choiceIDs) == 0 {
		return nil
	}
	if err := st.DeleteChoiceLocalized(ctx, choiceIDs); err != nil {
		return err
	}
	_, err := st.DeleteChoices(ctx, questionID, choiceIDs)
	return err
}
