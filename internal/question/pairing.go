package question

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/question-bank/internal/db/repository"
)

// Pair links a choice to the match that answers it. A pair without a choice
// is a distractor.
type Pair struct {
	ChoiceID uuid.NullUUID
	MatchID  uuid.UUID
}

// BuildPairs pairs choices and matches by position. Matches past the last
// choice become distractors. Both lists must carry ids and there must be at
// least as many matches as choices.
func BuildPairs(choices, matches []Choice) []Pair {
	out := make([]Pair, 0, len(matches))
	for i, m := range matches {
		p := Pair{MatchID: m.ID.UUID}
		if i < len(choices) {
			p.ChoiceID = choices[i].ID
		}
		out = append(out, p)
	}
	return out
}

// Partition rebuilds the choice and match lists from stored rows, in pair
// order. Rows that no pair mentions are left out of both lists.
func Partition(rows []repository.Choice, pairs []repository.Match) (choices, matches []Choice) {
	byID := make(map[uuid.UUID]repository.Choice, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	for _, p := range pairs {
		m, ok := byID[p.MatchID]
		if !ok {
			continue
		}
		if p.ChoiceID.Valid {
			c, ok := byID[p.ChoiceID.UUID]
			if !ok {
				continue
			}
			choices = append(choices, choiceFromRow(c))
		}
		matches = append(matches, choiceFromRow(m))
	}
	return choices, matches
}

// syncPairs rewrites the pair table so it holds exactly desired, in order.
// Pairs whose match is gone are deleted, surviving ones are updated in place
// when they changed and new ones are inserted.
func syncPairs(ctx context.Context, st Store, questionID uuid.UUID, current []repository.Match, desired []Pair) error {
	keep := make(map[uuid.UUID]struct{}, len(desired))
	for _, p := range desired {
		keep[p.MatchID] = struct{}{}
	}
	existing := make(map[uuid.UUID]repository.Match, len(current))
	var stale []uuid.UUID
	for _, m := range current {
		if _, ok := keep[m.MatchID]; !ok {
			stale = append(stale, m.MatchID)
			continue
		}
		existing[m.MatchID] = m
	}
	if err := st.DeleteMatchesByID(ctx, questionID, stale); err != nil {
		return err
	}

	for i, p := range desired {
		row := repository.Match{
			QuestionID: questionID,
			ChoiceID:   p.ChoiceID,
			MatchID:    p.MatchID,
			Position:   int32(i),
		}
		cur, ok := existing[p.MatchID]
		if !ok {
			if err := st.InsertMatch(ctx, row); err != nil {
				return err
			}
			continue
		}
		if cur.ChoiceID == row.ChoiceID && cur.Position == row.Position {
			continue
		}
		if _, err := st.UpdateMatch(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func choiceFromRow(r repository.Choice) Choice {
	return Choice{
		ID:       uuid.NullUUID{UUID: r.ID, Valid: true},
		Value:    r.Value,
		IsAnswer: pgtype.Bool{Bool: r.IsAnswer, Valid: true},
	}
}
