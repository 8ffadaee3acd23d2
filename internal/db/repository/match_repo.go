package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertMatch stores one pairing record.
func (q *Queries) InsertMatch(ctx context.Context, row Match) error {
	const query = `
		INSERT INTO matches (question_id, choice_id, match_id, position)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := q.db.Exec(ctx, query, row.QuestionID, row.ChoiceID, row.MatchID, row.Position); err != nil {
		return fmt.Errorf("insert matches: %w", err)
	}
	return nil
}

// UpdateMatch re-points the pair of an existing match.
func (q *Queries) UpdateMatch(ctx context.Context, row Match) (int64, error) {
	const query = `
		UPDATE matches SET choice_id = $3, position = $4
		WHERE question_id = $1 AND match_id = $2
	`
	tag, err := q.db.Exec(ctx, query, row.QuestionID, row.MatchID, row.ChoiceID, row.Position)
	if err != nil {
		return 0, fmt.Errorf("update matches: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListMatches returns the pair table of a question in pair order.
func (q *Queries) ListMatches(ctx context.Context, questionID uuid.UUID) ([]Match, error) {
	const query = `
		SELECT question_id, choice_id, match_id, position
		FROM matches
		WHERE question_id = $1
		ORDER BY position, match_id
	`
	rows, err := q.db.Query(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.QuestionID, &m.ChoiceID, &m.MatchID, &m.Position); err != nil {
			return nil, fmt.Errorf("scan matches: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMatches removes the whole pair table of a question.
func (q *Queries) DeleteMatches(ctx context.Context, questionID uuid.UUID) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM matches WHERE question_id = $1`, questionID); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	return nil
}

// DeleteMatchesByID removes the pairs of the given match ids.
func (q *Queries) DeleteMatchesByID(ctx context.Context, questionID uuid.UUID, matchIDs []uuid.UUID) error {
	if len(matchIDs) == 0 {
		return nil
	}
	const query = `DELETE FROM matches WHERE question_id = $1 AND match_id = ANY($2::uuid[])`
	if _, err := q.db.Exec(ctx, query, questionID, uuidStrings(matchIDs)); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	return nil
}
