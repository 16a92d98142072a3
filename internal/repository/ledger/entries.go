package ledger

import (
	"context"
	"database/sql"
	"errors"

	dg "giveaway-raffle/internal/domain/giveaway"
)

const entryColumns = `id, participant_id, giveaway_id, winner, created_at`

func scanEntry(row rowScanner) (*dg.Entry, error) {
	var (
		e         dg.Entry
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.ParticipantID, &e.GiveawayID, &e.Winner, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = fromMillis(createdAt)
	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, participantID, giveawayID string) (*dg.Entry, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+entryColumns+` FROM entries WHERE participant_id = ? AND giveaway_id = ?`), participantID, giveawayID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

// AddEntry inserts a non-winning entry. The unique (participant, giveaway) index turns a
// concurrent duplicate into dg.ErrEntryExists.
func (s *Store) AddEntry(ctx context.Context, participantID, giveawayID string) (*dg.Entry, error) {
	e := &dg.Entry{ParticipantID: participantID, GiveawayID: giveawayID, CreatedAt: s.now()}
	row := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO entries (participant_id, giveaway_id, winner, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING RETURNING id`),
		participantID, giveawayID, false, toMillis(e.CreatedAt),
	)
	if err := row.Scan(&e.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dg.ErrEntryExists
		}
		return nil, err
	}
	e.CreatedAt = fromMillis(toMillis(e.CreatedAt))
	return e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, entryID int64) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM entries WHERE id = ?`), entryID)
	return err
}

func (s *Store) MarkWinner(ctx context.Context, entryID int64) error {
	_, err := s.db.ExecContext(ctx, s.q(`UPDATE entries SET winner = ? WHERE id = ?`), true, entryID)
	return err
}

// ListEntries returns entries ordered by id, which is insertion order.
func (s *Store) ListEntries(ctx context.Context, giveawayID string) ([]dg.Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+entryColumns+` FROM entries WHERE giveaway_id = ? ORDER BY id`), giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dg.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (s *Store) CountEntries(ctx context.Context, giveawayID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.q(`SELECT COUNT(*) FROM entries WHERE giveaway_id = ?`), giveawayID).Scan(&n)
	return n, err
}
