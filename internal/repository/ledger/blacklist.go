package ledger

import (
	"context"
	"database/sql"
	"errors"

	dg "giveaway-raffle/internal/domain/giveaway"
)

func (s *Store) GetBlacklistEntry(ctx context.Context, participantID string) (*dg.BlacklistEntry, error) {
	var (
		b         dg.BlacklistEntry
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT participant_id, created_at FROM blacklist WHERE participant_id = ?`), participantID).
		Scan(&b.ParticipantID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = fromMillis(createdAt)
	return &b, nil
}

func (s *Store) AddBlacklistEntry(ctx context.Context, participantID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`INSERT INTO blacklist (participant_id, created_at) VALUES (?, ?) ON CONFLICT DO NOTHING`),
		participantID, toMillis(s.now()))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) RemoveBlacklistEntry(ctx context.Context, participantID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM blacklist WHERE participant_id = ?`), participantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
