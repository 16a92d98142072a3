package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	dg "giveaway-raffle/internal/domain/giveaway"
)

const giveawayColumns = `id, name, winner_count, ongoing, ends_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGiveaway(row rowScanner) (*dg.Giveaway, error) {
	var (
		g                    dg.Giveaway
		endsAt               sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&g.ID, &g.Name, &g.WinnerCount, &g.Ongoing, &endsAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g.EndsAt = fromNullMillis(endsAt)
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return &g, nil
}

// GetOngoingGiveaway returns the single ongoing giveaway or nil.
func (s *Store) GetOngoingGiveaway(ctx context.Context) (*dg.Giveaway, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+giveawayColumns+` FROM giveaways WHERE ongoing = ? LIMIT 1`), true)
	g, err := scanGiveaway(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (s *Store) GetGiveaway(ctx context.Context, id string) (*dg.Giveaway, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+giveawayColumns+` FROM giveaways WHERE id = ?`), id)
	g, err := scanGiveaway(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// CreateGiveaway inserts g. CreatedAt and UpdatedAt are filled when zero.
func (s *Store) CreateGiveaway(ctx context.Context, g *dg.Giveaway) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = g.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO giveaways (`+giveawayColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		g.ID, g.Name, g.WinnerCount, g.Ongoing, nullMillis(g.EndsAt), toMillis(g.CreatedAt), toMillis(g.UpdatedAt),
	)
	return err
}

func (s *Store) SetOngoing(ctx context.Context, id string, ongoing bool) error {
	return s.updateGiveaway(ctx, `UPDATE giveaways SET ongoing = ?, updated_at = ? WHERE id = ?`, ongoing, toMillis(s.now()), id)
}

func (s *Store) SetWinnerCount(ctx context.Context, id string, winnerCount int) error {
	return s.updateGiveaway(ctx, `UPDATE giveaways SET winner_count = ?, updated_at = ? WHERE id = ?`, winnerCount, toMillis(s.now()), id)
}

func (s *Store) updateGiveaway(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("giveaway %v not found", args[len(args)-1])
	}
	return nil
}

// AddAllowedRoles stores the acceptable roles of a giveaway; duplicates are ignored.
func (s *Store) AddAllowedRoles(ctx context.Context, giveawayID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	query := s.q(`INSERT INTO allowed_roles (role_id, giveaway_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	for _, roleID := range roleIDs {
		if _, err = tx.ExecContext(ctx, query, roleID, giveawayID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) ListAllowedRoles(ctx context.Context, giveawayID string) ([]dg.AllowedRole, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT role_id, giveaway_id FROM allowed_roles WHERE giveaway_id = ? ORDER BY role_id`), giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []dg.AllowedRole
	for rows.Next() {
		var r dg.AllowedRole
		if err := rows.Scan(&r.RoleID, &r.GiveawayID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAllowedRole(ctx context.Context, giveawayID, roleID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`DELETE FROM allowed_roles WHERE giveaway_id = ? AND role_id = ?`), giveawayID, roleID)
	return err
}
