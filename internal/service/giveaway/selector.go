package giveaway

import (
	"context"

	"github.com/rs/zerolog"

	apperr "giveaway-raffle/internal/common/errors"
	"giveaway-raffle/internal/common/logger"
	dg "giveaway-raffle/internal/domain/giveaway"
	"giveaway-raffle/internal/utils/random"
)

// Winner is a drawn entry together with the member it resolved to.
type Winner struct {
	Entry  dg.Entry   `json:"entry"`
	Member *dg.Member `json:"member"`
}

// Selector draws winners uniformly without replacement.
type Selector struct {
	ledger  dg.Ledger
	members dg.MembershipProvider
	pick    func(n int) (int, error)
	log     zerolog.Logger
}

func NewSelector(ledger dg.Ledger, members dg.MembershipProvider) *Selector {
	return &Selector{
		ledger:  ledger,
		members: members,
		pick:    random.Intn,
		log:     logger.Component("winner_selector"),
	}
}

// entryPool supports O(1) removal of an arbitrary entry.
type entryPool struct {
	entries map[int64]dg.Entry
	ids     []int64
	pos     map[int64]int
}

func newEntryPool(entries []dg.Entry) *entryPool {
	p := &entryPool{
		entries: make(map[int64]dg.Entry, len(entries)),
		ids:     make([]int64, 0, len(entries)),
		pos:     make(map[int64]int, len(entries)),
	}
	for _, e := range entries {
		if e.Winner {
			continue
		}
		p.entries[e.ID] = e
		p.pos[e.ID] = len(p.ids)
		p.ids = append(p.ids, e.ID)
	}
	return p
}

func (p *entryPool) Len() int { return len(p.ids) }

// take removes and returns the entry at index i.
func (p *entryPool) take(i int) dg.Entry {
	id := p.ids[i]
	last := len(p.ids) - 1
	p.ids[i] = p.ids[last]
	p.pos[p.ids[i]] = i
	p.ids = p.ids[:last]
	delete(p.pos, id)
	e := p.entries[id]
	delete(p.entries, id)
	return e
}

// Draw marks up to winnerCount entries of g as winners. Entries whose participant is no
// longer a member are deleted and do not use up a winner slot. Fewer winners than
// requested is not an error. A ledger failure stops the draw; the winners marked so far
// are returned with it.
func (s *Selector) Draw(ctx context.Context, g *dg.Giveaway, winnerCount int) ([]Winner, error) {
	if winnerCount <= 0 {
		return nil, nil
	}
	entries, err := s.ledger.ListEntries(ctx, g.ID)
	if err != nil {
		return nil, apperr.NewDatabaseError("list entries", err)
	}
	pool := newEntryPool(entries)
	log := s.log.With().Str("giveaway_id", g.ID).Logger()

	winners := make([]Winner, 0, min(winnerCount, pool.Len()))
	for len(winners) < winnerCount && pool.Len() > 0 {
		i, err := s.pick(pool.Len())
		if err != nil {
			return winners, apperr.Wrap(err, apperr.ErrCodeInternal, "random source failed")
		}
		entry := pool.take(i)

		member, err := s.members.ResolveMember(ctx, entry.ParticipantID)
		if err != nil {
			log.Warn().Err(err).Str("participant_id", entry.ParticipantID).Msg("Skipping entry, member lookup failed")
			continue
		}
		if member == nil {
			if err := s.ledger.DeleteEntry(ctx, entry.ID); err != nil {
				return winners, apperr.NewDatabaseError("delete entry", err)
			}
			log.Info().Str("participant_id", entry.ParticipantID).Msg("Removed entry of departed member")
			continue
		}
		if err := s.ledger.MarkWinner(ctx, entry.ID); err != nil {
			return winners, apperr.NewDatabaseError("mark winner", err)
		}
		entry.Winner = true
		winners = append(winners, Winner{Entry: entry, Member: member})
	}
	return winners, nil
}
