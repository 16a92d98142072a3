package giveaway

import (
	"sync"

	dg "giveaway-raffle/internal/domain/giveaway"
)

// Current is a snapshot of the current-giveaway slot.
type Current struct {
	State    dg.State
	Giveaway *dg.Giveaway
	// AllowedRoles are the giveaway's roles that resolved against the provider.
	AllowedRoles []dg.Role
	// UnresolvedRoleIDs could not be checked because the provider failed; they still count
	// as allowed so a flaky provider never widens eligibility.
	UnresolvedRoleIDs []string
}

// AllowedRoleIDs returns every role id that satisfies the giveaway's role restriction.
func (c Current) AllowedRoleIDs() []string {
	ids := make([]string, 0, len(c.AllowedRoles)+len(c.UnresolvedRoleIDs))
	for _, r := range c.AllowedRoles {
		ids = append(ids, r.ID)
	}
	return append(ids, c.UnresolvedRoleIDs...)
}

// StateReader gives read access to the slot.
type StateReader interface {
	Snapshot() Current
}

// Slot holds the current giveaway. Only the Controller writes to it.
type Slot struct {
	mu  sync.RWMutex
	cur Current
}

func NewSlot() *Slot {
	return &Slot{cur: Current{State: dg.StateNone}}
}

// Snapshot returns a copy that is safe to use without holding the slot lock.
func (s *Slot) Snapshot() Current {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.cur
	if s.cur.Giveaway != nil {
		g := *s.cur.Giveaway
		out.Giveaway = &g
	}
	out.AllowedRoles = append([]dg.Role(nil), s.cur.AllowedRoles...)
	out.UnresolvedRoleIDs = append([]string(nil), s.cur.UnresolvedRoleIDs...)
	return out
}

func (s *Slot) set(c Current) {
	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
}

func (s *Slot) setState(state dg.State) {
	s.mu.Lock()
	s.cur.State = state
	s.mu.Unlock()
}

func (s *Slot) clear() {
	s.set(Current{State: dg.StateNone})
}
