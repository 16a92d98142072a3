package giveaway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperr "giveaway-raffle/internal/common/errors"
	"giveaway-raffle/internal/common/logger"
	"giveaway-raffle/internal/common/validation"
	dg "giveaway-raffle/internal/domain/giveaway"
)

// CreateInput describes a new giveaway.
type CreateInput struct {
	Name        string
	WinnerCount int
	RoleIDs     []string
	EndsAt      *time.Time
}

// FinishResult is the outcome of closing a giveaway.
type FinishResult struct {
	Giveaway         *dg.Giveaway       `json:"giveaway"`
	Winners          []Winner           `json:"winners"`
	Requested        int                `json:"requested"`
	EntryCount       int                `json:"entry_count"`
	Insufficient     bool               `json:"insufficient"`
	DeliveryFailures []*apperr.AppError `json:"delivery_failures,omitempty"`
}

// Info describes the current giveaway for display.
type Info struct {
	State             dg.State     `json:"state"`
	Giveaway          *dg.Giveaway `json:"giveaway"`
	AllowedRoles      []dg.Role    `json:"allowed_roles"`
	UnresolvedRoleIDs []string     `json:"unresolved_role_ids,omitempty"`
	EntryCount        int          `json:"entry_count"`
	Pending           int          `json:"pending"`
}

// Controller owns the current-giveaway slot and runs the giveaway lifecycle.
// Lifecycle commands are serialized; joins go straight to the processor.
type Controller struct {
	mu        sync.Mutex
	slot      *Slot
	ledger    dg.Ledger
	members   dg.MembershipProvider
	notifier  dg.WinnerNotifier
	processor *Processor
	selector  *Selector
	log       zerolog.Logger
	now       func() time.Time
}

func NewController(slot *Slot, ledger dg.Ledger, members dg.MembershipProvider, notifier dg.WinnerNotifier, processor *Processor, selector *Selector) *Controller {
	return &Controller{
		slot:      slot,
		ledger:    ledger,
		members:   members,
		notifier:  notifier,
		processor: processor,
		selector:  selector,
		log:       logger.Component("giveaway_controller"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Current returns a snapshot of the slot.
func (c *Controller) Current() Current { return c.slot.Snapshot() }

// Reconcile loads the ongoing giveaway from the ledger into the slot. Allowed roles that
// no longer exist are deleted from the ledger.
func (c *Controller) Reconcile(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, err := c.ledger.GetOngoingGiveaway(ctx)
	if err != nil {
		return apperr.NewDatabaseError("get ongoing giveaway", err)
	}
	if g == nil {
		c.processor.Seal(c.slot.clear)
		c.log.Info().Msg("No ongoing giveaway to restore")
		return nil
	}
	cur, err := c.load(ctx, g)
	if err != nil {
		return err
	}
	c.processor.Seal(func() { c.slot.set(cur) })
	c.log.Info().Str("giveaway_id", g.ID).Int("allowed_roles", len(cur.AllowedRoles)).Msg("Ongoing giveaway restored")
	return nil
}

func (c *Controller) load(ctx context.Context, g *dg.Giveaway) (Current, error) {
	roles, unresolved, err := c.resolveAllowedRoles(ctx, g.ID)
	if err != nil {
		return Current{}, err
	}
	return Current{State: dg.StateOpen, Giveaway: g, AllowedRoles: roles, UnresolvedRoleIDs: unresolved}, nil
}

func (c *Controller) resolveAllowedRoles(ctx context.Context, giveawayID string) ([]dg.Role, []string, error) {
	allowed, err := c.ledger.ListAllowedRoles(ctx, giveawayID)
	if err != nil {
		return nil, nil, apperr.NewDatabaseError("list allowed roles", err)
	}
	var (
		roles      []dg.Role
		unresolved []string
	)
	for _, ar := range allowed {
		role, err := c.members.ResolveRole(ctx, ar.RoleID)
		if err != nil {
			c.log.Warn().Err(err).Str("role_id", ar.RoleID).Msg("Allowed role could not be resolved, keeping it")
			unresolved = append(unresolved, ar.RoleID)
			continue
		}
		if role == nil {
			if err := c.ledger.DeleteAllowedRole(ctx, giveawayID, ar.RoleID); err != nil {
				c.log.Warn().Err(err).Str("role_id", ar.RoleID).Msg("Failed to delete stale allowed role")
			} else {
				c.log.Info().Str("role_id", ar.RoleID).Msg("Deleted allowed role that no longer exists")
			}
			continue
		}
		roles = append(roles, *role)
	}
	return roles, unresolved, nil
}

// Create opens a new giveaway. It fails with ALREADY_RUNNING unless the slot is empty.
func (c *Controller) Create(ctx context.Context, in CreateInput) (*Current, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur := c.slot.Snapshot(); cur.State != dg.StateNone {
		return nil, apperr.NewAlreadyRunningError(cur.Giveaway.ID)
	}

	name, err := validation.Name(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validation.WinnerCount(in.WinnerCount); err != nil {
		return nil, err
	}
	now := c.now()
	if err := validation.EndsAt(in.EndsAt, now); err != nil {
		return nil, err
	}

	roleIDs := uniqueNonEmpty(in.RoleIDs)
	roles := make([]dg.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		role, err := c.members.ResolveRole(ctx, id)
		if err != nil {
			return nil, apperr.NewExternalAPIError("resolve role", err)
		}
		if role == nil {
			return nil, apperr.NewValidationError("role_ids", fmt.Sprintf("role %s does not exist", id))
		}
		roles = append(roles, *role)
	}

	g := &dg.Giveaway{
		ID:          uuid.NewString(),
		Name:        name,
		WinnerCount: in.WinnerCount,
		Ongoing:     true,
		EndsAt:      in.EndsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.ledger.CreateGiveaway(ctx, g); err != nil {
		return nil, apperr.NewDatabaseError("create giveaway", err)
	}
	if err := c.ledger.AddAllowedRoles(ctx, g.ID, roleIDs); err != nil {
		if rbErr := c.ledger.SetOngoing(context.WithoutCancel(ctx), g.ID, false); rbErr != nil {
			c.log.Error().Err(rbErr).Str("giveaway_id", g.ID).Msg("Failed to close giveaway after role insert failure")
		}
		return nil, apperr.NewDatabaseError("add allowed roles", err)
	}

	cur := Current{State: dg.StateOpen, Giveaway: g, AllowedRoles: roles}
	c.processor.Seal(func() { c.slot.set(cur) })
	c.log.Info().Str("giveaway_id", g.ID).Str("name", g.Name).Int("winner_count", g.WinnerCount).Msg("Giveaway created")

	snap := c.slot.Snapshot()
	return &snap, nil
}

// sealOpen flips an open slot to closing and returns its giveaway, or nil when the slot
// was not open.
func (c *Controller) sealOpen() *dg.Giveaway {
	var g *dg.Giveaway
	c.processor.Seal(func() {
		cur := c.slot.Snapshot()
		if cur.State != dg.StateOpen {
			return
		}
		g = cur.Giveaway
		c.slot.setState(dg.StateClosing)
	})
	return g
}

// close marks g as no longer ongoing. On failure the slot is reopened.
func (c *Controller) close(ctx context.Context, g *dg.Giveaway) error {
	if err := c.ledger.SetOngoing(ctx, g.ID, false); err != nil {
		c.processor.Seal(func() { c.slot.setState(dg.StateOpen) })
		return apperr.NewDatabaseError("set ongoing", err)
	}
	g.Ongoing = false
	return nil
}

// Cancel closes the current giveaway without a draw. Entries already accepted stay.
func (c *Controller) Cancel(ctx context.Context) (*dg.Giveaway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.sealOpen()
	if g == nil {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	if err := c.close(ctx, g); err != nil {
		return nil, err
	}
	bg := context.WithoutCancel(ctx)
	if err := c.processor.Drain(bg); err != nil {
		c.log.Warn().Err(err).Msg("Drain after cancel did not complete")
	}
	c.processor.Seal(c.slot.clear)
	c.log.Info().Str("giveaway_id", g.ID).Msg("Giveaway cancelled")
	return g, nil
}

// Finish closes the current giveaway and draws its winners. Once admission is sealed the
// giveaway always ends up closed, even when the draw or notifications fail.
func (c *Controller) Finish(ctx context.Context) (*FinishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishLocked(ctx)
}

func (c *Controller) finishLocked(ctx context.Context) (*FinishResult, error) {
	g := c.sealOpen()
	if g == nil {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	if err := c.close(ctx, g); err != nil {
		return nil, err
	}
	defer c.processor.Seal(c.slot.clear)

	bg := context.WithoutCancel(ctx)
	if err := c.processor.Drain(bg); err != nil {
		c.log.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Drain before draw did not complete")
	}

	res := &FinishResult{Giveaway: g, Requested: g.WinnerCount}
	winners, drawErr := c.selector.Draw(bg, g, g.WinnerCount)
	res.Winners = winners
	res.Insufficient = len(winners) < g.WinnerCount

	for _, w := range winners {
		if err := c.notifier.NotifyWinner(bg, g, w.Member); err != nil {
			c.log.Warn().Err(err).Str("participant_id", w.Entry.ParticipantID).Msg("Winner notification failed")
			res.DeliveryFailures = append(res.DeliveryFailures, apperr.NewDeliveryFailureError(w.Entry.ParticipantID, err))
		}
	}

	count, err := c.ledger.CountEntries(bg, g.ID)
	if err != nil {
		c.log.Warn().Err(err).Str("giveaway_id", g.ID).Msg("Failed to count entries")
	}
	res.EntryCount = count

	c.log.Info().
		Str("giveaway_id", g.ID).
		Int("winners", len(winners)).
		Int("requested", g.WinnerCount).
		Int("entries", count).
		Msg("Giveaway finished")
	if drawErr != nil {
		return res, drawErr
	}
	return res, nil
}

// FinishIfDue finishes the open giveaway when its end time has passed. It returns nil, nil
// when there is nothing to do.
func (c *Controller) FinishIfDue(ctx context.Context, now time.Time) (*FinishResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.slot.Snapshot()
	if cur.State != dg.StateOpen || cur.Giveaway.EndsAt == nil || now.Before(*cur.Giveaway.EndsAt) {
		return nil, nil
	}
	return c.finishLocked(ctx)
}

// Join submits a join request against the current giveaway.
func (c *Controller) Join(ctx context.Context, participantID string) (*dg.Entry, error) {
	participantID, err := validation.ID("participant_id", participantID)
	if err != nil {
		return nil, err
	}
	cur := c.slot.Snapshot()
	if cur.State != dg.StateOpen {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	return c.processor.Submit(ctx, participantID, cur.Giveaway.ID)
}

// Info returns the current giveaway with its entry count.
func (c *Controller) Info(ctx context.Context) (*Info, error) {
	cur := c.slot.Snapshot()
	if cur.State == dg.StateNone {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	count, err := c.ledger.CountEntries(ctx, cur.Giveaway.ID)
	if err != nil {
		return nil, apperr.NewDatabaseError("count entries", err)
	}
	return &Info{
		State:             cur.State,
		Giveaway:          cur.Giveaway,
		AllowedRoles:      cur.AllowedRoles,
		UnresolvedRoleIDs: cur.UnresolvedRoleIDs,
		EntryCount:        count,
		Pending:           c.processor.Pending(),
	}, nil
}

// SetWinnerCount changes how many winners the open giveaway will draw.
func (c *Controller) SetWinnerCount(ctx context.Context, n int) (*dg.Giveaway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := validation.WinnerCount(n); err != nil {
		return nil, err
	}
	cur := c.slot.Snapshot()
	if cur.State != dg.StateOpen {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	if err := c.ledger.SetWinnerCount(ctx, cur.Giveaway.ID, n); err != nil {
		return nil, apperr.NewDatabaseError("set winner count", err)
	}
	g, err := c.ledger.GetGiveaway(ctx, cur.Giveaway.ID)
	if err != nil || g == nil {
		c.log.Warn().Err(err).Str("giveaway_id", cur.Giveaway.ID).Msg("Failed to reload giveaway after winner count change, using cached copy")
		g = cur.Giveaway
		g.WinnerCount = n
	}
	c.processor.Seal(func() {
		next := c.slot.Snapshot()
		if next.Giveaway != nil && next.Giveaway.ID == g.ID {
			next.Giveaway = g
			c.slot.set(next)
		}
	})
	c.log.Info().Str("giveaway_id", g.ID).Int("winner_count", n).Msg("Winner count changed")
	return g, nil
}

// RefreshRoles re-resolves the open giveaway's allowed roles, deleting the ones that are gone.
func (c *Controller) RefreshRoles(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.slot.Snapshot()
	if cur.State != dg.StateOpen {
		return nil
	}
	roles, unresolved, err := c.resolveAllowedRoles(ctx, cur.Giveaway.ID)
	if err != nil {
		return err
	}
	c.processor.Seal(func() {
		next := c.slot.Snapshot()
		if next.Giveaway == nil || next.Giveaway.ID != cur.Giveaway.ID {
			return
		}
		next.AllowedRoles = roles
		next.UnresolvedRoleIDs = unresolved
		c.slot.set(next)
	})
	c.log.Debug().Str("giveaway_id", cur.Giveaway.ID).Int("allowed_roles", len(roles)).Msg("Allowed roles refreshed")
	return nil
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
