package giveaway

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	dg "giveaway-raffle/internal/domain/giveaway"
)

var errBoom = errors.New("boom")

type fakeLedger struct {
	mu        sync.Mutex
	giveaways map[string]*dg.Giveaway
	entries   []dg.Entry
	nextID    int64
	roles     map[string][]string
	blacklist map[string]time.Time
	errs      map[string]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		giveaways: map[string]*dg.Giveaway{},
		roles:     map[string][]string{},
		blacklist: map[string]time.Time{},
		errs:      map[string]error{},
	}
}

func (l *fakeLedger) failOn(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs[op] = err
}

func (l *fakeLedger) ongoingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, g := range l.giveaways {
		if g.Ongoing {
			n++
		}
	}
	return n
}

func (l *fakeLedger) GetOngoingGiveaway(ctx context.Context) (*dg.Giveaway, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["GetOngoingGiveaway"]; err != nil {
		return nil, err
	}
	for _, g := range l.giveaways {
		if g.Ongoing {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *fakeLedger) GetGiveaway(ctx context.Context, id string) (*dg.Giveaway, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["GetGiveaway"]; err != nil {
		return nil, err
	}
	g, ok := l.giveaways[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (l *fakeLedger) CreateGiveaway(ctx context.Context, g *dg.Giveaway) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["CreateGiveaway"]; err != nil {
		return err
	}
	if g.Ongoing {
		for _, other := range l.giveaways {
			if other.Ongoing {
				return errors.New("unique violation: giveaways_single_ongoing")
			}
		}
	}
	cp := *g
	l.giveaways[g.ID] = &cp
	return nil
}

func (l *fakeLedger) SetOngoing(ctx context.Context, id string, ongoing bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["SetOngoing"]; err != nil {
		return err
	}
	g, ok := l.giveaways[id]
	if !ok {
		return errors.New("not found")
	}
	g.Ongoing = ongoing
	return nil
}

func (l *fakeLedger) SetWinnerCount(ctx context.Context, id string, n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.giveaways[id]
	if !ok {
		return errors.New("not found")
	}
	g.WinnerCount = n
	return nil
}

func (l *fakeLedger) AddAllowedRoles(ctx context.Context, giveawayID string, roleIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["AddAllowedRoles"]; err != nil {
		return err
	}
	l.roles[giveawayID] = append(l.roles[giveawayID], roleIDs...)
	return nil
}

func (l *fakeLedger) ListAllowedRoles(ctx context.Context, giveawayID string) ([]dg.AllowedRole, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := append([]string(nil), l.roles[giveawayID]...)
	sort.Strings(ids)
	out := make([]dg.AllowedRole, 0, len(ids))
	for _, id := range ids {
		out = append(out, dg.AllowedRole{RoleID: id, GiveawayID: giveawayID})
	}
	return out, nil
}

func (l *fakeLedger) DeleteAllowedRole(ctx context.Context, giveawayID, roleID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.roles[giveawayID][:0]
	for _, id := range l.roles[giveawayID] {
		if id != roleID {
			kept = append(kept, id)
		}
	}
	l.roles[giveawayID] = kept
	return nil
}

func (l *fakeLedger) GetEntry(ctx context.Context, participantID, giveawayID string) (*dg.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ParticipantID == participantID && e.GiveawayID == giveawayID {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *fakeLedger) AddEntry(ctx context.Context, participantID, giveawayID string) (*dg.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["AddEntry"]; err != nil {
		return nil, err
	}
	for _, e := range l.entries {
		if e.ParticipantID == participantID && e.GiveawayID == giveawayID {
			return nil, dg.ErrEntryExists
		}
	}
	l.nextID++
	e := dg.Entry{ID: l.nextID, ParticipantID: participantID, GiveawayID: giveawayID, CreatedAt: time.Now().UTC()}
	l.entries = append(l.entries, e)
	return &e, nil
}

func (l *fakeLedger) DeleteEntry(ctx context.Context, entryID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["DeleteEntry"]; err != nil {
		return err
	}
	for i, e := range l.entries {
		if e.ID == entryID {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (l *fakeLedger) MarkWinner(ctx context.Context, entryID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["MarkWinner"]; err != nil {
		return err
	}
	for i := range l.entries {
		if l.entries[i].ID == entryID {
			l.entries[i].Winner = true
		}
	}
	return nil
}

func (l *fakeLedger) ListEntries(ctx context.Context, giveawayID string) ([]dg.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []dg.Entry
	for _, e := range l.entries {
		if e.GiveawayID == giveawayID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *fakeLedger) CountEntries(ctx context.Context, giveawayID string) (int, error) {
	entries, _ := l.ListEntries(ctx, giveawayID)
	return len(entries), nil
}

func (l *fakeLedger) GetBlacklistEntry(ctx context.Context, participantID string) (*dg.BlacklistEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.errs["GetBlacklistEntry"]; err != nil {
		return nil, err
	}
	at, ok := l.blacklist[participantID]
	if !ok {
		return nil, nil
	}
	return &dg.BlacklistEntry{ParticipantID: participantID, CreatedAt: at}, nil
}

func (l *fakeLedger) AddBlacklistEntry(ctx context.Context, participantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.blacklist[participantID]; ok {
		return false, nil
	}
	l.blacklist[participantID] = time.Now().UTC()
	return true, nil
}

func (l *fakeLedger) RemoveBlacklistEntry(ctx context.Context, participantID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.blacklist[participantID]; !ok {
		return false, nil
	}
	delete(l.blacklist, participantID)
	return true, nil
}

type fakeMembers struct {
	mu        sync.Mutex
	members   map[string]*dg.Member
	tenure    map[string]int
	roles     map[string]*dg.Role
	memberErr map[string]error
	roleErr   map[string]error
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{
		members:   map[string]*dg.Member{},
		tenure:    map[string]int{},
		roles:     map[string]*dg.Role{},
		memberErr: map[string]error{},
		roleErr:   map[string]error{},
	}
}

func (m *fakeMembers) addMember(id string, tenureDays int, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[id] = &dg.Member{ID: id, Username: "user-" + id, Roles: roles}
	m.tenure[id] = tenureDays
}

func (m *fakeMembers) removeMember(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members, id)
}

func (m *fakeMembers) addRole(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[id] = &dg.Role{ID: id, Name: "role-" + id}
}

func (m *fakeMembers) ResolveMember(ctx context.Context, id string) (*dg.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.memberErr[id]; err != nil {
		return nil, err
	}
	mem, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	cp := *mem
	return &cp, nil
}

func (m *fakeMembers) ResolveRole(ctx context.Context, id string) (*dg.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.roleErr[id]; err != nil {
		return nil, err
	}
	r, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *fakeMembers) MemberRoles(ctx context.Context, participantID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.memberErr[participantID]; err != nil {
		return nil, err
	}
	if mem, ok := m.members[participantID]; ok {
		return mem.Roles, nil
	}
	return nil, nil
}

func (m *fakeMembers) MemberTenureDays(ctx context.Context, participantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.memberErr[participantID]; err != nil {
		return 0, err
	}
	return m.tenure[participantID], nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	failFor  map[string]error
}

func (n *fakeNotifier) NotifyWinner(ctx context.Context, g *dg.Giveaway, m *dg.Member) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.failFor[m.ID]; err != nil {
		return err
	}
	n.notified = append(n.notified, m.ID)
	return nil
}

type harness struct {
	ledger   *fakeLedger
	members  *fakeMembers
	notifier *fakeNotifier
	slot     *Slot
	proc     *Processor
	ctrl     *Controller

	runCtx    context.Context
	runCancel context.CancelFunc
	runDone   chan struct{}
}

func newHarness(t *testing.T, req dg.Requirements) *harness {
	t.Helper()
	h := &harness{
		ledger:   newFakeLedger(),
		members:  newFakeMembers(),
		notifier: &fakeNotifier{failFor: map[string]error{}},
		slot:     NewSlot(),
		runDone:  make(chan struct{}),
	}
	gate := NewGate(h.ledger, h.members, req)
	h.proc = NewProcessor(h.slot, gate, h.ledger, 16)
	h.ctrl = NewController(h.slot, h.ledger, h.members, h.notifier, h.proc, NewSelector(h.ledger, h.members))
	h.runCtx, h.runCancel = context.WithCancel(context.Background())
	t.Cleanup(func() {
		h.runCancel()
	})
	return h
}

// start launches the processor's consumer.
func (h *harness) start() {
	go func() {
		defer close(h.runDone)
		h.proc.Run(h.runCtx)
	}()
}

// stop cancels the consumer and waits for it to return.
func (h *harness) stop() {
	h.runCancel()
	<-h.runDone
}
