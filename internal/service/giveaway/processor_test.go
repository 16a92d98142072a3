package giveaway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "giveaway-raffle/internal/common/errors"
	dg "giveaway-raffle/internal/domain/giveaway"
)

func TestProcessor_FIFO(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, dg.Requirements{})
	cur, err := h.ctrl.Create(ctx, CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)

	participants := []string{"p5", "p1", "p4", "p2", "p3"}
	var wg sync.WaitGroup
	for i, pid := range participants {
		h.members.addMember(pid, 30)
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			_, err := h.proc.Submit(ctx, pid, cur.Giveaway.ID)
			assert.NoError(t, err)
		}(pid)
		want := i + 1
		require.Eventually(t, func() bool { return len(h.proc.queue) == want }, time.Second, time.Millisecond)
	}

	h.start()
	wg.Wait()

	entries, err := h.ledger.ListEntries(ctx, cur.Giveaway.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.ParticipantID)
	}
	assert.Equal(t, participants, got)
	assert.Eventually(t, func() bool { return h.proc.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestProcessor_DuplicateSubmitIsAlreadyEntered(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, dg.Requirements{})
	h.start()
	h.members.addMember("p1", 30)
	cur, err := h.ctrl.Create(ctx, CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)

	entry, err := h.proc.Submit(ctx, "p1", cur.Giveaway.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", entry.ParticipantID)

	_, err = h.proc.Submit(ctx, "p1", cur.Giveaway.ID)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeAlreadyEntered))

	n, _ := h.ledger.CountEntries(ctx, cur.Giveaway.ID)
	assert.Equal(t, 1, n)
}

func TestProcessor_ConcurrentDuplicatesYieldOneEntry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, dg.Requirements{})
	h.start()
	h.members.addMember("p1", 30)
	cur, err := h.ctrl.Create(ctx, CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.proc.Submit(ctx, "p1", cur.Giveaway.ID); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	count, _ := h.ledger.CountEntries(ctx, cur.Giveaway.ID)
	assert.Equal(t, 1, count)
}

func TestProcessor_RejectsOtherGiveaway(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, dg.Requirements{})
	h.start()

	_, err := h.proc.Submit(ctx, "p1", "g-none")
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNoOngoingGiveaway))

	_, err = h.ctrl.Create(ctx, CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)
	_, err = h.proc.Submit(ctx, "p1", "g-other")
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNoOngoingGiveaway))
}

type blockingGate struct {
	release chan struct{}
	entered chan string
}

func (g *blockingGate) CanEnter(ctx context.Context, participantID string, cur Current) error {
	g.entered <- participantID
	<-g.release
	return nil
}

func TestProcessor_ShutdownAnswersQueuedRequests(t *testing.T) {
	ctx := context.Background()
	slot := NewSlot()
	slot.set(Current{State: dg.StateOpen, Giveaway: &dg.Giveaway{ID: "g1", WinnerCount: 1, Ongoing: true}})
	ledger := newFakeLedger()
	gate := &blockingGate{release: make(chan struct{}), entered: make(chan string, 1)}
	proc := NewProcessor(slot, gate, ledger, 4)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		proc.Run(runCtx)
	}()

	results := make(chan error, 2)
	go func() {
		_, err := proc.Submit(ctx, "p1", "g1")
		results <- err
	}()
	require.Equal(t, "p1", <-gate.entered)

	go func() {
		_, err := proc.Submit(ctx, "p2", "g1")
		results <- err
	}()
	require.Eventually(t, func() bool { return proc.Pending() == 2 }, time.Second, time.Millisecond)

	cancel()
	close(gate.release)
	<-done

	errs := []error{<-results, <-results}
	var okCount, unavailableCount int
	for _, err := range errs {
		switch {
		case err == nil:
			okCount++
		case apperr.HasCode(err, apperr.ErrCodeServiceUnavailable):
			unavailableCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, okCount, "in-flight request completes")
	assert.Equal(t, 1, unavailableCount, "queued request is answered")

	_, err := proc.Submit(ctx, "p3", "g1")
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeServiceUnavailable))
	assert.Equal(t, 0, proc.Pending())
}

func TestProcessor_NonMemberIsNotRecorded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, dg.Requirements{})
	h.start()
	cur, err := h.ctrl.Create(ctx, CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)

	_, err = h.proc.Submit(ctx, "not-a-member", cur.Giveaway.ID)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeNotMember), "got %v", err)

	n, err := h.ledger.CountEntries(ctx, cur.Giveaway.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func queuedRequest(p *Processor, participantID string) joinRequest {
	req := joinRequest{
		participantID: participantID,
		giveawayID:    "g1",
		reply:         make(chan joinResult, 1),
		settled:       new(atomic.Bool),
	}
	p.pending.Add(1)
	p.queue <- req
	return req
}

func TestProcessor_RequestEnqueuedAfterShutdownIsSettled(t *testing.T) {
	proc := NewProcessor(NewSlot(), NewGate(newFakeLedger(), newFakeMembers(), dg.Requirements{}), newFakeLedger(), 4)
	proc.shutdown()

	// enqueue won the race against the stopped channel
	req := queuedRequest(proc, "late")
	_, err := proc.await(context.Background(), req)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeServiceUnavailable))
	assert.Equal(t, 0, proc.Pending())
}

func TestProcessor_ShutdownSettlesEachRequestOnce(t *testing.T) {
	proc := NewProcessor(NewSlot(), NewGate(newFakeLedger(), newFakeMembers(), dg.Requirements{}), newFakeLedger(), 4)
	req := queuedRequest(proc, "p1")
	proc.shutdown()

	_, err := proc.await(context.Background(), req)
	assert.True(t, apperr.HasCode(err, apperr.ErrCodeServiceUnavailable))
	proc.settle(req)
	assert.Equal(t, 0, proc.Pending())
}

func TestProcessor_CallerTimeoutDoesNotDropRequest(t *testing.T) {
	h := newHarness(t, dg.Requirements{})
	h.members.addMember("p1", 30)
	cur, err := h.ctrl.Create(context.Background(), CreateInput{Name: "Spring", WinnerCount: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := h.proc.Submit(ctx, "p1", cur.Giveaway.ID)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return len(h.proc.queue) == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	h.start()
	require.NoError(t, h.proc.Drain(context.Background()))

	e, err := h.ledger.GetEntry(context.Background(), "p1", cur.Giveaway.ID)
	require.NoError(t, err)
	assert.NotNil(t, e)
}
