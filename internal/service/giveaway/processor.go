package giveaway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	apperr "giveaway-raffle/internal/common/errors"
	"giveaway-raffle/internal/common/logger"
	dg "giveaway-raffle/internal/domain/giveaway"
)

type joinRequest struct {
	participantID string
	giveawayID    string
	barrier       bool
	reply         chan joinResult
	// settled is set once the request has left the pending count.
	settled *atomic.Bool
}

type joinResult struct {
	entry *dg.Entry
	err   error
}

// Processor serializes join requests through a single consumer. Requests are evaluated
// strictly in arrival order and each caller waits for its own outcome.
type Processor struct {
	slot   StateReader
	gate   Eligibility
	ledger dg.Ledger
	log    zerolog.Logger

	queue chan joinRequest
	// admitMu is held shared by Submit while it checks the slot and enqueues, and
	// exclusively by Seal. The consumer never takes it.
	admitMu sync.RWMutex
	pending atomic.Int64

	stopped  chan struct{}
	stopOnce sync.Once
}

func NewProcessor(slot StateReader, gate Eligibility, ledger dg.Ledger, queueSize int) *Processor {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Processor{
		slot:    slot,
		gate:    gate,
		ledger:  ledger,
		log:     logger.Component("entry_processor"),
		queue:   make(chan joinRequest, queueSize),
		stopped: make(chan struct{}),
	}
}

// Run consumes the queue until ctx is cancelled. Requests still queued at that point are
// answered with SERVICE_UNAVAILABLE.
func (p *Processor) Run(ctx context.Context) {
	evalCtx := context.WithoutCancel(ctx)
	p.log.Info().Int("capacity", cap(p.queue)).Msg("Entry processor started")
	for {
		if ctx.Err() != nil {
			p.shutdown()
			return
		}
		select {
		case <-ctx.Done():
			p.shutdown()
			return
		case req := <-p.queue:
			p.handle(evalCtx, req)
		}
	}
}

func (p *Processor) handle(ctx context.Context, req joinRequest) {
	if req.barrier {
		req.reply <- joinResult{}
		return
	}
	entry, err := p.evaluate(ctx, req)
	req.reply <- joinResult{entry: entry, err: err}
	p.settle(req)

	ev := p.log.Debug()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Str("participant_id", req.participantID).Str("giveaway_id", req.giveawayID).Msg("Join request processed")
}

func (p *Processor) evaluate(ctx context.Context, req joinRequest) (*dg.Entry, error) {
	cur := p.slot.Snapshot()
	if cur.State == dg.StateNone || cur.Giveaway == nil || cur.Giveaway.ID != req.giveawayID {
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	if err := p.gate.CanEnter(ctx, req.participantID, cur); err != nil {
		return nil, err
	}
	entry, err := p.ledger.AddEntry(ctx, req.participantID, req.giveawayID)
	if errors.Is(err, dg.ErrEntryExists) {
		return nil, apperr.NewAlreadyEnteredError(req.participantID, req.giveawayID)
	}
	if err != nil {
		return nil, apperr.NewDatabaseError("add entry", err)
	}
	return entry, nil
}

func (p *Processor) shutdown() {
	p.stopOnce.Do(func() { close(p.stopped) })
	n := 0
	for {
		select {
		case req := <-p.queue:
			p.settle(req)
			req.reply <- joinResult{err: unavailable()}
			n++
		default:
			p.log.Info().Int("rejected", n).Msg("Entry processor stopped")
			return
		}
	}
}

// settle drops req from the pending count exactly once.
func (p *Processor) settle(req joinRequest) {
	if req.barrier || req.settled == nil {
		return
	}
	if req.settled.CompareAndSwap(false, true) {
		p.pending.Add(-1)
	}
}

func unavailable() error {
	return apperr.New(apperr.ErrCodeServiceUnavailable, "Entry processor is shutting down")
}

// Submit admits a join request for giveawayID and blocks until it has been evaluated.
// If ctx ends first the request is still processed, only the outcome is lost to the caller.
func (p *Processor) Submit(ctx context.Context, participantID, giveawayID string) (*dg.Entry, error) {
	req := joinRequest{
		participantID: participantID,
		giveawayID:    giveawayID,
		reply:         make(chan joinResult, 1),
		settled:       new(atomic.Bool),
	}

	p.admitMu.RLock()
	cur := p.slot.Snapshot()
	if cur.State != dg.StateOpen || cur.Giveaway == nil || cur.Giveaway.ID != giveawayID {
		p.admitMu.RUnlock()
		return nil, apperr.NewNoOngoingGiveawayError()
	}
	p.pending.Add(1)
	if err := p.enqueue(ctx, req); err != nil {
		p.settle(req)
		p.admitMu.RUnlock()
		return nil, err
	}
	p.admitMu.RUnlock()

	return p.await(ctx, req)
}

// Seal runs fn while no Submit is between its admission check and its enqueue.
func (p *Processor) Seal(fn func()) {
	p.admitMu.Lock()
	defer p.admitMu.Unlock()
	fn()
}

// Drain returns once every request enqueued before the call has been evaluated.
func (p *Processor) Drain(ctx context.Context) error {
	req := joinRequest{barrier: true, reply: make(chan joinResult, 1)}
	if err := p.enqueue(ctx, req); err != nil {
		return err
	}
	_, err := p.await(ctx, req)
	return err
}

// Pending is the number of join requests queued or being evaluated.
func (p *Processor) Pending() int {
	return int(p.pending.Load())
}

func (p *Processor) enqueue(ctx context.Context, req joinRequest) error {
	select {
	case <-p.stopped:
		return unavailable()
	default:
	}
	select {
	case p.queue <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return unavailable()
	}
}

func (p *Processor) await(ctx context.Context, req joinRequest) (*dg.Entry, error) {
	select {
	case res := <-req.reply:
		return res.entry, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.stopped:
		// the consumer may have answered just before stopping
		select {
		case res := <-req.reply:
			return res.entry, res.err
		default:
			// enqueued after shutdown drained the queue; nobody will answer it
			p.settle(req)
			return nil, unavailable()
		}
	}
}
