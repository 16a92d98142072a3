package workers

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"giveaway-raffle/internal/common/logger"
	"giveaway-raffle/internal/service/giveaway"
)

// Finisher closes the open giveaway once its end time has passed.
type Finisher interface {
	FinishIfDue(ctx context.Context, now time.Time) (*giveaway.FinishResult, error)
}

// AutoFinishWorker periodically finishes giveaways that were created with an end time.
type AutoFinishWorker struct {
	sched    gocron.Scheduler
	finisher Finisher
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewAutoFinishWorker(finisher Finisher, interval time.Duration) (*AutoFinishWorker, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &AutoFinishWorker{
		sched:    sched,
		finisher: finisher,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component("auto_finish_worker"),
	}, nil
}

// Start schedules the check. Runs never overlap.
func (w *AutoFinishWorker) Start(ctx context.Context) error {
	_, err := w.sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}
	w.sched.Start()
	w.log.Info().Dur("interval", w.interval).Msg("Auto-finish worker started")
	return nil
}

func (w *AutoFinishWorker) Stop() error {
	return w.sched.Shutdown()
}

func (w *AutoFinishWorker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := w.finisher.FinishIfDue(ctx, w.now())
	if err != nil {
		w.log.Error().Err(err).Msg("Auto-finish failed")
		return
	}
	if res == nil {
		return
	}
	w.log.Info().
		Str("giveaway_id", res.Giveaway.ID).
		Int("winners", len(res.Winners)).
		Bool("insufficient", res.Insufficient).
		Msg("Giveaway finished on schedule")
}
