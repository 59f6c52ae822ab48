package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elonfeng/hotdigest/internal/pipeline"
	"github.com/elonfeng/hotdigest/internal/store"
	"github.com/elonfeng/hotdigest/pkg/alert"
)

const defaultSpec = "@every 1h"

// Runner produces one digest.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Options configures a Scheduler.
type Options struct {
	Spec          string           // cron expression or descriptor, e.g. "@every 1h"
	Request       pipeline.Request // used for scheduled runs
	MaxAlertItems int
}

// Scheduler runs the digest pipeline on a cron schedule, stores the latest
// run and broadcasts it to the alert destinations.
type Scheduler struct {
	store    store.Store
	runner   Runner
	alertMgr *alert.Manager
	opts     Options
	log      zerolog.Logger

	// Serializes runs so scheduled and on-demand collections never overlap.
	mu sync.Mutex
}

// New creates a scheduler. The cron spec is validated here.
func New(s store.Store, runner Runner, alertMgr *alert.Manager, opts Options, log zerolog.Logger) (*Scheduler, error) {
	if opts.Spec == "" {
		opts.Spec = defaultSpec
	}
	if _, err := cron.ParseStandard(opts.Spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", opts.Spec, err)
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil)
	}
	return &Scheduler{
		store:    s,
		runner:   runner,
		alertMgr: alertMgr,
		opts:     opts,
		log:      log.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run collects immediately, then on every tick. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Msg("initial collection")
	s.tick(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.opts.Spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("add cron: %w", err)
	}
	c.Start()
	s.log.Info().Str("schedule", s.opts.Spec).Msg("running")

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info().Msg("stopped")
	return ctx.Err()
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Collect(ctx, s.opts.Request); err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("collection failed")
	}
}

// Collect runs the pipeline for req, replaces the stored snapshot and
// notifies the alert destinations. Alert failures are logged, not returned.
func (s *Scheduler) Collect(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.runner.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("run pipeline: %w", err)
	}

	run := &store.Run{
		ID:          res.RunID.String(),
		GeneratedAt: res.GeneratedAt,
		Keyword:     res.Keyword,
		Highlights:  res.Highlights,
		Report:      res.Report,
		Items:       res.Items,
	}
	if err := s.store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	s.log.Info().Str("run_id", run.ID).Int("items", len(res.Items)).Msg("run saved")

	if s.alertMgr.HasNotifiers() && len(res.Items) > 0 {
		n := alert.NewNotification(run.ID, res.GeneratedAt, res.Keyword, res.Highlights, res.Items, s.opts.MaxAlertItems)
		if err := s.alertMgr.Broadcast(ctx, n); err != nil {
			s.log.Warn().Err(err).Msg("alert failed")
		} else {
			s.log.Info().Strs("destinations", s.alertMgr.Names()).Msg("digest sent")
		}
	}
	return res, nil
}
