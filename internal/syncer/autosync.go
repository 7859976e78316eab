package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/model"
)

// Defaults for the scheduler.
const (
	DefaultInterval     = 5 * time.Minute
	DefaultStartupDelay = 3 * time.Second
)

// Runner runs one background pass. *Orchestrator implements it.
type Runner interface {
	BackgroundSync(ctx context.Context) (model.SyncResult, error)
}

// AutoSync triggers background passes on a fixed interval while the
// persisted auto-sync flag is on. A tick that finds a pass already running
// is skipped, never queued.
type AutoSync struct {
	runner Runner
	store  local.Store
	log    *zap.Logger

	mu           sync.Mutex
	interval     time.Duration
	startupDelay time.Duration
	enabled      bool

	changed chan struct{}
}

// NewAutoSync returns a scheduler. Non-positive durations fall back to the
// defaults.
func NewAutoSync(runner Runner, store local.Store, log *zap.Logger, interval, startupDelay time.Duration) *AutoSync {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if startupDelay < 0 {
		startupDelay = DefaultStartupDelay
	}
	return &AutoSync{
		runner:       runner,
		store:        store,
		log:          log,
		interval:     interval,
		startupDelay: startupDelay,
		changed:      make(chan struct{}, 1),
	}
}

// Enabled reports the in-memory flag. It is loaded from storage by Run.
func (a *AutoSync) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Interval returns the current tick interval.
func (a *AutoSync) Interval() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.interval
}

// Enable persists the flag and starts ticking.
func (a *AutoSync) Enable(ctx context.Context) error { return a.setEnabled(ctx, true) }

// Disable persists the flag and stops ticking.
func (a *AutoSync) Disable(ctx context.Context) error { return a.setEnabled(ctx, false) }

func (a *AutoSync) setEnabled(ctx context.Context, on bool) error {
	if err := local.SetAutoSyncEnabled(ctx, a.store, on); err != nil {
		return fmt.Errorf("save %s: %w", local.KeyAutoSyncEnabled, err)
	}
	a.mu.Lock()
	a.enabled = on
	a.mu.Unlock()
	a.notify()
	a.log.Info("auto sync toggled", zap.Bool("enabled", on))
	return nil
}

// SetInterval changes the tick interval; the ticker restarts with it.
func (a *AutoSync) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %s", d)
	}
	a.mu.Lock()
	same := a.interval == d
	a.interval = d
	a.mu.Unlock()
	if !same {
		a.notify()
		a.log.Info("auto sync interval changed", zap.Duration("interval", d))
	}
	return nil
}

func (a *AutoSync) notify() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done. One startup pass fires after the startup
// delay if auto-sync is enabled, then one pass per interval.
func (a *AutoSync) Run(ctx context.Context) error {
	on, err := local.AutoSyncEnabled(ctx, a.store)
	if err != nil {
		return fmt.Errorf("read %s: %w", local.KeyAutoSyncEnabled, err)
	}
	a.mu.Lock()
	a.enabled = on
	delay := a.startupDelay
	a.mu.Unlock()

	startup := time.NewTimer(delay)
	defer startup.Stop()

	var (
		ticker *time.Ticker
		tick   <-chan time.Time
	)
	restart := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		a.mu.Lock()
		on, every := a.enabled, a.interval
		a.mu.Unlock()
		if on {
			ticker = time.NewTicker(every)
			tick = ticker.C
		}
	}
	restart()
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()

	a.log.Info("auto sync started",
		zap.Bool("enabled", on),
		zap.Duration("interval", a.Interval()),
		zap.Duration("startup_delay", delay),
	)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("auto sync stopped")
			return nil
		case <-startup.C:
			a.fire(ctx, "startup")
		case <-tick:
			a.fire(ctx, "tick")
		case <-a.changed:
			restart()
		}
	}
}

func (a *AutoSync) fire(ctx context.Context, trigger string) {
	if !a.Enabled() {
		return
	}
	res, err := a.runner.BackgroundSync(ctx)
	switch {
	case errors.Is(err, errs.ErrSyncInProgress):
		a.log.Debug("auto sync skipped", zap.String("trigger", trigger))
	case err != nil:
		a.log.Warn("auto sync failed", zap.String("trigger", trigger), zap.Error(err))
	default:
		a.log.Debug("auto sync done",
			zap.String("trigger", trigger),
			zap.String("outcome", string(res.Outcome)),
			zap.Int("submitted", res.Submitted),
		)
	}
}
