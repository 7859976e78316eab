// Package syncer runs sync passes that reconcile locally stored diary
// entries with the remote store, and schedules them.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/diary-sync/internal/dedup"
	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/ident"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/normalize"
)

// Remote is the submission side of a pass. *remote.Adapter implements it.
type Remote interface {
	SyncDiaries(ctx context.Context, userID string, rows []model.DiaryRow) model.SubmitResult
	DeleteOne(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) model.DeleteResult
	Count(ctx context.Context, userID string) (int64, error)
	ResolveUser(ctx context.Context, username string) (*model.SyncUser, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteTestData(ctx context.Context, userID string) (int64, error)
	RemoveDuplicates(ctx context.Context, userID string) (int64, error)
}

// Orchestrator owns the session state of the sync engine: the reentrancy
// flag, the dedup filter, the cached user and the status snapshot.
// Every trigger path (manual, background, delete, maintenance) goes through
// the same flag; a trigger that finds it taken fails with
// errs.ErrSyncInProgress and changes nothing.
type Orchestrator struct {
	store  local.Store
	remote Remote
	log    *zap.Logger
	now    func() time.Time

	running atomic.Bool
	filter  *dedup.Filter // accessed only while running is held

	mu      sync.Mutex
	state   model.State
	lastErr string
	user    *model.SyncUser
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// New builds an Orchestrator in the Idle state.
func New(store local.Store, remote Remote, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		remote: remote,
		log:    zap.NewNop(),
		now:    time.Now,
		filter: dedup.NewFilter(),
		state:  model.StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// guard runs fn as one exclusive pass and records its outcome.
func (o *Orchestrator) guard(op string, fn func() error) error {
	if !o.running.CompareAndSwap(false, true) {
		o.log.Debug("trigger rejected", zap.String("op", op))
		return errs.ErrSyncInProgress
	}
	defer o.running.Store(false)

	o.setState(model.StateSyncing, nil)
	start := time.Now()
	err := fn()
	o.setState(model.StateIdle, err)
	if err != nil {
		o.log.Warn("pass failed", zap.String("op", op), zap.Duration("dur", time.Since(start)), zap.Error(err))
		return err
	}
	o.log.Debug("pass done", zap.String("op", op), zap.Duration("dur", time.Since(start)))
	return nil
}

func (o *Orchestrator) setState(s model.State, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch {
	case s == model.StateSyncing:
		o.state = s
	case err != nil:
		o.state = model.StateIdleError
		o.lastErr = err.Error()
	default:
		o.state = model.StateIdle
		o.lastErr = ""
	}
}

// ManualSync clears all dedup state and submits every eligible local entry.
func (o *Orchestrator) ManualSync(ctx context.Context) (model.SyncResult, error) {
	var res model.SyncResult
	err := o.guard("manual", func() error {
		o.filter.Reset()
		var err error
		res, err = o.pass(ctx, normalize.ModeManual)
		return err
	})
	return res, err
}

// BackgroundSync submits local entries not yet seen by this process.
func (o *Orchestrator) BackgroundSync(ctx context.Context) (model.SyncResult, error) {
	var res model.SyncResult
	err := o.guard("background", func() error {
		var err error
		res, err = o.pass(ctx, normalize.ModeBackground)
		return err
	})
	return res, err
}

func (o *Orchestrator) pass(ctx context.Context, mode normalize.Mode) (model.SyncResult, error) {
	user, err := o.resolveUser(ctx)
	if err != nil {
		return model.SyncResult{}, err
	}

	raw, ok, err := o.store.Get(ctx, local.KeyJournalEntries)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("read local entries: %w", err)
	}
	if !ok {
		return o.finish(ctx, model.SyncResult{Outcome: model.OutcomeNoData})
	}
	entries, err := local.DecodeEntries(raw)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("%w: %v", errs.ErrMalformedLocalData, err)
	}
	if len(entries) == 0 {
		return o.finish(ctx, model.SyncResult{Outcome: model.OutcomeNoData})
	}

	eligible := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		if normalize.Eligible(e, mode) {
			eligible = append(eligible, e)
		}
	}
	res := model.SyncResult{Total: len(entries), Eligible: len(eligible)}

	fresh, batch := dedup.Select(o.filter, eligible, candidate)
	if len(fresh) == 0 {
		res.Outcome = model.OutcomeNoNew
		return o.finish(ctx, res)
	}

	now := o.now()
	rows := make([]model.DiaryRow, 0, len(fresh))
	for _, e := range fresh {
		row, err := normalize.Entry(e, user.ID, now)
		if err != nil {
			// Eligible already checked the required fields.
			o.log.Warn("entry skipped", zap.Error(err))
			continue
		}
		o.checkID(row.ID)
		rows = append(rows, row)
	}

	sub := o.remote.SyncDiaries(ctx, user.ID, rows)
	if !sub.Success {
		return model.SyncResult{}, fmt.Errorf("%w: %s", errs.ErrSubmission, sub.Error)
	}

	o.filter.Commit(batch)
	res.Outcome = model.OutcomeSynced
	res.Submitted = sub.Submitted
	o.log.Info("entries synced",
		zap.String("mode", mode.String()),
		zap.Int("total", res.Total),
		zap.Int("eligible", res.Eligible),
		zap.Int("submitted", res.Submitted),
	)
	return o.finish(ctx, res)
}

// checkID logs a replacement for ids that are not UUIDs. The original id is
// still the one submitted.
func (o *Orchestrator) checkID(id string) {
	fixed, replaced, err := ident.Repair(id)
	switch {
	case err != nil:
		o.log.Warn("id replacement failed", zap.String("id", id), zap.Error(err))
	case replaced:
		o.log.Warn("non-standard entry id", zap.String("id", id), zap.String("replacement", fixed))
	}
}

func candidate(e map[string]any) dedup.Candidate {
	date, emotion, event := normalize.Fields(e)
	return dedup.Candidate{ID: normalize.ID(e), Date: date, Emotion: emotion, Event: event}
}

// finish advances last_sync_time and stamps res.
func (o *Orchestrator) finish(ctx context.Context, res model.SyncResult) (model.SyncResult, error) {
	res.SyncedAt = o.now()
	if err := o.touch(ctx, res.SyncedAt); err != nil {
		return model.SyncResult{}, err
	}
	return res, nil
}

func (o *Orchestrator) touch(ctx context.Context, t time.Time) error {
	if err := o.store.Set(ctx, local.KeyLastSyncTime, normalize.Timestamp(t)); err != nil {
		return fmt.Errorf("save %s: %w", local.KeyLastSyncTime, err)
	}
	return nil
}

// resolveUser returns the cached user or resolves it from the configured
// user name, retrying once when the first answer is unusable.
func (o *Orchestrator) resolveUser(ctx context.Context) (*model.SyncUser, error) {
	if u := o.cachedUser(); u != nil && ident.Valid(u.ID) {
		return u, nil
	}

	name, ok, err := o.store.Get(ctx, local.KeyLineUsername)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", local.KeyLineUsername, err)
	}
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, errs.ErrNoUsername
	}

	var last error
	for attempt := 1; attempt <= 2; attempt++ {
		u, err := o.remote.ResolveUser(ctx, name)
		switch {
		case err != nil:
			last = err
		case u == nil:
			last = fmt.Errorf("%w: no user returned", errs.ErrUserResolution)
		case !ident.Valid(u.ID):
			last = fmt.Errorf("%w: invalid user id %q", errs.ErrUserResolution, u.ID)
		default:
			o.setUser(u)
			return u, nil
		}
		o.log.Warn("user resolution failed", zap.Int("attempt", attempt), zap.Error(last))
	}
	o.setUser(nil)
	if errors.Is(last, errs.ErrUserResolution) {
		return nil, last
	}
	return nil, fmt.Errorf("%w: %v", errs.ErrUserResolution, last)
}

func (o *Orchestrator) cachedUser() *model.SyncUser {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.user
}

func (o *Orchestrator) setUser(u *model.SyncUser) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.user = u
}

// ForgetUser drops the cached identity, e.g. after the user name changed.
func (o *Orchestrator) ForgetUser() { o.setUser(nil) }

// DeleteEntry removes one entry from the remote store, then locally.
func (o *Orchestrator) DeleteEntry(ctx context.Context, id string) error {
	return o.guard("delete", func() error {
		if err := o.remote.DeleteOne(ctx, id); err != nil {
			return err
		}
		o.filter.Forget(id)
		o.purge(ctx, []string{id})
		return o.touch(ctx, o.now())
	})
}

// BulkDelete removes ids from the remote store in chunks. The result is
// returned even when some chunks failed; local entries are only purged when
// every chunk succeeded.
func (o *Orchestrator) BulkDelete(ctx context.Context, ids []string) (model.DeleteResult, error) {
	var res model.DeleteResult
	err := o.guard("bulk delete", func() error {
		if len(ids) == 0 {
			res = model.DeleteResult{Success: true}
			return nil
		}
		res = o.remote.DeleteMany(ctx, ids)
		o.filter.Forget(ids...)
		// The attempt is stamped even when some chunks failed.
		touchErr := o.touch(ctx, o.now())
		if !res.Success {
			if touchErr != nil {
				o.log.Warn("last sync time not saved", zap.Error(touchErr))
			}
			return fmt.Errorf("%w: %d of %d ids deleted: %s", errs.ErrSubmission, res.Deleted, len(ids), res.Error)
		}
		o.purge(ctx, ids)
		return touchErr
	})
	return res, err
}

// Status returns a snapshot of the orchestrator and the persisted state.
// It never touches the network.
func (o *Orchestrator) Status(ctx context.Context) (model.Status, error) {
	o.mu.Lock()
	st := model.Status{State: o.state, LastError: o.lastErr}
	if o.user != nil {
		u := *o.user
		st.User = &u
	}
	o.mu.Unlock()

	last, _, err := o.store.Get(ctx, local.KeyLastSyncTime)
	if err != nil {
		return st, err
	}
	st.LastSyncTime = last
	if st.AutoSyncEnabled, err = local.AutoSyncEnabled(ctx, o.store); err != nil {
		return st, err
	}
	entries, err := local.ReadEntries(ctx, o.store)
	if err != nil {
		return st, fmt.Errorf("%w: %v", errs.ErrMalformedLocalData, err)
	}
	for _, e := range entries {
		if e != nil {
			st.LocalCount++
		}
	}
	return st, nil
}

// RemoteCount resolves the user if needed and counts their remote rows.
func (o *Orchestrator) RemoteCount(ctx context.Context) (int64, error) {
	u, err := o.resolveUser(ctx)
	if err != nil {
		return 0, err
	}
	return o.remote.Count(ctx, u.ID)
}
