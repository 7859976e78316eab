package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/normalize"
	"github.com/and161185/diary-sync/internal/remote"
)

// CleanupTestData removes test and sample entries locally and remotely.
func (o *Orchestrator) CleanupTestData(ctx context.Context) (model.CleanupResult, error) {
	return o.maintain(ctx, "cleanup test data", isTestEntry, o.remote.DeleteTestData, false)
}

// RemoveDuplicates keeps the first entry per content key locally and the
// oldest row per key remotely.
func (o *Orchestrator) RemoveDuplicates(ctx context.Context) (model.CleanupResult, error) {
	seen := map[string]struct{}{}
	dup := func(e map[string]any) bool {
		k := candidate(e).Key()
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
		return false
	}
	return o.maintain(ctx, "remove duplicates", dup, o.remote.RemoveDuplicates, false)
}

// DeleteAll clears local entries and every remote row of the user.
func (o *Orchestrator) DeleteAll(ctx context.Context) (model.CleanupResult, error) {
	all := func(map[string]any) bool { return true }
	return o.maintain(ctx, "delete all", all, o.remote.DeleteAllForUser, true)
}

// maintain drops local entries matching drop, then runs the remote side for
// the resolved user. Removed ids are forgotten so they can be synced again
// if re-created; reset clears the whole filter instead.
func (o *Orchestrator) maintain(
	ctx context.Context,
	op string,
	drop func(map[string]any) bool,
	remoteFn func(context.Context, string) (int64, error),
	reset bool,
) (model.CleanupResult, error) {
	var res model.CleanupResult
	err := o.guard(op, func() error {
		user, err := o.resolveUser(ctx)
		if err != nil {
			return err
		}
		removed, err := o.rewrite(ctx, drop)
		if err != nil {
			return err
		}
		res.LocalRemoved = len(removed)
		o.filter.Forget(removed...)

		n, err := remoteFn(ctx, user.ID)
		if err != nil {
			return err
		}
		res.RemoteRemoved = n
		if reset {
			o.filter.Reset()
		}
		o.log.Info(op,
			zap.Int("local_removed", res.LocalRemoved),
			zap.Int64("remote_removed", res.RemoteRemoved),
		)
		return nil
	})
	return res, err
}

// rewrite removes entries matching drop from local storage and returns the
// ids of the removed entries. Storage is only written when something changed.
func (o *Orchestrator) rewrite(ctx context.Context, drop func(map[string]any) bool) ([]string, error) {
	entries, err := local.ReadEntries(ctx, o.store)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedLocalData, err)
	}
	keep := entries[:0:0]
	var removed []string
	for _, e := range entries {
		if drop(e) {
			removed = append(removed, normalize.ID(e))
			continue
		}
		keep = append(keep, e)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := local.WriteEntries(ctx, o.store, keep); err != nil {
		return nil, fmt.Errorf("save %s: %w", local.KeyJournalEntries, err)
	}
	return removed, nil
}

// purge drops entries with the given ids from local storage after a
// successful remote delete. Failures are logged; the remote delete stands.
func (o *Orchestrator) purge(ctx context.Context, ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	removed, err := o.rewrite(ctx, func(e map[string]any) bool {
		_, ok := set[normalize.ID(e)]
		return ok
	})
	if err != nil {
		o.log.Warn("local purge failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		o.log.Debug("local entries purged", zap.Int("n", len(removed)))
	}
}

func isTestEntry(e map[string]any) bool {
	for _, k := range []string{"event", "realization"} {
		s, _ := e[k].(string)
		s = strings.ToLower(s)
		for _, m := range remote.TestDataMarkers {
			if strings.Contains(s, strings.ToLower(m)) {
				return true
			}
		}
	}
	return false
}
