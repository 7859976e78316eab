// Package memory contains in-process implementations of repository
// interfaces, used for local development servers and end-to-end tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
)

// Store holds users and diary rows behind one lock.
type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byName  map[string]uuid.UUID
	diaries map[string]model.DiaryRow
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   map[uuid.UUID]model.User{},
		byName:  map[string]uuid.UUID{},
		diaries: map[string]model.DiaryRow{},
	}
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Diaries returns a DiaryRepository view of the store.
func (s *Store) Diaries() *DiaryRepo { return &DiaryRepo{s: s} }

// UserRepo implements UserRepository in memory.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.byName[u.LineUsername]; ok {
		return errs.ErrAlreadyExists
	}
	if _, ok := r.s.users[u.ID]; ok {
		return errs.ErrAlreadyExists
	}
	nu := *u
	if nu.CreatedAt.IsZero() {
		nu.CreatedAt = time.Now().UTC()
	}
	r.s.users[u.ID] = nu
	r.s.byName[u.LineUsername] = u.ID
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.byName[username]
	if !ok {
		return nil, errs.ErrNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

// DiaryRepo implements DiaryRepository in memory.
type DiaryRepo struct{ s *Store }

func (r *DiaryRepo) UpsertBatch(_ context.Context, rows []model.DiaryRow, opts model.UpsertOptions) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, row := range rows {
		if _, ok := r.s.diaries[row.ID]; ok && opts.IgnoreDuplicates {
			continue
		}
		row.SelfEsteemScore = model.IntPtr(model.Score(row.SelfEsteemScore))
		row.WorthlessnessScore = model.IntPtr(model.Score(row.WorthlessnessScore))
		r.s.diaries[row.ID] = row
		n++
	}
	return n, nil
}

func (r *DiaryRepo) DeleteByID(_ context.Context, id string) (int64, error) {
	return r.deleteWhere(func(row model.DiaryRow) bool { return row.ID == id }), nil
}

func (r *DiaryRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.deleteWhere(func(row model.DiaryRow) bool {
		_, ok := set[row.ID]
		return ok
	}), nil
}

func (r *DiaryRepo) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	uid := userID.String()
	return r.deleteWhere(func(row model.DiaryRow) bool { return strings.EqualFold(row.UserID, uid) }), nil
}

func (r *DiaryRepo) DeleteMarked(_ context.Context, userID uuid.UUID, markers []string) (int64, error) {
	uid := userID.String()
	return r.deleteWhere(func(row model.DiaryRow) bool {
		if !strings.EqualFold(row.UserID, uid) {
			return false
		}
		ev, re := strings.ToLower(row.Event), strings.ToLower(row.Realization)
		for _, m := range markers {
			m = strings.ToLower(m)
			if strings.Contains(ev, m) || strings.Contains(re, m) {
				return true
			}
		}
		return false
	}), nil
}

// leftKey mirrors the postgres partition key (date, emotion, left(event, 50)),
// where left counts characters.
func leftKey(row model.DiaryRow) string {
	ev := []rune(row.Event)
	if len(ev) > 50 {
		ev = ev[:50]
	}
	return row.Date + "_" + row.Emotion + "_" + string(ev)
}

// DeleteDuplicates keeps the row with the smallest (created_at, id) per content key.
func (r *DiaryRepo) DeleteDuplicates(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	uid := userID.String()
	var owned []model.DiaryRow
	for _, row := range r.s.diaries {
		if strings.EqualFold(row.UserID, uid) {
			owned = append(owned, row)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt != owned[j].CreatedAt {
			return owned[i].CreatedAt < owned[j].CreatedAt
		}
		return owned[i].ID < owned[j].ID
	})

	seen := map[string]struct{}{}
	var n int64
	for _, row := range owned {
		k := leftKey(row)
		if _, dup := seen[k]; dup {
			delete(r.s.diaries, row.ID)
			n++
			continue
		}
		seen[k] = struct{}{}
	}
	return n, nil
}

func (r *DiaryRepo) CountByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	uid := userID.String()
	var n int64
	for _, row := range r.s.diaries {
		if strings.EqualFold(row.UserID, uid) {
			n++
		}
	}
	return n, nil
}

// Get returns a stored row by id.
func (r *DiaryRepo) Get(id string) (model.DiaryRow, bool) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	row, ok := r.s.diaries[id]
	return row, ok
}

// Len returns the total number of stored rows.
func (r *DiaryRepo) Len() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.diaries)
}

func (r *DiaryRepo) deleteWhere(match func(model.DiaryRow) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, row := range r.s.diaries {
		if match(row) {
			delete(r.s.diaries, id)
			n++
		}
	}
	return n
}
