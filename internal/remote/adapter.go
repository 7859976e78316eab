// Package remote submits canonical diary rows to the hosted store and
// resolves the owning identity.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
)

// ChunkSize is the number of ids sent per bulk delete request.
const ChunkSize = 100

// UpsertBatchSize is the number of rows sent per upsert request. It stays
// well below the server's max_batch and the default 4MB message limit.
const UpsertBatchSize = 200

// TestDataMarkers identify entries written as test or sample content.
var TestDataMarkers = []string{"テスト", "サンプル", "test"}

// Store is the remote diary store.
type Store interface {
	Upsert(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) error
	DeleteByID(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context, userID string) (int64, error)
	DeleteUserRows(ctx context.Context, userID string) (int64, error)
	DeleteMarked(ctx context.Context, userID string, markers []string) (int64, error)
	RemoveDuplicates(ctx context.Context, userID string) (int64, error)
}

// Identity resolves a user name to a remote user. A nil user with a nil
// error means the service answered without a user.
type Identity interface {
	CreateOrGetUser(ctx context.Context, username string) (*model.SyncUser, error)
}

// Adapter wraps Store and Identity with the submission rules of the sync engine.
type Adapter struct {
	store    Store
	identity Identity
	log      *zap.Logger
	chunk    int
	batch    int
	timeout  time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout bounds every remote call. Zero means no bound.
func WithTimeout(d time.Duration) Option { return func(a *Adapter) { a.timeout = d } }

// WithChunkSize overrides ChunkSize for bulk deletes.
func WithChunkSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.chunk = n
		}
	}
}

// WithUpsertBatchSize overrides UpsertBatchSize.
func WithUpsertBatchSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.batch = n
		}
	}
}

// NewAdapter builds an Adapter. A nil logger is replaced by a no-op one.
func NewAdapter(store Store, identity Identity, log *zap.Logger, opts ...Option) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Adapter{store: store, identity: identity, log: log, chunk: ChunkSize, batch: UpsertBatchSize}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// Message renders err for display. gRPC status errors lose their code prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if st, ok := status.FromError(err); ok {
		return st.Message()
	}
	return err.Error()
}

// Sanitize applies the submission rules to rows: rows missing id, date or
// emotion are dropped, nil scores become model.DefaultScore, unknown urgency
// becomes "" and user_id is stamped with userID.
func Sanitize(userID string, rows []model.DiaryRow) []model.DiaryRow {
	out := make([]model.DiaryRow, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" || r.Date == "" || r.Emotion == "" {
			continue
		}
		r.UserID = userID
		r.SelfEsteemScore = model.IntPtr(model.Score(r.SelfEsteemScore))
		r.WorthlessnessScore = model.IntPtr(model.Score(r.WorthlessnessScore))
		if !model.ValidUrgency(r.UrgencyLevel) {
			r.UrgencyLevel = ""
		}
		out = append(out, r)
	}
	return out
}

// SyncDiaries submits rows as upserts keyed by id that leave existing ids
// untouched. Rows go out in slices of the upsert batch size; the first failed
// slice ends the call and the result reports failure. Slices sent before it
// stay stored, which is harmless since a retry skips existing ids.
func (a *Adapter) SyncDiaries(ctx context.Context, userID string, rows []model.DiaryRow) model.SubmitResult {
	clean := Sanitize(userID, rows)
	if dropped := len(rows) - len(clean); dropped > 0 {
		a.log.Debug("rows dropped before submission", zap.Int("dropped", dropped))
	}

	var res model.SubmitResult
	for start := 0; start < len(clean); start += a.batch {
		end := min(start+a.batch, len(clean))
		if err := a.upsert(ctx, clean[start:end]); err != nil {
			a.log.Warn("upsert failed",
				zap.Int("from", start), zap.Int("to", end), zap.Int("rows", len(clean)), zap.Error(err))
			res.Error = Message(err)
			return res
		}
		res.Submitted = end
	}
	res.Success = true
	return res
}

func (a *Adapter) upsert(ctx context.Context, rows []model.DiaryRow) error {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	return a.store.Upsert(ctx, rows, model.UpsertOptions{OnConflict: "id", IgnoreDuplicates: true})
}

// DeleteOne removes a single remote row.
func (a *Adapter) DeleteOne(ctx context.Context, id string) error {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	if err := a.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("%w: delete %s: %s", errs.ErrSubmission, id, Message(err))
	}
	return nil
}

// DeleteMany removes ids in chunks. A failing chunk does not stop the
// remaining ones; Success is false if any chunk failed and Deleted counts
// only rows removed by successful chunks.
func (a *Adapter) DeleteMany(ctx context.Context, ids []string) model.DeleteResult {
	res := model.DeleteResult{Success: true}
	var msgs []string
	for start := 0; start < len(ids); start += a.chunk {
		end := min(start+a.chunk, len(ids))
		n, err := a.deleteChunk(ctx, ids[start:end])
		if err != nil {
			a.log.Warn("delete chunk failed",
				zap.Int("from", start), zap.Int("to", end), zap.Error(err))
			res.Success = false
			res.Failed++
			msgs = append(msgs, fmt.Sprintf("ids[%d:%d]: %s", start, end, Message(err)))
			continue
		}
		res.Deleted += n
	}
	res.Error = strings.Join(msgs, "; ")
	return res
}

func (a *Adapter) deleteChunk(ctx context.Context, ids []string) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	return a.store.DeleteByIDs(ctx, ids)
}

// Count returns the number of remote rows owned by userID.
func (a *Adapter) Count(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	n, err := a.store.Count(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count: %s", Message(err))
	}
	return n, nil
}

// ResolveUser returns the remote user for username, creating it on first use.
func (a *Adapter) ResolveUser(ctx context.Context, username string) (*model.SyncUser, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	u, err := a.identity.CreateOrGetUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrUserResolution, Message(err))
	}
	return u, nil
}

// DeleteAllForUser removes every remote row owned by userID.
func (a *Adapter) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	n, err := a.store.DeleteUserRows(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete all: %s", errs.ErrSubmission, Message(err))
	}
	return n, nil
}

// DeleteTestData removes remote rows of userID that carry a TestDataMarkers entry.
func (a *Adapter) DeleteTestData(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	n, err := a.store.DeleteMarked(ctx, userID, TestDataMarkers)
	if err != nil {
		return 0, fmt.Errorf("%w: delete test data: %s", errs.ErrSubmission, Message(err))
	}
	return n, nil
}

// RemoveDuplicates collapses remote rows of userID that share a content key.
func (a *Adapter) RemoveDuplicates(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()
	n, err := a.store.RemoveDuplicates(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: remove duplicates: %s", errs.ErrSubmission, Message(err))
	}
	return n, nil
}
