package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
)

type fakeStore struct {
	upserted   []model.DiaryRow
	upsertOpts model.UpsertOptions
	upsertErr  error
	upserts    int
	sizes      []int
	failUpsert int // 1-based call that fails, 0 for none

	chunks    [][]string
	failChunk map[int]bool // by call index

	deleted []string
	delErr  error

	count    int64
	countErr error

	markers []string
	sawDL   bool
}

func (f *fakeStore) Upsert(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) error {
	f.upserts++
	_, f.sawDL = ctx.Deadline()
	f.sizes = append(f.sizes, len(rows))
	if f.upserts == f.failUpsert {
		return status.Error(codes.ResourceExhausted, "message too large")
	}
	f.upserted, f.upsertOpts = append([]model.DiaryRow(nil), rows...), opts
	return f.upsertErr
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.delErr
}

func (f *fakeStore) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	idx := len(f.chunks)
	f.chunks = append(f.chunks, append([]string(nil), ids...))
	if f.failChunk[idx] {
		return 0, status.Error(codes.Unavailable, "connection reset")
	}
	return int64(len(ids)), nil
}

func (f *fakeStore) Count(context.Context, string) (int64, error) { return f.count, f.countErr }

func (f *fakeStore) DeleteUserRows(context.Context, string) (int64, error) { return f.count, f.delErr }

func (f *fakeStore) DeleteMarked(_ context.Context, _ string, markers []string) (int64, error) {
	f.markers = markers
	return 2, f.delErr
}

func (f *fakeStore) RemoveDuplicates(context.Context, string) (int64, error) { return 1, f.delErr }

type fakeIdentity struct {
	user *model.SyncUser
	err  error
}

func (f fakeIdentity) CreateOrGetUser(context.Context, string) (*model.SyncUser, error) {
	return f.user, f.err
}

const uid = "1b4e28ba-2fa1-4d2b-a0e4-6f1c0a2b9c11"

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("id-%03d", i)
	}
	return out
}

func TestSyncDiaries_SanitizesAndUpserts(t *testing.T) {
	st := &fakeStore{}
	a := NewAdapter(st, nil, zaptest.NewLogger(t))

	rows := []model.DiaryRow{
		{ID: "a", UserID: "someone-else", Date: "d", Emotion: "e", UrgencyLevel: "urgent"},
		{ID: "b", Date: "d", Emotion: "e", SelfEsteemScore: model.IntPtr(0), UrgencyLevel: model.UrgencyHigh},
		{ID: "", Date: "d", Emotion: "e"},
		{ID: "c", Date: "", Emotion: "e"},
		{ID: "d", Date: "d", Emotion: ""},
	}
	res := a.SyncDiaries(context.Background(), uid, rows)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Submitted)
	require.Equal(t, model.UpsertOptions{OnConflict: "id", IgnoreDuplicates: true}, st.upsertOpts)

	require.Len(t, st.upserted, 2)
	a0, b0 := st.upserted[0], st.upserted[1]
	require.Equal(t, uid, a0.UserID)
	require.Equal(t, "", a0.UrgencyLevel)
	require.Equal(t, 50, *a0.SelfEsteemScore)
	require.Equal(t, 50, *a0.WorthlessnessScore)
	require.Equal(t, 0, *b0.SelfEsteemScore)
	require.Equal(t, model.UrgencyHigh, b0.UrgencyLevel)

	// input slice is not mutated
	require.Nil(t, rows[0].SelfEsteemScore)
	require.Equal(t, "someone-else", rows[0].UserID)
}

func TestSyncDiaries_EmptyAfterFilterIsSuccess(t *testing.T) {
	st := &fakeStore{}
	a := NewAdapter(st, nil, nil)

	res := a.SyncDiaries(context.Background(), uid, []model.DiaryRow{{ID: "x"}})
	require.True(t, res.Success)
	require.Zero(t, res.Submitted)
	require.Zero(t, st.upserts)
}

func TestSyncDiaries_FailureIsHumanReadable(t *testing.T) {
	st := &fakeStore{upsertErr: status.Error(codes.InvalidArgument, "validation: entry[0] bad user_id")}
	a := NewAdapter(st, nil, nil)

	res := a.SyncDiaries(context.Background(), uid, []model.DiaryRow{{ID: "a", Date: "d", Emotion: "e"}})
	require.False(t, res.Success)
	require.Equal(t, "validation: entry[0] bad user_id", res.Error)
}

func TestSyncDiaries_Timeout(t *testing.T) {
	st := &fakeStore{}
	NewAdapter(st, nil, nil).SyncDiaries(context.Background(), uid, []model.DiaryRow{{ID: "a", Date: "d", Emotion: "e"}})
	require.False(t, st.sawDL, "no deadline by default")

	NewAdapter(st, nil, nil, WithTimeout(time.Minute)).
		SyncDiaries(context.Background(), uid, []model.DiaryRow{{ID: "a", Date: "d", Emotion: "e"}})
	require.True(t, st.sawDL)
}

func diaryRows(n int) []model.DiaryRow {
	out := make([]model.DiaryRow, n)
	for i, id := range ids(n) {
		out[i] = model.DiaryRow{ID: id, Date: "2024-01-01", Emotion: "不安"}
	}
	return out
}

func TestSyncDiaries_SlicesLargeBatches(t *testing.T) {
	for n, want := range map[int][]int{
		1:   {1},
		200: {200},
		201: {200, 1},
		450: {200, 200, 50},
	} {
		st := &fakeStore{}
		res := NewAdapter(st, nil, nil).SyncDiaries(context.Background(), uid, diaryRows(n))
		require.True(t, res.Success, "n=%d", n)
		require.Equal(t, n, res.Submitted)
		require.Equal(t, want, st.sizes, "n=%d", n)
	}
}

func TestSyncDiaries_StopsAtFirstFailedSlice(t *testing.T) {
	st := &fakeStore{failUpsert: 2}
	res := NewAdapter(st, nil, zaptest.NewLogger(t), WithUpsertBatchSize(10)).
		SyncDiaries(context.Background(), uid, diaryRows(35))

	require.False(t, res.Success)
	require.Equal(t, "message too large", res.Error)
	require.Equal(t, 10, res.Submitted)
	require.Equal(t, []int{10, 10}, st.sizes, "later slices are not sent")
}

func TestDeleteMany_ChunkBoundaries(t *testing.T) {
	for n, wantChunks := range map[int][]int{
		0:   nil,
		100: {100},
		101: {100, 1},
		250: {100, 100, 50},
	} {
		st := &fakeStore{}
		res := NewAdapter(st, nil, nil).DeleteMany(context.Background(), ids(n))
		require.True(t, res.Success, "n=%d", n)
		require.Equal(t, int64(n), res.Deleted)
		require.Len(t, st.chunks, len(wantChunks))
		for i, size := range wantChunks {
			require.Len(t, st.chunks[i], size)
		}
	}
}

func TestDeleteMany_ContinuesAfterFailedChunk(t *testing.T) {
	st := &fakeStore{failChunk: map[int]bool{1: true}}
	res := NewAdapter(st, nil, zaptest.NewLogger(t)).DeleteMany(context.Background(), ids(250))

	require.Len(t, st.chunks, 3, "all chunks attempted")
	require.False(t, res.Success)
	require.Equal(t, int64(150), res.Deleted)
	require.Equal(t, 1, res.Failed)
	require.Contains(t, res.Error, "ids[100:200]")
	require.Contains(t, res.Error, "connection reset")
	require.Equal(t, "id-200", st.chunks[2][0])
}

func TestDeleteOne(t *testing.T) {
	st := &fakeStore{}
	a := NewAdapter(st, nil, nil)
	require.NoError(t, a.DeleteOne(context.Background(), "a"))
	require.Equal(t, []string{"a"}, st.deleted)

	st.delErr = status.Error(codes.Internal, "delete: db down")
	err := a.DeleteOne(context.Background(), "b")
	require.ErrorIs(t, err, errs.ErrSubmission)
	require.Contains(t, err.Error(), "db down")
}

func TestResolveUser(t *testing.T) {
	want := &model.SyncUser{ID: uid, LineUsername: "alice"}
	u, err := NewAdapter(nil, fakeIdentity{user: want}, nil).ResolveUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, want, u)

	u, err = NewAdapter(nil, fakeIdentity{}, nil).ResolveUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Nil(t, u)

	_, err = NewAdapter(nil, fakeIdentity{err: errors.New("offline")}, nil).ResolveUser(context.Background(), "alice")
	require.ErrorIs(t, err, errs.ErrUserResolution)
}

func TestMaintenance(t *testing.T) {
	ctx := context.Background()
	st := &fakeStore{count: 9}
	a := NewAdapter(st, nil, nil)

	n, err := a.Count(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)

	n, err = a.DeleteAllForUser(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)

	n, err = a.DeleteTestData(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, TestDataMarkers, st.markers)

	n, err = a.RemoveDuplicates(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	st.delErr = errors.New("boom")
	st.countErr = errors.New("boom")
	_, err = a.Count(ctx, uid)
	require.Error(t, err)
	_, err = a.DeleteAllForUser(ctx, uid)
	require.ErrorIs(t, err, errs.ErrSubmission)
	_, err = a.DeleteTestData(ctx, uid)
	require.ErrorIs(t, err, errs.ErrSubmission)
	_, err = a.RemoveDuplicates(ctx, uid)
	require.ErrorIs(t, err, errs.ErrSubmission)
}

func TestMessage(t *testing.T) {
	require.Equal(t, "", Message(nil))
	require.Equal(t, "plain", Message(errors.New("plain")))
	require.Equal(t, "not found", Message(status.Error(codes.NotFound, "not found")))
}
