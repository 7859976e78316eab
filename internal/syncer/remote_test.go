package syncer

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/and161185/diary-sync/internal/api/diarysyncv1"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/remote"
	"github.com/and161185/diary-sync/internal/repository/memory"
	grpcserver "github.com/and161185/diary-sync/internal/server/grpc"
	"github.com/and161185/diary-sync/internal/service"
)

// dialMemory serves a DiaryStore with the default server batch limit over
// bufconn and returns a real adapter talking to it.
func dialMemory(t *testing.T) (*remote.Adapter, *memory.Store) {
	t.Helper()
	st := memory.New()
	srv := grpcserver.New(service.NewIdentityService(st.Users()), service.NewDiaryService(st.Diaries(), 0))

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	pb.RegisterDiaryStoreServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() })

	g := remote.NewGRPC(pb.NewDiaryStoreClient(cc))
	return remote.NewAdapter(g, g, zaptest.NewLogger(t)), st
}

func TestSync_LargeJournalOverGRPC(t *testing.T) {
	const n = 1201 // above the server's default max_batch of 1000

	parts := make([]string, n)
	for i := range parts {
		id := fmt.Sprintf("00000000-0000-4000-8000-%012d", i)
		parts[i] = entry(id, "2024-02-01", "不安", fmt.Sprintf("event %d", i), "r")
	}
	a, st := dialMemory(t)
	store := local.NewMemory(map[string]string{
		local.KeyLineUsername:   "alice",
		local.KeyJournalEntries: "[" + strings.Join(parts, ",") + "]",
	})
	o := New(store, a, WithLogger(zaptest.NewLogger(t)))
	ctx := context.Background()

	res, err := o.ManualSync(ctx)
	require.NoError(t, err)
	require.Equal(t, model.OutcomeSynced, res.Outcome)
	require.Equal(t, n, res.Submitted)
	require.Equal(t, n, st.Diaries().Len())

	res, err = o.BackgroundSync(ctx)
	require.NoError(t, err)
	require.Equal(t, model.OutcomeNoNew, res.Outcome)

	cnt, err := o.RemoteCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, n, cnt)
}
