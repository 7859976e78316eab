package grpcserver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type tcpAddr string

func (tcpAddr) Network() string  { return "tcp" }
func (a tcpAddr) String() string { return string(a) }

var upsertInfo = &grpc.UnaryServerInfo{FullMethod: "/diarysync.v1.DiaryStore/UpsertDiaries"}

func TestLoggingUnary_PassesThroughAndRecordsPeer(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ic := LoggingUnary(zap.New(core))
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: tcpAddr("10.0.0.7:5100")})

	resp, err := ic(ctx, "rows", upsertInfo, func(context.Context, any) (any, error) { return 3, nil })
	require.NoError(t, err)
	require.Equal(t, 3, resp)

	wantErr := errors.New("db gone")
	_, err = ic(ctx, "rows", upsertInfo, func(context.Context, any) (any, error) { return nil, wantErr })
	require.ErrorIs(t, err, wantErr)

	all := logs.All()
	require.Len(t, all, 2)
	fields := all[0].ContextMap()
	require.Equal(t, "10.0.0.7:5100", fields["peer"])
	require.Equal(t, "OK", fields["code"])
	require.Contains(t, fields, "dur")
	require.Equal(t, "Unknown", all[1].ContextMap()["code"])
}

func TestLoggingUnary_NeverLogsPayload(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ic := LoggingUnary(zap.New(core))

	_, _ = ic(context.Background(), "today was hard", upsertInfo, func(context.Context, any) (any, error) {
		return "stored", nil
	})

	for _, v := range logs.All()[0].ContextMap() {
		require.NotEqual(t, "today was hard", v)
		require.NotEqual(t, "stored", v)
	}
}

func TestLoggingUnary_LevelFollowsCode(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ic := LoggingUnary(zap.New(core))

	for _, err := range []error{
		nil,
		status.Error(codes.InvalidArgument, "bad entries"),
		status.Error(codes.Internal, "db"),
	} {
		_, _ = ic(context.Background(), "req", upsertInfo, func(context.Context, any) (any, error) { return nil, err })
	}

	var got []zapcore.Level
	for _, e := range logs.All() {
		require.Equal(t, upsertInfo.FullMethod, e.ContextMap()["method"])
		got = append(got, e.Level)
	}
	require.Equal(t, []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, got)
}

func TestRecoverUnary(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ic := RecoverUnary(zap.New(core))

	resp, err := ic(context.Background(), "req", upsertInfo, func(context.Context, any) (any, error) {
		panic("nil row")
	})
	require.Nil(t, resp)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1, logs.FilterMessage("handler panic").Len())

	resp, err = ic(context.Background(), "req", upsertInfo, func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Equal(t, 1, logs.Len())
}
