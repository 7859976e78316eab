package remote

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/and161185/diary-sync/internal/api/diarysyncv1"
	"github.com/and161185/diary-sync/internal/convert"
	"github.com/and161185/diary-sync/internal/model"
)

// DialConfig selects the transport security of a connection.
type DialConfig struct {
	Addr      string
	CACert    string // PEM bundle to trust; system roots when empty
	Insecure  bool   // TLS without certificate verification
	Plaintext bool   // no TLS at all, for local development
}

// GRPC implements Store and Identity over the DiaryStore service.
type GRPC struct {
	cc     *grpc.ClientConn
	client pb.DiaryStoreClient
}

var (
	_ Store    = (*GRPC)(nil)
	_ Identity = (*GRPC)(nil)
)

func loadTLS(cfg DialConfig) (credentials.TransportCredentials, error) {
	switch {
	case cfg.Plaintext:
		return insecure.NewCredentials(), nil
	case cfg.Insecure:
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // opt-in for self-signed dev servers
	case cfg.CACert == "":
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(cfg.CACert)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Dial creates a client connection. The connection is established lazily
// on the first call.
func Dial(cfg DialConfig, opts ...grpc.DialOption) (*GRPC, error) {
	if cfg.Addr == "" {
		return nil, errors.New("empty server address")
	}
	creds, err := loadTLS(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, opts...)
	cc, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPC{cc: cc, client: pb.NewDiaryStoreClient(cc)}, nil
}

// NewGRPC wraps an existing client stub.
func NewGRPC(client pb.DiaryStoreClient) *GRPC { return &GRPC{client: client} }

// Close releases the connection, if this value owns one.
func (g *GRPC) Close() error {
	if g.cc == nil {
		return nil
	}
	return g.cc.Close()
}

func (g *GRPC) CreateOrGetUser(ctx context.Context, username string) (*model.SyncUser, error) {
	resp, err := g.client.CreateOrGetUser(ctx, &pb.CreateOrGetUserRequest{LineUsername: username})
	if err != nil {
		return nil, err
	}
	return convert.FromWireUser(resp.GetUser()), nil
}

func (g *GRPC) Upsert(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) error {
	_, err := g.client.UpsertDiaries(ctx, &pb.UpsertDiariesRequest{
		Entries:          convert.ToWireDiaries(rows),
		OnConflict:       opts.OnConflict,
		IgnoreDuplicates: opts.IgnoreDuplicates,
	})
	return err
}

func (g *GRPC) DeleteByID(ctx context.Context, id string) error {
	_, err := g.client.DeleteDiary(ctx, &pb.DeleteDiaryRequest{Id: id})
	return err
}

func (g *GRPC) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	resp, err := g.client.DeleteDiaries(ctx, &pb.DeleteDiariesRequest{Ids: ids})
	if err != nil {
		return 0, err
	}
	return resp.GetDeleted(), nil
}

func (g *GRPC) Count(ctx context.Context, userID string) (int64, error) {
	resp, err := g.client.CountDiaries(ctx, &pb.UserScopeRequest{UserId: userID})
	if err != nil {
		return 0, err
	}
	return resp.GetCount(), nil
}

func (g *GRPC) DeleteUserRows(ctx context.Context, userID string) (int64, error) {
	resp, err := g.client.DeleteUserDiaries(ctx, &pb.UserScopeRequest{UserId: userID})
	if err != nil {
		return 0, err
	}
	return resp.GetDeleted(), nil
}

func (g *GRPC) DeleteMarked(ctx context.Context, userID string, markers []string) (int64, error) {
	resp, err := g.client.DeleteTestDiaries(ctx, &pb.DeleteTestDiariesRequest{UserId: userID, Markers: markers})
	if err != nil {
		return 0, err
	}
	return resp.GetDeleted(), nil
}

func (g *GRPC) RemoveDuplicates(ctx context.Context, userID string) (int64, error) {
	resp, err := g.client.RemoveDuplicateDiaries(ctx, &pb.UserScopeRequest{UserId: userID})
	if err != nil {
		return 0, err
	}
	return resp.GetDeleted(), nil
}
