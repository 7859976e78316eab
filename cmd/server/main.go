// Command diarysync-server serves the DiaryStore gRPC API over PostgreSQL.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	pb "github.com/and161185/diary-sync/internal/api/diarysyncv1"
	"github.com/and161185/diary-sync/internal/config"
	"github.com/and161185/diary-sync/internal/logging"
	"github.com/and161185/diary-sync/internal/migrate"
	"github.com/and161185/diary-sync/internal/repository"
	"github.com/and161185/diary-sync/internal/repository/memory"
	"github.com/and161185/diary-sync/internal/repository/postgres"
	grpcserver "github.com/and161185/diary-sync/internal/server/grpc"
	"github.com/and161185/diary-sync/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	stopTimeout    = 5 * time.Second
	healthInterval = 15 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	config.SetServerDefaults(v)
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "diarysync-server",
		Short:         "Serve the diary store over gRPC",
		Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Read(v, cfgFile); err != nil {
				return err
			}
			cfg, err := config.LoadServer(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default: diarysync.yaml in the config dir)")
	f.String("addr", ":8443", "listen address")
	f.String("dsn", "", "PostgreSQL DSN")
	f.String("tls-cert", "", "TLS certificate (PEM); plaintext when empty")
	f.String("tls-key", "", "TLS private key (PEM)")
	f.Int("max-batch", 1000, "max upsert batch size")
	f.Bool("dev", false, "enable server reflection and the development log encoder")
	f.Bool("memory", false, "keep data in memory instead of PostgreSQL (dev only)")
	f.String("log-level", "info", "log level")
	f.String("log-file", "", "also write JSON logs to this rotated file")
	for key, name := range map[string]string{
		config.KeyAddr:     "addr",
		config.KeyDSN:      "dsn",
		config.KeyTLSCert:  "tls-cert",
		config.KeyTLSKey:   "tls-key",
		config.KeyMaxBatch: "max-batch",
		config.KeyDev:      "dev",
		config.KeyMemory:   "memory",
		config.KeyLogLevel: "log-level",
		config.KeyLogFile:  "log-file",
	} {
		_ = v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

// backend opens the repositories. ping is nil for the memory backend.
type backend struct {
	users   repository.UserRepository
	diaries repository.DiaryRepository
	ping    func(context.Context) error
	close   func()
}

func openBackend(ctx context.Context, cfg config.Server, log *zap.Logger) (*backend, error) {
	if cfg.Memory {
		log.Warn("using in-memory store; data is lost on exit")
		st := memory.New()
		return &backend{users: st.Users(), diaries: st.Diaries(), close: func() {}}, nil
	}
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required (or --memory)")
	}
	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	db, err := postgres.New(ctx, cfg.DSN, 0)
	if err != nil {
		return nil, err
	}
	return &backend{
		users:   postgres.NewUserRepo(db),
		diaries: postgres.NewDiaryRepo(db),
		ping:    db.Ping,
		close:   db.Close,
	}, nil
}

func run(ctx context.Context, cfg config.Server) error {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File, cfg.Dev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
		),
	}
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled; serving plaintext")
	}
	s := grpc.NewServer(opts...)

	app := grpcserver.New(
		service.NewIdentityService(be.users),
		service.NewDiaryService(be.diaries, cfg.MaxBatch),
	)
	pb.RegisterDiaryStoreServer(s, app)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if be.ping != nil {
		go watchHealth(ctx, hs, be.ping, logger)
	}
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.TLSCert != ""))
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(stopTimeout):
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

// watchHealth flips the DiaryStore health status with database reachability.
func watchHealth(ctx context.Context, hs *health.Server, ping func(context.Context) error, log *zap.Logger) {
	t := time.NewTicker(healthInterval)
	defer t.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			err := ping(ctx)
			if ok := err == nil; ok != serving {
				serving = ok
				st := healthpb.HealthCheckResponse_SERVING
				if !ok {
					st = healthpb.HealthCheckResponse_NOT_SERVING
					log.Warn("database unreachable", zap.Error(err))
				} else {
					log.Info("database reachable again")
				}
				hs.SetServingStatus(pb.ServiceName, st)
			}
		}
	}
}
