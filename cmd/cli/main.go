// Command diarysync syncs locally stored diary entries to the diary store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/and161185/diary-sync/internal/config"
	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/logging"
	"github.com/and161185/diary-sync/internal/remote"
	"github.com/and161185/diary-sync/internal/syncer"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	root, cleanup := newRootCmd()
	err := root.Execute()
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 3 when another pass was running, 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, errs.ErrSyncInProgress) {
		return 3
	}
	return 1
}

// app holds what a command needs. The remote side is opened on demand so
// local-only commands work without a reachable server.
type app struct {
	v        *viper.Viper
	cfgFile  string
	dialOpts []grpc.DialOption

	cfg   config.Client
	log   *zap.Logger
	store *local.SQLite
	conn  *remote.GRPC
	orch  *syncer.Orchestrator
}

// newRootCmd builds the command tree. cleanup releases whatever the
// executed command opened.
func newRootCmd(dialOpts ...grpc.DialOption) (root *cobra.Command, cleanup func()) {
	a := &app{v: config.New(), dialOpts: dialOpts}
	config.SetClientDefaults(a.v)

	root = &cobra.Command{
		Use:           "diarysync",
		Short:         "Sync diary entries from local storage to the diary store",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.open(cmd.Context())
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgFile, "config", "", "config file (default: diarysync.yaml in the config dir)")
	f.String("server", "localhost:8443", "server address")
	f.String("cacert", "", "CA certificate (PEM)")
	f.Bool("insecure", false, "skip certificate verification (dev)")
	f.Bool("plaintext", false, "connect without TLS (dev)")
	f.String("local", "", "local database path")
	f.String("user", "", "user name, stored when none is set yet")
	f.Duration("remote-timeout", 0, "deadline for each remote call (0: none)")
	f.String("log-level", "info", "log level")
	f.String("log-file", "", "also write JSON logs to this rotated file")
	for key, name := range map[string]string{
		config.KeyServerAddr:      "server",
		config.KeyServerCACert:    "cacert",
		config.KeyServerInsecure:  "insecure",
		config.KeyServerPlaintext: "plaintext",
		config.KeyLocalPath:       "local",
		config.KeyUserName:        "user",
		config.KeyRemoteTimeout:   "remote-timeout",
		config.KeyLogLevel:        "log-level",
		config.KeyLogFile:         "log-file",
	} {
		_ = a.v.BindPFlag(key, f.Lookup(name))
	}
	root.AddCommand(
		newSyncCmd(a),
		newDaemonCmd(a),
		newDeleteCmd(a),
		newStatusCmd(a),
		newUserCmd(a),
		newAutoSyncCmd(a),
		newEntriesCmd(a),
		newCleanupCmd(a),
		newVersionCmd(),
	)
	return root, a.close
}

func (a *app) open(ctx context.Context) error {
	if err := config.Read(a.v, a.cfgFile); err != nil {
		return err
	}
	a.cfg = config.LoadClient(a.v)

	log, err := logging.New(a.cfg.Log.Level, a.cfg.Log.File, false)
	if err != nil {
		return err
	}
	a.log = log

	store, err := local.Open(ctx, a.cfg.LocalPath)
	if err != nil {
		return fmt.Errorf("open local store: %w", err)
	}
	a.store = store

	if a.cfg.UserName != "" {
		if _, ok, err := store.Get(ctx, local.KeyLineUsername); err != nil {
			return err
		} else if !ok {
			if err := store.Set(ctx, local.KeyLineUsername, a.cfg.UserName); err != nil {
				return err
			}
		}
	}
	return nil
}

// orchestrator dials the server and builds the sync engine.
func (a *app) orchestrator() (*syncer.Orchestrator, error) {
	if a.orch != nil {
		return a.orch, nil
	}
	conn, err := remote.Dial(remote.DialConfig{
		Addr:      a.cfg.ServerAddr,
		CACert:    a.cfg.CACert,
		Insecure:  a.cfg.Insecure,
		Plaintext: a.cfg.Plaintext,
	}, a.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", a.cfg.ServerAddr, err)
	}
	a.conn = conn
	adapter := remote.NewAdapter(conn, conn, a.log, remote.WithTimeout(a.cfg.RemoteTimeout))
	a.orch = syncer.New(a.store, adapter, syncer.WithLogger(a.log))
	return a.orch, nil
}

func (a *app) close() {
	if a.conn != nil {
		_ = a.conn.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// onOff parses an on/off style argument.
func onOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", s)
}

func setUser(ctx context.Context, s local.Store, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty user name")
	}
	if err := s.Set(ctx, local.KeyLineUsername, name); err != nil {
		return "", err
	}
	return name, nil
}
