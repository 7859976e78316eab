package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/diary-sync/internal/config"
	"github.com/and161185/diary-sync/internal/local"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/syncer"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "diarysync %s (%s)\n", version, buildDate)
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	var background bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Submit local entries to the server",
		Long: `Submit local entries to the server.

A manual sync (the default) forgets what this process submitted before and
sends every entry with an id, date and emotion. --background only sends
entries that also have an event and a realization.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			run := o.ManualSync
			if background {
				run = o.BackgroundSync
			}
			res, err := run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&background, "background", false, "apply the background eligibility rules")
	return cmd
}

func newDaemonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Sync in the background until interrupted",
		Long: `Run background syncs every sync.interval while auto sync is on.

The interval is re-read when the config file changes. Toggling auto sync
with "diarysync autosync" from another process takes effect on restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			auto := syncer.NewAutoSync(o, a.store, a.log, a.cfg.Interval, a.cfg.StartupDelay)
			config.Watch(a.v, a.log, func(c config.Client) {
				if err := auto.SetInterval(c.Interval); err != nil {
					a.log.Warn("ignoring config change", zap.Error(err))
				}
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return auto.Run(ctx)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete entries on the server and locally",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			if len(ids) == 1 {
				if err := o.DeleteEntry(cmd.Context(), ids[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted 1 entry")
				return nil
			}
			res, err := o.BulkDelete(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d entries\n", res.Deleted, len(ids))
			return nil
		},
	}
}

// statusView is the printable form of a status snapshot.
type statusView struct {
	State        string `json:"state" yaml:"state"`
	LastError    string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LastSyncTime string `json:"last_sync_time,omitempty" yaml:"last_sync_time,omitempty"`
	User         string `json:"user,omitempty" yaml:"user,omitempty"`
	UserID       string `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	AutoSync     bool   `json:"auto_sync" yaml:"auto_sync"`
	LocalCount   int    `json:"local_count" yaml:"local_count"`
	RemoteCount  *int64 `json:"remote_count,omitempty" yaml:"remote_count,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var (
		output     string
		withRemote bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync state and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			var n int64
			if withRemote {
				if n, err = o.RemoteCount(ctx); err != nil {
					return err
				}
			}
			st, err := o.Status(ctx)
			if err != nil {
				return err
			}
			name, _, err := a.store.Get(ctx, local.KeyLineUsername)
			if err != nil {
				return err
			}
			view := toStatusView(st, name)
			if withRemote {
				view.RemoteCount = &n
			}
			return render(cmd.OutOrStdout(), output, view, func() error {
				return printStatusText(cmd.OutOrStdout(), view)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	cmd.Flags().BoolVar(&withRemote, "remote", false, "also count rows on the server")
	return cmd
}

func toStatusView(st model.Status, name string) statusView {
	v := statusView{
		State:        string(st.State),
		LastError:    st.LastError,
		LastSyncTime: st.LastSyncTime,
		User:         name,
		AutoSync:     st.AutoSyncEnabled,
		LocalCount:   st.LocalCount,
	}
	if st.User != nil {
		v.UserID = st.User.ID
	}
	return v
}

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Show or change the user name"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <name>",
			Short: "Store the user name entries are synced for",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, err := setUser(cmd.Context(), a.store, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user set to %s\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the stored user name",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				name, ok, err := a.store.Get(cmd.Context(), local.KeyLineUsername)
				if err != nil {
					return err
				}
				if !ok || name == "" {
					return errors.New("no user name set")
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			},
		},
	)
	return cmd
}

func newAutoSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "autosync [on|off]",
		Short:     "Show or toggle periodic background sync",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				on, err := onOff(args[0])
				if err != nil {
					return err
				}
				if err := local.SetAutoSyncEnabled(ctx, a.store, on); err != nil {
					return err
				}
			}
			on, err := local.AutoSyncEnabled(ctx, a.store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "auto sync %s\n", onOffString(on))
			return nil
		},
	}
}

func newCleanupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cleanup", Short: "Remove test data, duplicates or everything"}

	report := func(cmd *cobra.Command, res model.CleanupResult) {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d local entries and %d remote rows\n", res.LocalRemoved, res.RemoteRemoved)
	}
	maintenance := func(use, short string, op func(*syncer.Orchestrator, context.Context) (model.CleanupResult, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				o, err := a.orchestrator()
				if err != nil {
					return err
				}
				res, err := op(o, cmd.Context())
				if err != nil {
					return err
				}
				report(cmd, res)
				return nil
			},
		}
	}

	all := maintenance("all", "Delete every local entry and every remote row of the user", (*syncer.Orchestrator).DeleteAll)
	var yes bool
	all.Flags().BoolVar(&yes, "yes", false, "confirm")
	all.PreRunE = func(*cobra.Command, []string) error {
		if !yes {
			return errors.New("refusing to delete everything without --yes")
		}
		return nil
	}

	cmd.AddCommand(
		maintenance("test-data", "Remove test and sample entries", (*syncer.Orchestrator).CleanupTestData),
		maintenance("duplicates", "Keep one entry per date, emotion and event", (*syncer.Orchestrator).RemoveDuplicates),
		all,
	)
	return cmd
}

// nowFunc is replaced in tests.
var nowFunc = time.Now
