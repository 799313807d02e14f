// Package cli implements bossctl, a client of the boss timer data source. It
// talks to the remote backend when configured and to local storage otherwise.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"boss-timer-api/internal/config"
	"boss-timer-api/internal/datasource"
	"boss-timer-api/internal/store"

	"github.com/spf13/cobra"
)

type app struct {
	cfg config.Config
	kv  *store.SQLite
	mgr *datasource.Manager

	localOnly bool
	storePath string
}

func (a *app) open(ctx context.Context) error {
	a.cfg = config.Load()
	if a.localOnly {
		a.cfg.UseServerStorage = false
	}
	if a.storePath != "" {
		a.cfg.LocalStorePath = a.storePath
	}

	kv, err := store.NewSQLite(a.cfg.LocalStorePath)
	if err != nil {
		return fmt.Errorf("open local storage: %w", err)
	}
	a.kv = kv
	a.mgr = datasource.NewManager(a.cfg, datasource.NewLocal(kv))
	a.mgr.Connect(ctx)
	return nil
}

func (a *app) close() {
	if a.mgr != nil {
		_ = a.mgr.Close()
		a.mgr = nil
	}
	if a.kv != nil {
		_ = a.kv.Close()
		a.kv = nil
	}
}

func newRoot() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "bossctl",
		Short: "Boss respawn timer client",
		Long: `bossctl reads and records boss kills. It uses the remote backend when
SUPABASE_URL and SUPABASE_KEY are set and reachable, and local storage otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVar(&a.localOnly, "local", false, "ignore the remote backend and use local storage")
	root.PersistentFlags().StringVar(&a.storePath, "store", "", "local storage database (default $LOCAL_STORE_PATH)")

	root.AddCommand(
		newBossesCmd(a),
		newSeedCmd(a),
		newKillCmd(a),
		newRecordsCmd(a),
		newLastCmd(a),
		newWatchCmd(a),
		newResetLocalCmd(a),
		newStatusCmd(a),
	)
	return root, a
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	root, a := newRoot()
	err := root.ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
