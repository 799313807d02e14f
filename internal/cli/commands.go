package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"boss-timer-api/internal/datasource"
	"boss-timer-api/internal/models"
	"boss-timer-api/internal/service"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which storage backend is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state:   %s\n", a.mgr.State())
			if a.mgr.State() == datasource.Connected {
				fmt.Fprintln(out, "storage: remote")
			} else {
				fmt.Fprintf(out, "storage: local (%s)\n", a.cfg.LocalStorePath)
			}
			return nil
		},
	}
}

func newBossesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bosses",
		Short: "List bosses with their latest kill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bosses := a.mgr.BossesWithLastKill(cmd.Context())
			if len(bosses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bosses configured. Run 'bossctl seed' first.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tNAME\tINTERVAL(h)\tDELAY(m)\tLAST KILL\tACCURACY")
			for _, b := range bosses {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%g\t%s\t%s\n",
					b.ID, b.Category, b.Name, b.Interval, b.Delay, orDash(b.LastKillTime), orDash(b.Accuracy))
			}
			return tw.Flush()
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Save the boss catalog to the active storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalog == "" {
				catalog = a.cfg.CatalogPath
			}
			bosses, err := service.LoadCatalog(catalog)
			if err != nil {
				return err
			}
			if !a.mgr.SaveBossConfigs(cmd.Context(), bosses) {
				return errors.New("failed to save boss configs")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bosses.\n", len(bosses))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalog, "catalog", "", "YAML catalog file (default: built-in catalog)")
	return cmd
}

func newKillCmd(a *app) *cobra.Command {
	var at, accuracy, by string
	cmd := &cobra.Command{
		Use:   "kill <boss-id>",
		Short: "Record a boss kill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBossID(args[0])
			if err != nil {
				return err
			}
			killTime := models.FormatTime(time.Now())
			if at != "" {
				if killTime, err = models.NormalizeTime(at); err != nil {
					return fmt.Errorf("invalid --time %q: %w", at, err)
				}
			}
			if !a.mgr.AddKillRecord(cmd.Context(), id, killTime, accuracy, by) {
				return fmt.Errorf("failed to record kill for boss %d", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded kill of boss %d at %s (%s).\n", id, killTime, accuracy)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "time", "", "kill time, RFC 3339 (default: now)")
	cmd.Flags().StringVar(&accuracy, "accuracy", models.DefaultAccuracy, "accuracy tag")
	cmd.Flags().StringVar(&by, "by", models.AnonymousReporter, "reporter name")
	return cmd
}

func newRecordsCmd(a *app) *cobra.Command {
	var boss, limit int
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List kill records, latest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := a.mgr.GetKillRecords(cmd.Context(), boss)
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No kill records.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "BOSS\tKILL TIME\tACCURACY\tBY\tRECORDED")
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.BossID, r.KillTime, r.Accuracy, r.RecordedBy, r.Timestamp)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&boss, "boss", 0, "only records of this boss id")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many records")
	return cmd
}

func newLastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "last <boss-id>",
		Short: "Print the latest kill time of a boss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBossID(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), orDash(a.mgr.GetLastKillTime(cmd.Context(), id)))
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream remote changes and periodic syncs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.mgr.State() != datasource.Connected {
				fmt.Fprintln(out, "Not connected to a remote backend; nothing to watch.")
				return nil
			}

			var mu sync.Mutex
			enc := json.NewEncoder(out)
			cancel := a.mgr.Subscribe(func(ev models.ChangeEvent) {
				mu.Lock()
				defer mu.Unlock()
				_ = enc.Encode(ev)
			})
			defer cancel()
			a.mgr.OnUpdate(func(bosses []models.BossRecord, records []models.KillRecord) {
				mu.Lock()
				defer mu.Unlock()
				fmt.Fprintf(out, "synced %d bosses, %d kill records\n", len(bosses), len(records))
			})

			ctx := cmd.Context()
			a.mgr.StartAutoSync(ctx)
			defer a.mgr.StopAutoSync()
			<-ctx.Done()
			return nil
		},
	}
}

func newResetLocalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-local",
		Short: "Delete the boss configs and kill records kept in local storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range []string{datasource.KeyBossConfigs, datasource.KeyKillRecords} {
				if err := a.kv.RemoveItem(key); err != nil {
					return fmt.Errorf("remove %s: %w", key, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local storage cleared.")
			return nil
		},
	}
}

func parseBossID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid boss id %q", s)
	}
	return id, nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
