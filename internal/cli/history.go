package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/bias/internal/config"
	"github.com/tsawler/bias/internal/store"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded measurement runs",
	Long:  `List runs recorded with --db or store.enabled, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.Store.Path
		if db := viper.GetString("history_db"); db != "" {
			if path, err = config.ExpandPath(db); err != nil {
				return err
			}
		}

		return listHistory(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), path, historyLimit)
	},
}

// listHistory prints up to limit runs stored at path. A missing database is
// reported as empty and is not created.
func listHistory(ctx context.Context, w, errw io.Writer, path string, limit int) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(errw, "No runs recorded in %s\n", path)
		return nil
	} else if err != nil {
		return fmt.Errorf("stat history: %w", err)
	}

	s, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(errw, "No runs recorded in %s\n", s.Path())
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)
	tw.AppendHeader(table.Row{"run", "started", "source", "target group", "sentences", "tokens", "duration"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Source,
			r.TargetGroup,
			r.SentenceCount,
			r.TokenCount,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
		})
	}
	_, err = fmt.Fprintln(w, tw.Render())
	return err
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list (0 = all)")
	historyCmd.Flags().String("db", "", "history database (default: store.path)")
	_ = viper.BindPFlag("history_db", historyCmd.Flags().Lookup("db"))
}
