package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/bias"
	"github.com/tsawler/bias/internal/config"
	"github.com/tsawler/bias/internal/logging"
	"github.com/tsawler/bias/internal/report"
	"github.com/tsawler/bias/internal/store"
)

// measureCmd represents the measure command
var measureCmd = &cobra.Command{
	Use:   "measure",
	Short: "Measure demographic counts and co-occurrences in a text file",
	Long: `Read a text file, split it into sentences and count:

  - how many tokens of each demographic group occur in the whole text
  - for every term of the target group, how many demographic mentions share
    a sentence with it (the product of both counts, summed over sentences)

Both tables are printed. With --output-dir they are also written as
demographic_stats.csv and cooccurrence_matrix.csv.`,
	Example: `  biasmeasure measure --text article.txt --target-group professions
  biasmeasure measure --text article.txt --target-group adjectives --output-dir results
  biasmeasure measure --text article.txt --target-group roles --targets roles.yaml --format json`,
	RunE: runMeasure,
}

func init() {
	rootCmd.AddCommand(measureCmd)

	f := measureCmd.Flags()
	f.String("text", "", "path to the text file to analyse")
	f.String("target-group", "", "target group to build the co-occurrence matrix for")
	f.String("output-dir", "", "directory to write the CSV results into")
	f.String("demographic", "", "demographic term groups file (.json, .yaml, .toml)")
	f.String("targets", "", "target term groups file (.json, .yaml, .toml)")
	f.Int("workers", 1, "co-occurrence workers (0 = one per CPU)")
	f.String("format", "table", "output format: table, csv, json")
	f.String("db", "", "record the run in this SQLite history database")

	_ = viper.BindPFlag("text", f.Lookup("text"))
	_ = viper.BindPFlag("target_group", f.Lookup("target-group"))
	_ = viper.BindPFlag("output.dir", f.Lookup("output-dir"))
	_ = viper.BindPFlag("demographic_file", f.Lookup("demographic"))
	_ = viper.BindPFlag("target_file", f.Lookup("targets"))
	_ = viper.BindPFlag("workers", f.Lookup("workers"))
	_ = viper.BindPFlag("output.format", f.Lookup("format"))
}

func runMeasure(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		if cfg.Store.Path, err = config.ExpandPath(db); err != nil {
			return err
		}
		cfg.Store.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	demographic, target, err := loadDictionaries(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.Text)
	if err != nil {
		return fmt.Errorf("error reading text file: %w", err)
	}
	sentences, err := bias.SplitSentences(string(data))
	if err != nil {
		return err
	}
	logger.Debug("text loaded", "path", cfg.Text, "bytes", len(data), "sentences", len(sentences))

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	m := bias.NewMeasurer(demographic, target,
		bias.WithLogger(logger),
		bias.WithWorkers(workers),
		bias.WithStopWordLanguage(cfg.StopWordLang),
	)

	res, err := m.Measure(cmd.Context(), sentences, cfg.TargetGroup)
	if err != nil {
		return err
	}

	if err := printResult(cmd.OutOrStdout(), cfg.Output.Format, res); err != nil {
		return err
	}

	if cfg.Output.Dir != "" {
		paths, err := report.SaveCSV(cfg.Output.Dir, res)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", p)
		}
	}

	if cfg.Store.Enabled {
		if err := recordRun(cmd.Context(), cfg.Store.Path, cfg.Text, res, logger); err != nil {
			return err
		}
	}

	return nil
}

// loadDictionaries reads the configured term group files, falling back to the
// built-in gender and target lists.
func loadDictionaries(cfg *config.Config) (demographic, target bias.TermGroups, err error) {
	demographic = bias.DefaultDemographicGroups()
	if cfg.DemographicFile != "" {
		if demographic, err = bias.LoadTermGroups(cfg.DemographicFile); err != nil {
			return demographic, target, err
		}
	}

	target = bias.DefaultTargetGroups()
	if cfg.TargetFile != "" {
		if target, err = bias.LoadTermGroups(cfg.TargetFile); err != nil {
			return demographic, target, err
		}
	}
	return demographic, target, nil
}

func printResult(w io.Writer, format string, res *bias.Result) error {
	switch format {
	case "json":
		return report.WriteJSON(w, res)
	case "csv":
		if err := report.WriteDemographicCSV(w, res.Demographics); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		return report.WriteCooccurrenceCSV(w, res.Cooccurrence)
	default:
		style := report.StylePlain
		if f, ok := w.(*os.File); ok {
			style = report.StyleFor(f)
		}
		_, err := fmt.Fprintf(w, "Demographic stats\n%s\n\nCo-occurrence matrix (%s)\n%s\n",
			report.RenderDemographic(res.Demographics, style),
			res.Cooccurrence.TargetGroup(),
			report.RenderCooccurrence(res.Cooccurrence, style))
		return err
	}
}

func recordRun(ctx context.Context, path, source string, res *bias.Result, logger *slog.Logger) (err error) {
	s, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close history: %w", closeErr)
		}
	}()

	if err := s.SaveResult(ctx, source, res); err != nil {
		return err
	}
	logger.Info("run recorded", "run_id", res.RunID, "db", s.Path())
	return nil
}
