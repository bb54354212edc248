package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tsawler/bias"
	"github.com/tsawler/bias/internal/config"
	"github.com/tsawler/bias/internal/report"
)

// groupsCmd represents the groups command
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List demographic and target groups",
	Long: `List the demographic and target groups that a measurement would use,
after normalization, together with any dictionary issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// measure owns the viper bindings of these keys.
		for flag, dst := range map[string]*string{"demographic": &cfg.DemographicFile, "targets": &cfg.TargetFile} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				if *dst, err = config.ExpandPath(v); err != nil {
					return err
				}
			}
		}
		demographic, target, err := loadDictionaries(cfg)
		if err != nil {
			return err
		}

		m := bias.NewMeasurer(demographic, target, bias.WithStopWordLanguage(cfg.StopWordLang))
		demoIssues, targetIssues := m.Issues()

		w := cmd.OutOrStdout()
		if err := writeGroups(w, "Demographic groups", m.Demographic()); err != nil {
			return err
		}
		if err := writeGroups(w, "Target groups", m.Target()); err != nil {
			return err
		}

		for _, issue := range demoIssues {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: demographic %s\n", issue)
		}
		for _, issue := range targetIssues {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: target %s\n", issue)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(groupsCmd)

	f := groupsCmd.Flags()
	f.String("demographic", "", "demographic term groups file (.json, .yaml, .toml)")
	f.String("targets", "", "target term groups file (.json, .yaml, .toml)")
}

func writeGroups(w io.Writer, title string, tg bias.TermGroups) error {
	tw := table.NewWriter()
	tw.SetTitle(title)
	tw.SetStyle(table.StyleDefault)
	if f, ok := w.(*os.File); ok && report.StyleFor(f) == report.StyleRounded {
		tw.SetStyle(table.StyleRounded)
	}
	tw.AppendHeader(table.Row{"group", "terms", "count"})
	for _, name := range tg.Groups() {
		terms := tg.Terms(name)
		tw.AppendRow(table.Row{name, strings.Join(terms, ", "), len(terms)})
	}
	_, err := fmt.Fprintf(w, "%s\n\n", tw.Render())
	return err
}
