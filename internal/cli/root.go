package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tsawler/bias/internal/config"
)

// Version is set at build time with -ldflags "-X github.com/tsawler/bias/internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "biasmeasure",
	Short: "Biasmeasure - demographic co-occurrence counts for text corpora",
	Long: `Biasmeasure counts how often demographic terms (for example female and male
word lists) occur in a text, and how often they share a sentence with the
terms of a target group such as professions or adjectives.

It reports raw counts only. It does not score, normalize or judge them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel a running
// measurement.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of biasmeasure.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "biasmeasure %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.biasmeasure/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file, .env and ENV variables
func initConfig() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	setupViper(viper.GetViper(), cfgFile, config.Dir, os.Stderr)
}

// setupViper registers defaults, the config file location and BIASMEASURE_*
// environment variables on v. When dir fails the config file search is
// skipped, but environment variables still apply.
func setupViper(v *viper.Viper, file string, dir func() (string, error), stderr io.Writer) {
	config.SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else if home, err := dir(); err != nil {
		fmt.Fprintf(stderr, "Warning: no config directory, skipping config file: %v\n", err)
	} else {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	// Read in environment variables that match BIASMEASURE_*
	config.ConfigureEnv(v)

	if err := v.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
}

// loadConfig merges every configuration source into a Config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func defaultConfigPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
