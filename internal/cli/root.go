package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bluegrass-news/kygeo"
	"github.com/bluegrass-news/kygeo/internal/cache"
	"github.com/bluegrass-news/kygeo/internal/config"
	"github.com/bluegrass-news/kygeo/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the kygeo release.
const Version = "0.3.1"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "kygeo",
	Short: "kygeo - Kentucky county and city detection for news text",
	Long: `kygeo finds Kentucky counties and cities mentioned in news articles.

Explicit county mentions ("Knox and Laurel counties") come first in the
result; counties implied by a detected city ("police in Corbin") follow.
The gazetteer of 120 counties is embedded in the binary.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kygeo v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.kygeo/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().String("gazetteer", "", "gazetteer YAML file (default: embedded)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")

	_ = viper.BindPFlag("gazetteer.path", rootCmd.PersistentFlags().Lookup("gazetteer"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".kygeo"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// env bundles what every command needs.
type env struct {
	cfg       config.Config
	log       zerolog.Logger
	gazetteer *kygeo.Gazetteer
}

// setup loads configuration, builds the logger and loads the gazetteer.
func setup() (*env, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	log := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	g, err := loadGazetteer(cfg.Gazetteer.Path)
	if err != nil {
		return nil, err
	}
	st := g.Stats()
	log.Debug().Int("counties", st.Counties).Int("cities", st.Cities).Str("path", cfg.Gazetteer.Path).Msg("gazetteer loaded")
	return &env{cfg: cfg, log: log, gazetteer: g}, nil
}

func loadGazetteer(path string) (*kygeo.Gazetteer, error) {
	if path == "" {
		return kygeo.GetDefaultGazetteer()
	}
	return kygeo.NewGazetteer(kygeo.WithSourceFile(path))
}

// detector is what the batch, feed and watch commands detect with.
type detector interface {
	Detect(headline, body string) kygeo.Result
}

// detector wraps the gazetteer with the results cache when enabled.
func (e *env) detector() detector {
	if !e.cfg.Cache.Enabled {
		return e.gazetteer
	}
	return cache.New(e.gazetteer, e.cfg.Cache.TTL, e.cfg.Cache.Cleanup)
}
