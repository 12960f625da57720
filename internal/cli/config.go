package cli

import (
	"fmt"
	"os"

	"github.com/bluegrass-news/kygeo/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kygeo configuration",
	Long: `Manage kygeo configuration.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (KYGEO_*, also read from ./.env)
3. Config file (~/.kygeo/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		if f := viper.ConfigFileUsed(); f != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", f)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}
