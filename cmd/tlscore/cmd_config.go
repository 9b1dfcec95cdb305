package main

import (
	"fmt"

	"tlscore/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configForce bool

// configCmd groups config file helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the tlscore config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to --config",
	Long: `Writes the default configuration to the path given by --config
(tlscore.yaml by default). An existing file is kept unless --force is set.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config (file plus environment overrides)",
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.DefaultConfig().Save(configPath, configForce); err != nil {
		return err
	}
	logger.Info("Wrote default config", zap.String("path", configPath))
	fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := activeConfig().Marshal()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
