package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suykerbuyk/recap/internal/check"
	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/help"
)

var initDataDir string

var initCmd = &cobra.Command{
	Use:  "init",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dataDir := initDataDir
		if dataDir == "" {
			dataDir = config.DefaultConfig().DataDir
		}
		existed := config.FindPath() != ""
		path, err := config.WriteDefault(config.CompressHome(dataDir))
		if err != nil {
			return err
		}
		if existed {
			fmt.Fprintf(cmd.OutOrStdout(), "config exists: %s\n", config.CompressHome(path))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.CompressHome(path))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:  "check",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		report := check.Run(cfg, path)
		fmt.Fprint(cmd.OutOrStdout(), report.Format())
		if report.HasFailures() {
			os.Exit(1)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:  "version",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "recap %s\n", help.Version)
	},
}

func init() {
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "", "Data directory to record in the config")
}
