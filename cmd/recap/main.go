package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/help"
)

var (
	configPath string
	userFlag   string
)

var rootCmd = &cobra.Command{
	Use:           "recap",
	Short:         help.TopLevel.Synopsis,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/recap/config.toml)")

	for _, c := range []*cobra.Command{generateCmd, usageCmd, historyCmd} {
		c.Flags().StringVar(&userFlag, "user", "", "User the quota and history belong to (default: $USER)")
	}
	historyCmd.AddCommand(historyShowCmd, historyDeleteCmd)

	rootCmd.AddCommand(serveCmd, generateCmd, usageCmd, historyCmd, initCmd, checkCmd, versionCmd)

	for _, c := range rootCmd.Commands() {
		if meta, ok := help.Lookup(c.Name()); ok {
			c.Short = meta.Brief
		}
	}
	rootCmd.SetHelpFunc(printHelp)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "recap: %v\n", err)
		os.Exit(1)
	}
}

// printHelp renders help from the shared command registry so --help and
// the man pages stay in step.
func printHelp(c *cobra.Command, _ []string) {
	for cur := c; cur != nil && cur != rootCmd; cur = cur.Parent() {
		if meta, ok := help.Lookup(cur.Name()); ok && cur.Parent() == rootCmd {
			fmt.Fprint(c.OutOrStdout(), help.FormatTerminal(meta))
			return
		}
	}
	fmt.Fprint(c.OutOrStdout(), help.FormatUsage(help.TopLevel, help.Subcommands))
}

// loadConfig resolves --config, falling back to the standard search path.
func loadConfig() (config.Config, string, error) {
	path := configPath
	if path == "" {
		path = config.FindPath()
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}
	return cfg, path, nil
}

func currentUser() string {
	if userFlag != "" {
		return userFlag
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}
