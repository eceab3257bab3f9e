package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mrbonezy/rnb/internal/logging"
)

// globalOptions carries the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand(args []string) *cobra.Command {
	g := &globalOptions{}
	var showVersion bool
	root := &cobra.Command{
		Use:           "rnb",
		Short:         "Create a git branch from a Redmine ticket",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), currentVersion())
				return nil
			}
			return cmd.Help()
		},
	}
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Print rnb version and exit")
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default $HOME/.rnb/config.yaml)")
	root.PersistentFlags().BoolVar(&g.verbose, "verbose", false, "Log every step to stderr")

	root.AddCommand(
		newNewCommand(g),
		newResolveCommand(g),
		newInitCommand(g),
	)

	if len(args) > 0 {
		root.SetArgs(args[1:])
	}
	return root
}

func newInitCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Store the Redmine URL and API key in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, err := LoadConfig(g.configPath)
			if err != nil && !errors.Is(err, errInvalidConfig) {
				return err
			}
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "rnb warning: existing config is invalid, starting from defaults:", err)
				base = Config{}.normalized()
			}
			if !interactiveSession() {
				return usageErrorf("rnb init needs a terminal; edit the config file or set %s instead", apiKeyEnvVar)
			}
			path, err := configPath(g.configPath)
			if err != nil {
				return err
			}
			if exists, err := ConfigExists(path); err == nil && exists {
				fmt.Fprintf(cmd.OutOrStdout(), "Updating %s\n", path)
			}
			final, err := tea.NewProgram(newInitModel(path, base)).Run()
			if err != nil {
				return err
			}
			if m, ok := final.(initModel); ok && m.done {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			}
			return nil
		},
	}
}

// loadRunConfig loads the config and installs the logger for a command run.
func loadRunConfig(g *globalOptions, errOut io.Writer) (Config, error) {
	cfg, err := LoadConfig(g.configPath)
	if err != nil {
		return Config{}, err
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", errInvalidConfig, err)
	}
	if g.verbose || debugEnabled() {
		level = slog.LevelDebug
	}
	if err := logging.Init(logging.Config{
		Level:     level,
		SentryDSN: cfg.SentryDSN,
		Version:   currentVersion(),
		Output:    errOut,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
