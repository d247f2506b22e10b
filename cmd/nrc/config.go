package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/nappgui/nrc/pkg/nrc/config"
	"github.com/nappgui/nrc/pkg/nrc/types"
	"github.com/spf13/cobra"
)

func (a *app) newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage nrc configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/nrc/config.yaml (if set)
  2. ~/.config/nrc/config.yaml

Environment variables can override config file settings using the NRC_ prefix:
  NRC_SKIP_HIDDEN=false
  NRC_STATE_ENABLED=false
  NRC_LOGGING_LEVEL=debug`,
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show current configuration",
			Long:  `Display the current configuration settings from all sources.`,
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(false, a.runConfigShow)
			},
		},
		&cobra.Command{
			Use:   "edit",
			Short: "Edit configuration file",
			Long: `Open the configuration file in $VISUAL, $EDITOR or vi.

If the config file doesn't exist, a default one is created first.`,
			Args: cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(false, a.runConfigEdit)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create default configuration file",
			Long:  `Create a default configuration file if one doesn't exist.`,
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(false, a.runConfigInit)
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.bracket(false, a.runConfigPath)
			},
		},
	)
	return configCmd
}

func (a *app) configPath() (string, error) {
	if a.cfgFile != "" {
		return a.cfgFile, nil
	}
	path, err := config.ConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, nil
}

func (a *app) runConfigShow() (types.ExitCode, error) {
	cfg := a.cfg
	w := a.stdout

	if path, err := a.configPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Fprintf(w, "Config file: %s\n\n", path)
		} else {
			fmt.Fprintf(w, "Config file: (using defaults, no file found)\n\n")
		}
	}

	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintln(w, "----------------------")
	fmt.Fprintf(w, "exclude:               %v\n", cfg.Exclude)
	fmt.Fprintf(w, "skip_hidden:           %t\n", cfg.SkipHidden)
	fmt.Fprintf(w, "follow_symlinks:       %t\n", cfg.FollowSymlinks)
	fmt.Fprintf(w, "state.enabled:         %t\n", cfg.State.Enabled)
	fmt.Fprintf(w, "state.path:            %s\n", cfg.StatePath())
	fmt.Fprintf(w, "state.retention_days:  %d\n", cfg.State.RetentionDays)
	fmt.Fprintf(w, "logging.level:         %s\n", cfg.Logging.Level)
	logPath := cfg.Logging.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	fmt.Fprintf(w, "logging.path:          %s\n", logPath)
	fmt.Fprintf(w, "watch.debounce:        %s\n", cfg.Watch.Debounce)

	fmt.Fprintln(w, "\nEnvironment Overrides:")
	fmt.Fprintln(w, "----------------------")
	var overrides []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "NRC_") {
			overrides = append(overrides, kv)
		}
	}
	if len(overrides) == 0 {
		fmt.Fprintln(w, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(w, kv)
	}

	return types.Success, nil
}

func (a *app) runConfigEdit() (types.ExitCode, error) {
	if a.cfgFile == "" {
		if err := config.WriteDefault(); err != nil {
			return types.WithErrors, fmt.Errorf("failed to create config file: %w", err)
		}
	}
	path, err := a.configPath()
	if err != nil {
		return types.WithErrors, err
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}
	logger.Debug("opening config", "path", path, "editor", editor)

	editorCmd := exec.CommandContext(a.ctx, editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = a.stdout
	editorCmd.Stderr = a.stderr
	if err := editorCmd.Run(); err != nil {
		return types.WithErrors, fmt.Errorf("editor command failed: %w", err)
	}
	return types.Success, nil
}

func (a *app) runConfigInit() (types.ExitCode, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return types.WithErrors, fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(a.stdout, "Config file already exists: %s\n", path)
		return types.SuccessUpToDate, nil
	}

	if err := config.WriteDefault(); err != nil {
		return types.WithErrors, fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(a.stdout, "Created default config file: %s\n", path)
	return types.Success, nil
}

func (a *app) runConfigPath() (types.ExitCode, error) {
	path, err := a.configPath()
	if err != nil {
		return types.WithErrors, err
	}
	fmt.Fprintln(a.stdout, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("config file does not exist, defaults apply", "path", path)
	}
	return types.Success, nil
}
