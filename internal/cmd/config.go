package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/clubhub/internal/config"
	"github.com/felixgeelhaar/clubhub/internal/log"
	"github.com/felixgeelhaar/clubhub/internal/tui"
	"github.com/felixgeelhaar/clubhub/internal/ux"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View and edit the client configuration",
		Long: `View and edit ~/.clubhub/config.yaml (or the file given by --config).

Keys use dotted names, e.g. api_url, timeout, log.level.
CLUBHUB_API_URL and CLUBHUB_LOG_LEVEL override the file.`,
		// Config commands must work while the file is invalid.
		PersistentPreRunE: setupConfig,
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigView,
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config, storage and log file locations",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}

	getCmd := &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE:      runConfigGet,
	}

	setCmd := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set one configuration value",
		Example:   "  clubhub config set api_url https://api.clubhub.example\n  clubhub config set log.level debug",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE:      runConfigSet,
	}

	configCmd.AddCommand(viewCmd, pathCmd, getCmd, setCmd)
	return configCmd
}

// setupConfig resolves the flags without loading the config file.
func setupConfig(cmd *cobra.Command, _ []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cc.Config = config.Default()
	cc.Logger = log.New(log.FromSettings(cc.LogLevel, cc.LogFormat))
	log.SetDefaultLogger(cc.Logger)
	holderFrom(cmd).cc = cc
	return nil
}

func runConfigView(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(commandContext(cmd).ConfigPath)
	if err != nil {
		return err
	}
	if commandContext(cmd).Output != "text" {
		return printResult(cmd, cfg)
	}
	f := make(fields, 0, len(config.Keys()))
	for _, key := range config.Keys() {
		v, _ := cfg.Get(key)
		f = append(f, [2]string{key, v})
	}
	return printResult(cmd, f)
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	cc := commandContext(cmd)
	// An invalid file still has locations worth printing.
	cfg, err := config.Load(cc.ConfigPath)
	if err != nil {
		cfg = config.Default()
	}
	storagePath, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	logPath, err := cfg.LogFilePath()
	if err != nil {
		return err
	}
	return printResult(cmd, fields{
		{"Config", cc.ConfigPath},
		{"Storage", storagePath},
		{"Log", logPath},
	})
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(commandContext(cmd).ConfigPath)
	if err != nil {
		return err
	}
	v, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	return printResult(cmd, v)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path := commandContext(cmd).ConfigPath
	cfg, err := config.Load(path)
	if err != nil {
		// Start over from defaults so a broken file can be repaired.
		if tui.ShouldPrompt() && !ux.Confirm(fmt.Sprintf("%s is invalid. Replace it with defaults?", path), false) {
			return err
		}
		commandContext(cmd).Logger.WithError(err).Warn("ignoring invalid config file")
		cfg = config.Default()
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
	return nil
}
