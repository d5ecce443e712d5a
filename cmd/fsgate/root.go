package main

import (
	"os"

	"fsgate/internal/config"
	"fsgate/internal/gateway"
	"fsgate/internal/logging"

	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	logLevel    string
	allow       []string
	maxFileSize int64
	lockDir     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fsgate",
		Short: "Filesystem gateway confined to allowed directories",
		Long: `fsgate exposes six filesystem tools (read_file, write_file, list_directory,
create_directory, delete_file, file_info) to MCP clients, HTTP clients or the
command line. Every path is resolved, symlinks included, and checked against
the allowed directories before anything touches the disk.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringSliceVar(&opts.allow, "allow", nil, "allowed directory (repeatable, replaces configured directories)")
	flags.Int64Var(&opts.maxFileSize, "max-file-size", 0, "largest file read will return, in bytes")
	flags.StringVar(&opts.lockDir, "lock-dir", "", "directory for write lock files")

	cmd.AddCommand(
		newServeCmd(opts),
		newCallCmd(opts),
		newToolsCmd(opts),
		newConfigCmd(opts),
		newTokenCmd(),
	)
	return cmd
}

// loadConfig layers the shared flags, and any command specific overrides,
// on top of the file and environment configuration.
func (o *rootOptions) loadConfig(cmd *cobra.Command, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("allow") {
		cfg.AllowedDirectories = o.allow
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = o.maxFileSize
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("lock-dir") {
		cfg.LockDir = o.lockDir
	}
	if override != nil {
		override(cfg)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to stderr at the configured level. With DEBUG set it logs
// everything to the debug file instead.
func newLogger(cfg *config.Config) *logging.AppLogger {
	if os.Getenv("DEBUG") != "" {
		return logging.NewAppLogger()
	}
	return logging.New(os.Stderr, cfg.LogLevel)
}

// newGateway loads configuration and builds a gateway from it.
func (o *rootOptions) newGateway(cmd *cobra.Command, override func(*config.Config)) (*gateway.Gateway, *config.Config, *logging.AppLogger, error) {
	cfg, err := o.loadConfig(cmd, override)
	if err != nil {
		return nil, nil, nil, err
	}
	logger := newLogger(cfg)

	gw, err := gateway.New(*cfg, gateway.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return gw, cfg, logger, nil
}
