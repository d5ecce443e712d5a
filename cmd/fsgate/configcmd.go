package main

import (
	"fmt"

	"fsgate/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	var (
		save     bool
		showPath bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration fsgate would run with, after the config file,
environment variables and flags have been applied. --save writes it back to
the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := root.configPath
			if path == "" {
				path = config.ConfigPath()
			}
			out := cmd.OutOrStdout()

			if showPath {
				_, err := fmt.Fprintln(out, path)
				return err
			}

			cfg, err := root.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			if _, err := out.Write(data); err != nil {
				return err
			}

			if save {
				if err := cfg.SaveTo(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved configuration to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "write the effective configuration to the config file")
	cmd.Flags().BoolVar(&showPath, "path", false, "print the config file path and exit")
	return cmd
}
