package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(opts), newConfigShowCmd(opts))
	return cmd
}

func newConfigInitCmd(opts *rootOptions) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.path()
			if _, err := os.Stat(path); err == nil && !overwrite {
				return fmt.Errorf("%s already exists (use --overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			cfg := config.Default()
			if err := config.SaveConfig(path, &cfg); err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("config written", "path", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing file")
	return cmd
}

func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.path())
			if err != nil {
				return err
			}
			if cfg.Chat.APIKey != "" {
				cfg.Chat.APIKey = "<redacted>"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
}
