package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"

	"github.com/b/device-console/pkg/config"
	"github.com/b/device-console/pkg/devices"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	var withSize bool
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List connected Android devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := config.LoadConfig(opts.path())
			if err != nil {
				return err
			}
			adb, err := devices.NewADB(cfg.ADB.Path, time.Duration(cfg.ADB.TimeoutSeconds)*time.Second)
			if err != nil {
				return err
			}
			list, err := adb.List(cmd.Context())
			if err != nil {
				return err
			}
			logger.Debug("devices listed", "adb", adb.Path, "count", len(list))

			out := cmd.OutOrStdout()
			for _, d := range list {
				if !withSize {
					fmt.Fprintln(out, d.String())
					continue
				}
				w, h, err := adb.ScreenSize(cmd.Context(), d.ID)
				if err != nil {
					logger.Warn("screen size failed", "device", d.ID, "err", err)
					fmt.Fprintf(out, "%s\t?\n", d)
					continue
				}
				fmt.Fprintf(out, "%s\t%dx%d\n", d, w, h)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSize, "size", false, "also print each device's screen size")
	return cmd
}
