package main

import (
	"fmt"
	"time"

	"tradedash/logger"
	"tradedash/snapshot"

	"github.com/spf13/cobra"
)

var snapshotOpts snapshot.Options

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Save a PNG screenshot of a running dashboard",
	Example: `  tradedash snapshot --url "http://localhost:8080/?category=Toys" --out toys.png`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := snapshot.Capture(logger.WithContext(cmd.Context(), log), snapshotOpts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotOpts.URL, "url", "http://localhost:8080/", "Dashboard URL")
	snapshotCmd.Flags().StringVar(&snapshotOpts.Out, "out", "dashboard.png", "Output PNG file")
	snapshotCmd.Flags().IntVar(&snapshotOpts.Width, "width", 1400, "Viewport width")
	snapshotCmd.Flags().IntVar(&snapshotOpts.Height, "height", 900, "Viewport height")
	snapshotCmd.Flags().DurationVar(&snapshotOpts.Timeout, "timeout", time.Minute, "Page load timeout")
	snapshotCmd.Flags().StringVar(&snapshotOpts.ControlURL, "control-url", "", "Connect to an existing Chromium DevTools URL instead of launching one")
}
