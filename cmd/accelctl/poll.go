// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
	"github.com/relabs-tech/accel_computer/internal/app"
)

func init() {
	pollCmd.Flags().StringVarP(&pollOpts.Trigger, "trigger", "t", "data", "print on: data (DATA_READY) or activity (ACTIVITY)")
	pollCmd.Flags().IntVarP(&pollOpts.Count, "count", "n", 0, "stop after this many samples (0 runs until interrupted)")
	pollCmd.Flags().DurationVarP(&pollOpts.Interval, "interval", "i", 10*time.Millisecond, "pause between status polls")
	pollCmd.Flags().BoolVar(&pollOpts.Setup, "setup", true, "initialize and calibrate (or apply saved offsets) first")
	watchCmd.Flags().BoolVar(&watchOpts.Setup, "setup", true, "initialize and calibrate (or apply saved offsets) first")
	rootCmd.AddCommand(pollCmd, watchCmd)
}

var (
	pollCmd = &cobra.Command{
		Use:   "poll",
		Short: "Print acceleration in mg whenever the trigger bit is set",
		Args:  cobra.NoArgs,
		RunE:  poll,
	}
	pollOpts = struct {
		Trigger  string
		Count    int
		Interval time.Duration
		Setup    bool
	}{}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Show tilt and tap events in a terminal view (q to quit)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(watchOpts.Setup, app.RunWatch)
		},
	}
	watchOpts = struct {
		Setup bool
	}{}
)

func poll(cmd *cobra.Command, args []string) error {
	var trigger adxl345.InterruptFlags
	switch pollOpts.Trigger {
	case "data":
		trigger = adxl345.DataReady
	case "activity":
		trigger = adxl345.Activity
	default:
		return fmt.Errorf("unknown trigger %q", pollOpts.Trigger)
	}
	return withSession(pollOpts.Setup, func(ctx context.Context, sess *app.Session) error {
		return app.RunPoll(ctx, sess, os.Stdout, app.PollOptions{
			Trigger:  trigger,
			Interval: pollOpts.Interval,
			Count:    pollOpts.Count,
		})
	})
}
