// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/accel_computer/internal/app"
	"github.com/relabs-tech/accel_computer/internal/command"
)

func init() {
	rootCmd.AddCommand(
		lineCmd("init", "Program the power-on configuration", cobra.NoArgs),
		lineCmd("device", "Print the device ID", cobra.NoArgs),
		lineCmd("calibrate", "Measure and install offset trims (device must be level, Z up)", cobra.NoArgs),
		lineCmd("format <F> <G>", "Set resolution (F=1 full, 0 10-bit) and range ±G", cobra.ExactArgs(2)),
		lineCmd("rate <Hz>", "Set the output data rate", cobra.ExactArgs(1)),
		execCmd,
	)
}

// lineCmd builds a subcommand that runs the control command of the same
// name, with the positional arguments appended.
func lineCmd(use, short string, args cobra.PositionalArgs) *cobra.Command {
	name, _, _ := strings.Cut(use, " ")
	return &cobra.Command{
		Use:                   use,
		Short:                 short,
		Args:                  args,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(strings.Join(append([]string{name}, args...), " "))
		},
	}
}

var execCmd = &cobra.Command{
	Use:   "exec <command line>",
	Short: "Run one textual control command",
	Long: `Run one control command exactly as written to the accelerometer control
file: "init", "device", "calibrate", "format <F> <G>" or "rate <Hz>".
Commands match by prefix; malformed arguments are ignored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLine(strings.Join(args, " "))
	},
}

func runLine(line string) error {
	return withSession(false, func(ctx context.Context, sess *app.Session) error {
		out, err := command.Run(ctx, sess, line)
		if err != nil {
			return err
		}
		if out == "" {
			out = "ignored"
		}
		fmt.Println(out)
		return nil
	})
}
