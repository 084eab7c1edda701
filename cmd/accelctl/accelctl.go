// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// A utility to drive an ADXL345 accelerometer from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/accel_computer/internal/app"
	"github.com/relabs-tech/accel_computer/internal/config"
)

var rootOpts = struct {
	ConfigPath string
	Debug      bool
}{}

var rootCmd = &cobra.Command{
	Use:   "accelctl",
	Short: "accelctl drives an ADXL345 accelerometer",
	Long: `accelctl initializes, calibrates, configures and samples an ADXL345
accelerometer over the DE1-SoC HPS I2C controller, a Linux i2c-dev bus
or a simulated device, as selected by TRANSPORT in the config file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitGlobal(rootOpts.ConfigPath); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if rootOpts.Debug || config.Get().Debug {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.ConfigPath, "config", "c", "accel_config.txt", "config file (KEY=VALUE)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.Debug, "debug", "d", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "accelctl: %s\n", err)
		os.Exit(1)
	}
}

// withSession opens the configured device, optionally brings it to the
// configured state, and runs fn until it returns or the process is
// interrupted.
func withSession(setup bool, fn func(ctx context.Context, sess *app.Session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()
	sess, err := app.OpenSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if setup {
		if err := sess.Setup(ctx, cfg); err != nil {
			return err
		}
	}
	return fn(ctx, sess)
}
