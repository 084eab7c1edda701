// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/accel_computer/internal/app"
	"github.com/relabs-tech/accel_computer/internal/config"
)

func init() {
	offsetsCmd.PersistentFlags().StringVarP(&offsetsOpts.File, "file", "f", "", "offsets file (default OFFSETS_FILE from config)")
	offsetsCmd.AddCommand(offsetsSaveCmd, offsetsApplyCmd)
	rootCmd.AddCommand(offsetsCmd)
}

var (
	offsetsCmd = &cobra.Command{
		Use:   "offsets",
		Short: "Save or apply the offset trim registers",
	}
	offsetsSaveCmd = &cobra.Command{
		Use:   "save",
		Short: "Save the installed offset trims to a file",
		Args:  cobra.NoArgs,
		RunE:  offsetsSave,
	}
	offsetsApplyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Install offset trims from a file",
		Args:  cobra.NoArgs,
		RunE:  offsetsApply,
	}
	offsetsOpts = struct {
		File string
	}{}
)

func offsetsPath() (string, error) {
	if offsetsOpts.File != "" {
		return offsetsOpts.File, nil
	}
	if p := config.Get().OffsetsFile; p != "" {
		return p, nil
	}
	return "", errors.New("no offsets file: set OFFSETS_FILE or pass --file")
}

func offsetsSave(cmd *cobra.Command, args []string) error {
	path, err := offsetsPath()
	if err != nil {
		return err
	}
	return withSession(false, func(ctx context.Context, sess *app.Session) error {
		o, err := sess.ReadOffsets(ctx)
		if err != nil {
			return err
		}
		if err := app.SaveOffsets(path, o); err != nil {
			return err
		}
		fmt.Printf("saved offsets X=%d Y=%d Z=%d to %s\n", o.X, o.Y, o.Z, path)
		return nil
	})
}

func offsetsApply(cmd *cobra.Command, args []string) error {
	path, err := offsetsPath()
	if err != nil {
		return err
	}
	f, err := app.LoadOffsets(path)
	if err != nil {
		return err
	}
	return withSession(false, func(ctx context.Context, sess *app.Session) error {
		if err := sess.ApplyOffsets(ctx, f.Offsets); err != nil {
			return err
		}
		fmt.Printf("applied offsets X=%d Y=%d Z=%d (calibrated %s)\n",
			f.Offsets.X, f.Offsets.Y, f.Offsets.Z, f.CalibratedAt.Format("2006-01-02 15:04"))
		return nil
	})
}
