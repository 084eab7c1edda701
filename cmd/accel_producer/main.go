// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/app"
	"github.com/relabs-tech/accel_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "accel_config.txt", "config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *debug || config.Get().Debug {
		log.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunAccelProducer(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
