// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/accel_computer/internal/app"
	"github.com/relabs-tech/accel_computer/internal/config"
)

func main() {
	configPath := flag.String("config", "accel_config.txt", "config file")
	setup := flag.Bool("setup", false, "initialize and calibrate before serving")
	flag.Parse()

	log.Println("starting ADXL345 register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := app.OpenSession(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open accelerometer: %v", err)
	}
	defer sess.Close()
	if *setup {
		if err := sess.Setup(ctx, cfg); err != nil {
			log.Fatalf("setup failed: %v", err)
		}
	}

	dbg, err := app.NewRegisterDebug(sess, cfg.RegisterDebugWritable)
	if err != nil {
		log.Fatalf("REGISTER_DEBUG_WRITABLE: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", dbg.HandleRegisterDebugWS)
	// API endpoint for live accelerometer data
	mux.HandleFunc("/api/sample", dbg.HandleSampleData)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.RegisterDebugPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	log.Printf("Register debug tool listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("fatal: %v", err)
	}
}
