// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Objstore-mock-daemon serves object metadata over the objstore IPC
// protocol from an in-memory store, for tests and local development.
// Objects listed under daemon.seed in the configuration are loaded at
// startup; clients may add more with put_meta.
//
// Only one daemon serves a socket at a time: the daemon holds an
// exclusive lock on daemon.lock_file (default: the socket path plus
// ".lock") while it runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/objstore/lib/config"
	"github.com/bureau-foundation/objstore/lib/metastore"
	"github.com/bureau-foundation/objstore/lib/mockdaemon"
	"github.com/bureau-foundation/objstore/lib/process"
	"github.com/bureau-foundation/objstore/lib/version"
	"github.com/bureau-foundation/objstore/transport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

// run serves until ctx is cancelled. ready, when non-nil, receives the
// server once it is listening.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, ready chan<- *mockdaemon.Server) error {
	var (
		configPath  string
		socket      string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("objstore-mock-daemon", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&configPath, "config", "", "configuration file (default $"+config.ConfigEnvVar+")")
	flagSet.StringVar(&socket, "socket", "", "socket to listen on (overrides daemon.socket)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		version.Fprint(stdout, "objstore-mock-daemon")
		return nil
	}
	if flagSet.NArg() != 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if socket != "" {
		cfg.Daemon.Socket = socket
	}
	logger := newLogger(stderr, cfg.SlogLevel())

	compression, err := transport.ParseCompression(cfg.Daemon.Compression)
	if err != nil {
		return fmt.Errorf("daemon compression: %w", err)
	}

	store := metastore.New(uuid.NewString())
	if err := mockdaemon.Seed(store, cfg.Daemon.Seed); err != nil {
		return err
	}

	server := mockdaemon.New(mockdaemon.Options{
		SocketPath:    cfg.Daemon.Socket,
		LockFile:      cfg.DaemonLockFile(),
		Store:         store,
		Compression:   compression,
		ServerVersion: version.Short(),
		Logger:        logger,
	})
	logger.Info("starting mock daemon",
		"version", version.Info(),
		"objects", store.Len(),
	)

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ctx) }()

	select {
	case <-server.Ready():
		if ready != nil {
			ready <- server
		}
	case err := <-serveDone:
		return err
	}

	if err := <-serveDone; err != nil {
		return err
	}
	logger.Info("mock daemon stopped")
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}
