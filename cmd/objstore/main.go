// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Objstore inspects a local object store daemon.
//
//	objstore meta <object-id> [--sync] [--format text|json|diag]
//	objstore ping
//	objstore version
//
// The daemon socket comes from --socket, then $OBJSTORE_IPC_SOCKET,
// then the client.socket setting of the configuration file (--config
// or $OBJSTORE_CONFIG). The environment overrides the file, as it does
// for every other setting.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/objstore/lib/process"
	"github.com/bureau-foundation/objstore/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "--version" {
		version.Fprint(stdout, "objstore")
		return nil
	}
	return rootCommand(stdout, stderr).execute(ctx, args, stderr)
}

func rootCommand(stdout, stderr io.Writer) *command {
	return &command{
		Name:    "objstore",
		Summary: "Inspect a local object store daemon.",
		Subcommands: []*command{
			metaCommand(stdout, stderr),
			pingCommand(stdout, stderr),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(ctx context.Context, args []string) error {
					version.Fprint(stdout, "objstore")
					return nil
				},
			},
		},
	}
}
