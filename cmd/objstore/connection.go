// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/objstore/lib/client"
	"github.com/bureau-foundation/objstore/lib/config"
)

// connectionFlags are the flags shared by commands that talk to the
// daemon.
type connectionFlags struct {
	configPath string
	socket     string
}

func (f *connectionFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "configuration file (default $"+config.ConfigEnvVar+")")
	flagSet.StringVar(&f.socket, "socket", "", "daemon socket (default $"+config.SocketEnvVar+", then client.socket)")
}

// connect loads configuration and opens a session. Logs go to stderr.
// The caller must Disconnect the returned client.
func (f *connectionFlags) connect(ctx context.Context, stderr io.Writer) (*client.IPCClient, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(stderr, cfg.SlogLevel())

	options, err := client.IPCOptionsFromConfig(cfg.Client, logger)
	if err != nil {
		return nil, err
	}
	c := client.NewIPCClient(options)

	socket := f.socket
	if socket == "" {
		socket = cfg.Client.Socket
	}
	if _, err := c.Connect(ctx, socket); err != nil {
		return nil, err
	}
	return c, nil
}
