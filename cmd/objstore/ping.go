// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
)

func pingCommand(stdout, stderr io.Writer) *command {
	var connection connectionFlags
	return &command{
		Name:    "ping",
		Summary: "Check that the daemon is answering",
		Usage:   "objstore ping [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ping", pflag.ContinueOnError)
			connection.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return usagef("ping takes no arguments")
			}
			c, err := connection.connect(ctx, stderr)
			if err != nil {
				return err
			}
			defer c.Disconnect()

			result, err := c.Ping(ctx)
			if err != nil {
				return err
			}
			session := c.Session()

			tw := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "socket\t%s\n", session.Socket)
			fmt.Fprintf(tw, "session\t%d\n", session.SessionID)
			fmt.Fprintf(tw, "instance\t%s\n", session.InstanceID)
			if session.ServerVersion != "" {
				fmt.Fprintf(tw, "server version\t%s\n", session.ServerVersion)
			}
			if session.Peer.Known() {
				fmt.Fprintf(tw, "daemon pid\t%d\n", session.Peer.PID)
			}
			fmt.Fprintf(tw, "uptime\t%s\n", result.Uptime.Truncate(time.Second))
			fmt.Fprintf(tw, "objects\t%d\n", result.Objects)
			fmt.Fprintf(tw, "round trip\t%s\n", result.RoundTrip)
			return tw.Flush()
		},
	}
}
