// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/objstore/lib/client"
	"github.com/bureau-foundation/objstore/lib/codec"
	"github.com/bureau-foundation/objstore/lib/ipc"
	"github.com/bureau-foundation/objstore/lib/objectid"
)

func metaCommand(stdout, stderr io.Writer) *command {
	var (
		connection connectionFlags
		syncRemote bool
		format     string
	)
	return &command{
		Name:    "meta",
		Summary: "Show an object's metadata",
		Usage:   "objstore meta <object-id> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("meta", pflag.ContinueOnError)
			connection.addFlags(flagSet)
			flagSet.BoolVar(&syncRemote, "sync", false, "ask the daemon for its authoritative copy")
			flagSet.StringVar(&format, "format", "", "text, json or diag (default text on a terminal, json otherwise)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return usagef("meta takes exactly one object id, got %d arguments", len(args))
			}
			id, err := objectid.Parse(args[0])
			if err != nil {
				return usagef("%v", err)
			}
			if format == "" {
				format = "json"
				if isTerminal(stdout) {
					format = "text"
				}
			}
			if format != "text" && format != "json" && format != "diag" {
				return usagef("unknown format %q (want text, json or diag)", format)
			}

			c, err := connection.connect(ctx, stderr)
			if err != nil {
				return err
			}
			defer c.Disconnect()

			meta, err := c.GetMetaData(ctx, id, syncRemote)
			if err != nil {
				return err
			}
			switch format {
			case "diag":
				return writeMetaDiag(stdout, meta)
			case "json":
				return writeMetaJSON(stdout, meta)
			default:
				return writeMetaText(stdout, meta)
			}
		},
	}
}

// metaJSON is the --format json shape.
type metaJSON struct {
	ObjectID   string         `json:"object_id"`
	TypeName   string         `json:"typename,omitempty"`
	NBytes     uint64         `json:"nbytes"`
	InstanceID string         `json:"instance_id,omitempty"`
	Sealed     bool           `json:"sealed"`
	Digest     string         `json:"digest"`
	FetchedAt  time.Time      `json:"fetched_at"`
	Fields     map[string]any `json:"fields"`
}

func writeMetaJSON(w io.Writer, meta *client.ObjectMeta) error {
	fields, err := meta.Fields()
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metaJSON{
		ObjectID:   meta.ID().String(),
		TypeName:   meta.TypeName(),
		NBytes:     meta.NBytes(),
		InstanceID: meta.InstanceID(),
		Sealed:     meta.IsSealed(),
		Digest:     meta.Digest().String(),
		FetchedAt:  meta.FetchedAt(),
		Fields:     fields,
	})
}

func writeMetaText(w io.Writer, meta *client.ObjectMeta) error {
	fields, err := meta.Fields()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "object\t%s\n", meta.ID())
	fmt.Fprintf(tw, "typename\t%s\n", meta.TypeName())
	fmt.Fprintf(tw, "nbytes\t%d\n", meta.NBytes())
	fmt.Fprintf(tw, "instance\t%s\n", meta.InstanceID())
	fmt.Fprintf(tw, "sealed\t%t\n", meta.IsSealed())
	fmt.Fprintf(tw, "digest\t%s\n", meta.Digest())

	known := []string{ipc.MetaKeyTypeName, ipc.MetaKeyNBytes, ipc.MetaKeyInstanceID, ipc.MetaKeySealed}
	var extra []string
	for key := range fields {
		if !slices.Contains(known, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	for _, key := range extra {
		fmt.Fprintf(tw, "%s\t%v\n", key, fields[key])
	}
	return tw.Flush()
}

func writeMetaDiag(w io.Writer, meta *client.ObjectMeta) error {
	diagnostic, err := codec.Diagnose(meta.Payload())
	if err != nil {
		return fmt.Errorf("formatting metadata for %s: %w", meta.ID(), err)
	}
	_, err = fmt.Fprintln(w, diagnostic)
	return err
}
