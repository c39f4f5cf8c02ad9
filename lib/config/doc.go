// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads configuration for objstore clients and the
// mock daemon.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults ([Default]).
//  2. One file, named by the --config flag or the OBJSTORE_CONFIG
//     environment variable. YAML is the native format; files ending in
//     .json or .jsonc are accepted after comment and trailing-comma
//     stripping. There is no automatic discovery.
//  3. A small set of OBJSTORE_* environment variables ([Environment])
//     for the settings operators routinely change per process: the
//     daemon socket, compression, cache size, log level.
//
// ${VAR} and ${VAR:-default} references in socket and lock paths are
// expanded after all layers are applied.
package config
