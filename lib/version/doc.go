// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for objstore
// binaries and for the client handshake.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/objstore/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
