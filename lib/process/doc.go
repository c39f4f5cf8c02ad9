// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for objstore binaries:
// fatal error reporting to stderr before a structured logger exists,
// and exit code selection.
package process
