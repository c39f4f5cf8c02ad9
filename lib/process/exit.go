// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
)

// ExitCoder is implemented by errors that choose their own exit code
// (usage errors exit 2).
type ExitCoder interface {
	ExitCode() int
}

// Fatal writes "error: err" to stderr and exits. The exit code comes
// from err when it implements ExitCoder, otherwise 1. Use it in main()
// for errors from run() where the structured logger may not exist.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(ExitCode(err))
}

// ExitCode returns the exit code Fatal would use for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if coder, ok := err.(ExitCoder); ok {
		return coder.ExitCode()
	}
	return 1
}
