// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"testing"
)

type usageError struct{}

func (usageError) Error() string { return "bad flag" }
func (usageError) ExitCode() int { return 2 }

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
	if got := ExitCode(errors.New("boom")); got != 1 {
		t.Errorf("ExitCode(plain) = %d, want 1", got)
	}
	if got := ExitCode(usageError{}); got != 2 {
		t.Errorf("ExitCode(usage) = %d, want 2", got)
	}
}
