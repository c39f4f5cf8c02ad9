// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Structs that record timestamps hold a Clock field instead of calling
// time.Now directly:
//
//	client := client.NewIPCClient(client.IPCOptions{Clock: clock.Real()})
//
// Tests pin time with a FakeClock and move it explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	fake.Advance(5 * time.Second)
//
// Network deadlines are not routed through Clock. They come from the
// caller's context and are enforced by the kernel on the socket.
package clock
