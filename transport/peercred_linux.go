// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package transport

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// peerCredentials reads SO_PEERCRED from conn.
func peerCredentials(conn *net.UnixConn) (PeerCredentials, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return PeerCredentials{}, fmt.Errorf("accessing raw socket: %w", err)
	}

	var ucred *unix.Ucred
	var sockoptErr error
	if err := raw.Control(func(fd uintptr) {
		ucred, sockoptErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return PeerCredentials{}, fmt.Errorf("controlling raw socket: %w", err)
	}
	if sockoptErr != nil {
		return PeerCredentials{}, fmt.Errorf("reading SO_PEERCRED: %w", sockoptErr)
	}
	return PeerCredentials{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, nil
}
