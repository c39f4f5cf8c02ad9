// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package transport

import (
	"errors"
	"net"
)

func peerCredentials(*net.UnixConn) (PeerCredentials, error) {
	return PeerCredentials{}, errors.ErrUnsupported
}
