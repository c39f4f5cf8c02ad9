// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/bureau-foundation/objstore/lib/testutil"
)

// listenAndDial returns a connected client/server pair over a real
// Unix socket.
func listenAndDial(t *testing.T, compression Compression) (client Conn, server Conn) {
	t.Helper()
	path := filepath.Join(testutil.SocketDir(t), "daemon.sock")
	listener, err := ListenUnix(path, compression, nil)
	if err != nil {
		t.Fatalf("ListenUnix: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	accepted := make(chan Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	dialer := &UnixDialer{Compression: compression}
	client, err = dialer.Dial(t.Context(), path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	server = testutil.RequireReceive(t, accepted, 5*time.Second, "waiting for Accept")
	t.Cleanup(func() { server.Close() })
	return client, server
}

func TestUnixRoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(compression.String(), func(t *testing.T) {
			client, server := listenAndDial(t, compression)
			ctx := t.Context()

			request := compressibleMessage(4096)
			if err := client.Send(ctx, request); err != nil {
				t.Fatalf("client Send: %v", err)
			}
			received, err := server.Recv(ctx)
			if err != nil {
				t.Fatalf("server Recv: %v", err)
			}
			if string(received) != string(request) {
				t.Fatal("server received a different body")
			}

			if err := server.Send(ctx, []byte("ok")); err != nil {
				t.Fatalf("server Send: %v", err)
			}
			reply, err := client.Recv(ctx)
			if err != nil {
				t.Fatalf("client Recv: %v", err)
			}
			if string(reply) != "ok" {
				t.Errorf("reply = %q, want ok", reply)
			}
		})
	}
}

func TestRecvTimeoutKeepsLateFrame(t *testing.T) {
	client, server := listenAndDial(t, CompressionNone)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Recv(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Recv with nothing sent = %v, want DeadlineExceeded", err)
	}

	if err := server.Send(t.Context(), []byte("late")); err != nil {
		t.Fatalf("server Send: %v", err)
	}
	if err := server.Send(t.Context(), []byte("next")); err != nil {
		t.Fatalf("server Send: %v", err)
	}
	for _, want := range []string{"late", "next"} {
		got, err := client.Recv(t.Context())
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if string(got) != want {
			t.Errorf("Recv = %q, want %q", got, want)
		}
	}
}

func TestRecvAfterPeerCloseReturnsEOF(t *testing.T) {
	client, server := listenAndDial(t, CompressionNone)
	server.Close()

	_, err := client.Recv(t.Context())
	if !errors.Is(err, io.EOF) {
		t.Errorf("Recv after peer close = %v, want io.EOF", err)
	}
}

func TestCloseIsIdempotentAndUnblocksRecv(t *testing.T) {
	client, _ := listenAndDial(t, CompressionNone)

	done := make(chan error, 1)
	go func() {
		_, err := client.Recv(context.Background())
		done <- err
	}()

	if err := client.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close returned %v, want the first call's result", err)
	}

	err := testutil.RequireReceive(t, done, 5*time.Second, "waiting for Recv to unblock")
	if !errors.Is(err, net.ErrClosed) {
		t.Errorf("Recv after Close = %v, want net.ErrClosed", err)
	}
	if err := client.Send(t.Context(), []byte("x")); err == nil {
		t.Error("Send after Close succeeded")
	}
}

func TestSendHonoursCancelledContext(t *testing.T) {
	client, _ := listenAndDial(t, CompressionNone)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err := client.Send(ctx, []byte("never"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Send with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestDialMissingSocket(t *testing.T) {
	dialer := &UnixDialer{}
	_, err := dialer.Dial(t.Context(), filepath.Join(testutil.SocketDir(t), "absent.sock"))
	if err == nil {
		t.Fatal("Dial to a missing socket succeeded")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Dial error = %v, want it to wrap ENOENT", err)
	}
}

func TestPeerCredentials(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("SO_PEERCRED is Linux-only")
	}
	client, server := listenAndDial(t, CompressionNone)
	for name, conn := range map[string]Conn{"client": client, "server": server} {
		peer := conn.Peer()
		if !peer.Known() {
			t.Errorf("%s: peer credentials unknown", name)
			continue
		}
		if int(peer.PID) != os.Getpid() {
			t.Errorf("%s: peer pid = %d, want %d (same process)", name, peer.PID, os.Getpid())
		}
		if int(peer.UID) != os.Getuid() {
			t.Errorf("%s: peer uid = %d, want %d", name, peer.UID, os.Getuid())
		}
	}
}
