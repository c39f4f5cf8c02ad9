// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// frameConn implements Conn over any net.Conn.
type frameConn struct {
	conn        net.Conn
	compression Compression
	peer        PeerCredentials

	writeMu sync.Mutex
	broken  bool

	// frames carries bodies from the reader goroutine to Recv. It is
	// unbuffered: the reader holds at most one frame while waiting
	// for a Recv to take it.
	frames chan []byte

	// readDone is closed when the reader goroutine exits; readErr is
	// valid after that.
	readDone chan struct{}
	readErr  error

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

func newFrameConn(conn net.Conn, compression Compression, peer PeerCredentials) *frameConn {
	c := &frameConn{
		conn:        conn,
		compression: compression,
		peer:        peer,
		frames:      make(chan []byte),
		readDone:    make(chan struct{}),
		closed:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *frameConn) readLoop() {
	defer close(c.readDone)
	for {
		message, err := readFrame(c.conn)
		if err != nil {
			c.readErr = err
			return
		}
		select {
		case c.frames <- message:
		case <-c.closed:
			c.readErr = net.ErrClosed
			return
		}
	}
}

// Send writes message as one frame.
func (c *frameConn) Send(ctx context.Context, message []byte) error {
	frame, err := encodeFrame(message, c.compression)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.broken {
		return ErrBroken
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(deadline)
	}
	// A deadline in the past makes the blocked Write return at once.
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetWriteDeadline(time.Unix(1, 0))
		close(fired)
	})
	written, writeErr := c.conn.Write(frame)
	if !stop() {
		<-fired
	}
	c.conn.SetWriteDeadline(time.Time{})

	if writeErr != nil {
		if written > 0 {
			c.broken = true
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("writing frame: %w", ctxErr)
		}
		return fmt.Errorf("writing frame: %w", writeErr)
	}
	return nil
}

// Recv returns the next frame body.
func (c *frameConn) Recv(ctx context.Context) ([]byte, error) {
	select {
	case message := <-c.frames:
		return message, nil
	case <-c.readDone:
		return nil, c.readErr
	case <-c.closed:
		return nil, fmt.Errorf("reading frame: %w", net.ErrClosed)
	case <-ctx.Done():
		return nil, fmt.Errorf("reading frame: %w", ctx.Err())
	}
}

// Close closes the socket and stops the reader goroutine.
func (c *frameConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Peer returns the credentials captured when the connection was
// established.
func (c *frameConn) Peer() PeerCredentials {
	return c.peer
}
