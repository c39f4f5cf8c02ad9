// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps both the wire and decompressed length of a frame
// body. Object metadata is small; a frame this large means a bug or a
// hostile peer.
const MaxFrameSize = 16 * 1024 * 1024

const frameHeaderSize = 9

// encodeFrame builds the header and (possibly compressed) body for
// message. The returned slice is ready to write in one call.
func encodeFrame(message []byte, compression Compression) ([]byte, error) {
	if len(message) > MaxFrameSize {
		return nil, fmt.Errorf("encoding %d-byte frame: %w", len(message), ErrFrameTooLarge)
	}

	tag := CompressionNone
	body := message
	if compression != CompressionNone && len(message) >= compressionThreshold {
		compressed, err := compressBody(message, compression)
		switch {
		case err == nil:
			tag = compression
			body = compressed
		case errors.Is(err, errIncompressible):
		default:
			return nil, err
		}
	}

	frame := make([]byte, frameHeaderSize+len(body))
	frame[0] = byte(tag)
	binary.BigEndian.PutUint32(frame[1:5], uint32(len(body)))
	binary.BigEndian.PutUint32(frame[5:9], uint32(len(message)))
	copy(frame[frameHeaderSize:], body)
	return frame, nil
}

// readFrame reads one frame from r and returns the decompressed body.
// io.EOF is returned unwrapped only when r ends cleanly between frames.
func readFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	tag := Compression(header[0])
	wireSize := binary.BigEndian.Uint32(header[1:5])
	rawSize := binary.BigEndian.Uint32(header[5:9])
	if wireSize > MaxFrameSize || rawSize > MaxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes (%d decompressed): %w", wireSize, rawSize, ErrFrameTooLarge)
	}

	body := make([]byte, wireSize)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading %d-byte frame body: %w", wireSize, err)
	}

	message, err := decompressBody(body, tag, int(rawSize))
	if err != nil {
		return nil, fmt.Errorf("decoding frame body: %w", err)
	}
	return message, nil
}
