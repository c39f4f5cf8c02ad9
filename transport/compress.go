// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a frame body is encoded. The values are
// carried in the frame header and are protocol constants.
type Compression uint8

const (
	// CompressionNone sends bodies as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 uses LZ4 block compression. Cheap enough to
	// leave on for large metadata trees.
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd at the default level. Better ratio on
	// text-heavy metadata, more CPU.
	CompressionZstd Compression = 2
)

// compressionThreshold is the smallest body worth compressing. Typical
// get_meta requests are well under it and go out uncompressed.
const compressionThreshold = 512

// String returns the configuration name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configuration name. The empty string means
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q (want none, lz4, or zstd)", name)
	}
}

// errIncompressible means compression would not shrink the body. The
// frame writer falls back to CompressionNone.
var errIncompressible = errors.New("data is incompressible")

// compressBody compresses data with c. Returns errIncompressible when
// the result would not be smaller than data.
func compressBody(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", uint8(c))
	}
}

// decompressBody reverses compressBody. rawSize must match the
// original length exactly.
func decompressBody(body []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(body) != rawSize {
			return nil, fmt.Errorf("uncompressed frame: size %d does not match header %d", len(body), rawSize)
		}
		return body, nil
	case CompressionLZ4:
		return decompressLZ4(body, rawSize)
	case CompressionZstd:
		return decompressZstd(body, rawSize)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", uint8(c))
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, rawSize int) ([]byte, error) {
	destination := make([]byte, rawSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, rawSize)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use with
// EncodeAll/DecodeAll, so one of each serves every connection.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("transport: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
	if err != nil {
		panic("transport: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, rawSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), rawSize)
	}
	return result, nil
}
