// Package compression encodes and decodes HTTP content codings used by
// content gateways.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	Brotli = "br"
	Zstd   = "zstd"
	Gzip   = "gzip"
)

// ErrTooLarge reports decoded content over the caller's limit.
var ErrTooLarge = errors.New("decoded content too large")

// AcceptEncoding lists the codings Decode understands, in preference order.
const AcceptEncoding = "br, zstd, gzip"

func BrotliCompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	buf := bytes.NewBuffer(nil)
	writer := brotli.NewWriterV2(buf, 9)

	_, err := writer.Write(data)
	if err != nil {
		return nil, fmt.Errorf("failed to write data to brotli compressor: %w", err)
	}
	err = writer.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to close brotli compressor: %w", err)
	}

	return buf.Bytes(), nil
}

func BrotliDecompress(data []byte) ([]byte, error) {
	return DecodeLimit(Brotli, data, -1)
}

func ZstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func ZstdDecompress(data []byte) ([]byte, error) {
	return DecodeLimit(Zstd, data, -1)
}

func GzipCompress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := gzip.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write data to gzip compressor: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip compressor: %w", err)
	}
	return buf.Bytes(), nil
}

func GzipDecompress(data []byte) ([]byte, error) {
	return DecodeLimit(Gzip, data, -1)
}

// Encode applies the named content coding. An empty or identity coding
// returns data unchanged.
func Encode(encoding string, data []byte) ([]byte, error) {
	switch normalize(encoding) {
	case "", "identity":
		return data, nil
	case Brotli:
		return BrotliCompress(data)
	case Zstd:
		return ZstdCompress(data)
	case Gzip:
		return GzipCompress(data)
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}

// Decode reverses Encode.
func Decode(encoding string, data []byte) ([]byte, error) {
	return DecodeLimit(encoding, data, -1)
}

// DecodeLimit reverses Encode and fails with ErrTooLarge when the decoded
// content would exceed limit bytes. A negative limit disables the check.
func DecodeLimit(encoding string, data []byte, limit int64) ([]byte, error) {
	coding := normalize(encoding)
	if coding == "" || coding == "identity" {
		if limit >= 0 && int64(len(data)) > limit {
			return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
		}
		return data, nil
	}
	if len(data) == 0 {
		return nil, nil
	}

	r, err := newReader(coding, data)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if limit < 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return out, nil
}

func newReader(coding string, data []byte) (io.ReadCloser, error) {
	switch coding {
	case Brotli:
		return io.NopCloser(brotli.NewReader(bytes.NewReader(data))), nil
	case Zstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", coding)
}

func normalize(encoding string) string {
	return strings.ToLower(strings.TrimSpace(encoding))
}
