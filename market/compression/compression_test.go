package compression_test

import (
	"bytes"
	"testing"

	"github.com/chennaiartisanal/provenance/market/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"name":"Clay Pot","materials":"Clay"}`), 50)

	for _, enc := range []string{compression.Brotli, compression.Zstd, compression.Gzip, "identity", ""} {
		t.Run(enc, func(t *testing.T) {
			encoded, err := compression.Encode(enc, payload)
			require.NoError(t, err)

			decoded, err := compression.Decode(enc, encoded)
			require.NoError(t, err)
			assert.Equal(t, payload, decoded)
		})
	}
}

func TestBrotliShrinks(t *testing.T) {
	payload := bytes.Repeat([]byte("handloom "), 200)
	encoded, err := compression.BrotliCompress(payload)
	require.NoError(t, err)
	assert.Less(t, len(encoded), len(payload))

	empty, err := compression.BrotliCompress(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestUnsupported(t *testing.T) {
	_, err := compression.Decode("compress", []byte("x"))
	require.Error(t, err)
	_, err = compression.Encode("compress", []byte("x"))
	require.Error(t, err)
}

func TestDecodeLimit(t *testing.T) {
	payload := bytes.Repeat([]byte("kolam "), 400)
	size := int64(len(payload))

	for _, enc := range []string{compression.Brotli, compression.Zstd, compression.Gzip, ""} {
		t.Run(enc, func(t *testing.T) {
			encoded, err := compression.Encode(enc, payload)
			require.NoError(t, err)

			decoded, err := compression.DecodeLimit(enc, encoded, size)
			require.NoError(t, err)
			assert.Equal(t, payload, decoded)

			_, err = compression.DecodeLimit(enc, encoded, size-1)
			require.ErrorIs(t, err, compression.ErrTooLarge)
		})
	}
}
