package sheetsql

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshminarasimha6802/sheetsql/domain/model"
)

func TestCompressionHandler_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte("Name,Score\nalice,10\nbob,20\n")

	tests := []struct {
		name        string
		compression model.CompressionType
	}{
		{name: "none", compression: model.CompressionNone},
		{name: "gzip", compression: model.CompressionGZ},
		{name: "xz", compression: model.CompressionXZ},
		{name: "zstd", compression: model.CompressionZSTD},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewCompressionHandler(tt.compression)

			var buf bytes.Buffer
			writer, writeCleanup, err := handler.CreateWriter(&buf)
			require.NoError(t, err)
			_, err = writer.Write(payload)
			require.NoError(t, err)
			require.NoError(t, writeCleanup(), "cleanup must flush the compressed stream")

			reader, readCleanup, err := handler.CreateReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			got, err := io.ReadAll(reader)
			require.NoError(t, err)
			require.NoError(t, readCleanup())

			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressionHandler_BZ2WriteUnsupported(t *testing.T) {
	t.Parallel()

	handler := NewCompressionHandler(model.CompressionBZ2)

	var buf bytes.Buffer
	_, _, err := handler.CreateWriter(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bzip2")
}

func TestCompressionHandler_Extension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		compression model.CompressionType
		want        string
	}{
		{compression: model.CompressionNone, want: ""},
		{compression: model.CompressionGZ, want: ".gz"},
		{compression: model.CompressionBZ2, want: ".bz2"},
		{compression: model.CompressionXZ, want: ".xz"},
		{compression: model.CompressionZSTD, want: ".zst"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NewCompressionHandler(tt.compression).Extension())
	}
}
