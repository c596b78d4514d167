package hashing

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rom-manager/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in   string
		want Algorithm
	}{
		{"crc", CRC},
		{"CRC32", CRC},
		{"md5", MD5},
		{" Sha1 ", SHA1},
		{"SHA-1", SHA1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseAlgorithm("blake3")
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestHash_KnownDigests(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")

	tests := []struct {
		algo Algorithm
		want string
	}{
		{CRC, "414fa339"},
		{MD5, "9e107d9d372bb6826bd81d3542a419d6"},
		{SHA1, "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"},
	}
	for _, tt := range tests {
		t.Run(tt.algo.String(), func(t *testing.T) {
			sum, err := Hash(bytes.NewReader(data), 0, tt.algo)
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), sum.Size)
			assert.Equal(t, tt.want, sum.Digest)
		})
	}
}

func TestHash_Empty(t *testing.T) {
	sum, err := Hash(bytes.NewReader(nil), 0, CRC)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum.Size)
	assert.Equal(t, "00000000", sum.Digest)
}

func TestHash_HeaderSkip(t *testing.T) {
	header := bytes.Repeat([]byte{0xAA}, 16)
	body := []byte("payload bytes")

	withHeader, err := Hash(bytes.NewReader(append(header, body...)), 16, SHA1)
	require.NoError(t, err)
	bare, err := Hash(bytes.NewReader(body), 0, SHA1)
	require.NoError(t, err)

	assert.Equal(t, bare, withHeader)
	assert.Equal(t, int64(len(body)), withHeader.Size)
}

func TestHash_ShorterThanHeader(t *testing.T) {
	sum, err := Hash(strings.NewReader("abc"), 16, MD5)
	require.NoError(t, err)

	empty, err := Hash(strings.NewReader(""), 0, MD5)
	require.NoError(t, err)
	assert.Equal(t, empty, sum)
}

func TestHash_LargerThanBuffer(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), bufferSize/8)
	sum, err := Hash(bytes.NewReader(data), 3, CRC)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)-3), sum.Size)
	assert.Len(t, sum.Digest, 8)
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rom.bin")
	require.NoError(t, os.WriteFile(path, []byte("The quick brown fox jumps over the lazy dog"), 0o644))

	sum, err := HashFile(path, 0, CRC)
	require.NoError(t, err)
	assert.Equal(t, "414fa339", sum.Digest)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing.bin"), 0, CRC)
	assert.True(t, errors.Is(err, errors.ErrIO))
}

func TestAlgorithmColumn(t *testing.T) {
	assert.Equal(t, "crc", CRC.Column())
	assert.Equal(t, "md5", MD5.Column())
	assert.Equal(t, "sha1", SHA1.Column())
}
