package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"rom-manager/core/errors"
)

// Algorithm names a supported content digest.
type Algorithm string

const (
	// CRC is CRC-32 (IEEE), rendered as 8 lowercase hex digits.
	CRC Algorithm = "CRC"
	// MD5 is the 128-bit MD5 digest.
	MD5 Algorithm = "MD5"
	// SHA1 is the 160-bit SHA-1 digest.
	SHA1 Algorithm = "SHA1"
)

// bufferSize bounds memory use while streaming.
const bufferSize = 64 * 1024

// Algorithms lists every supported algorithm in preference order.
var Algorithms = []Algorithm{CRC, MD5, SHA1}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CRC", "CRC32":
		return CRC, nil
	case "MD5":
		return MD5, nil
	case "SHA1", "SHA-1":
		return SHA1, nil
	default:
		return "", errors.NewConfigurationError("hash algorithm", name, "supported values are CRC, MD5 and SHA1")
	}
}

// Column returns the catalog column holding digests of this algorithm.
func (a Algorithm) Column() string {
	return strings.ToLower(string(a))
}

func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) newHash() hash.Hash {
	switch a {
	case MD5:
		return md5.New()
	case SHA1:
		return sha1.New()
	default:
		return crc32.NewIEEE()
	}
}

// Sum is the identity of a byte stream under one algorithm.
type Sum struct {
	// Size is the number of bytes hashed, header excluded.
	Size int64
	// Digest is lowercase hex without separators.
	Digest string
}

// Hash streams r through algo, ignoring the first headerSize bytes for both
// the size and the digest. An input shorter than the header hashes as empty.
func Hash(r io.Reader, headerSize int64, algo Algorithm) (Sum, error) {
	if headerSize > 0 {
		if _, err := io.CopyN(io.Discard, r, headerSize); err != nil && err != io.EOF {
			return Sum{}, err
		}
	}

	h := algo.newHash()
	buf := make([]byte, bufferSize)
	n, err := io.CopyBuffer(h, r, buf)
	if err != nil {
		return Sum{}, err
	}

	return Sum{Size: n, Digest: hex.EncodeToString(h.Sum(nil))}, nil
}

// HashFile hashes the file at path.
func HashFile(path string, headerSize int64, algo Algorithm) (Sum, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sum{}, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	sum, err := Hash(f, headerSize, algo)
	if err != nil {
		return Sum{}, errors.WrapIO("read", path, err)
	}
	return sum, nil
}
