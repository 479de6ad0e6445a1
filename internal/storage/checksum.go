// Package storage holds the durability helpers shared by the FST codec and
// the dictionary store: SHA-256 checksums, checksum-sealed blobs and atomic
// file replacement.
package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	// ChecksumPrefix is the prefix for SHA-256 checksums.
	ChecksumPrefix = "sha256:"

	// TrailerSize is the length of the raw digest that ends a sealed blob.
	TrailerSize = sha256.Size

	checksumBufSize = 32 * 1024
)

// Checksum is a hex-encoded SHA-256 hash with the "sha256:" prefix.
type Checksum string

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrInvalidChecksum  = errors.New("invalid checksum format")
	ErrTruncated        = errors.New("sealed blob shorter than its trailer")
)

var bufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, checksumBufSize)
		return &buf
	},
}

// ComputeChecksum computes SHA-256 over a byte slice.
func ComputeChecksum(data []byte) Checksum {
	sum := sha256.Sum256(data)
	return FormatChecksum(sum[:])
}

// ComputeFileChecksum opens a file and computes its SHA-256 checksum.
func ComputeFileChecksum(path string) (Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("compute file checksum %s: %w", path, err)
	}
	defer f.Close()

	bufPtr := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufPtr)

	return ComputeReaderChecksum(f, *bufPtr)
}

// ComputeReaderChecksum computes SHA-256 by streaming from an io.Reader.
// If buf is nil, a default 32KB buffer is allocated.
func ComputeReaderChecksum(r io.Reader, buf []byte) (Checksum, error) {
	h := sha256.New()
	if buf == nil {
		buf = make([]byte, checksumBufSize)
	}
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("compute reader checksum: %w", err)
	}
	return FormatChecksum(h.Sum(nil)), nil
}

// VerifyChecksum checks data against an expected checksum.
func VerifyChecksum(data []byte, expected Checksum) error {
	if actual := ComputeChecksum(data); actual != expected {
		return fmt.Errorf("%w: expected %s got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}

// VerifyFileChecksum verifies that a file's SHA-256 matches the expected checksum.
func VerifyFileChecksum(path string, expected Checksum) error {
	actual, err := ComputeFileChecksum(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: file %s expected %s got %s", ErrChecksumMismatch, path, expected, actual)
	}
	return nil
}

// FormatChecksum formats raw hash bytes into a Checksum with the "sha256:" prefix.
func FormatChecksum(sum []byte) Checksum {
	return Checksum(ChecksumPrefix + hex.EncodeToString(sum))
}

// ParseChecksum strips the "sha256:" prefix and returns the raw hex string.
func ParseChecksum(c Checksum) (string, error) {
	s := string(c)
	if !strings.HasPrefix(s, ChecksumPrefix) {
		return "", fmt.Errorf("%w: missing prefix %q", ErrInvalidChecksum, ChecksumPrefix)
	}
	hexStr := s[len(ChecksumPrefix):]
	if len(hexStr) != 64 {
		return "", fmt.Errorf("%w: expected 64 hex chars, got %d", ErrInvalidChecksum, len(hexStr))
	}
	if _, err := hex.DecodeString(hexStr); err != nil {
		return "", fmt.Errorf("%w: invalid hex: %v", ErrInvalidChecksum, err)
	}
	return hexStr, nil
}

// SealWriter hashes everything written through it; Seal appends the raw
// digest as a trailer.
type SealWriter struct {
	w      io.Writer
	h      hash.Hash
	sealed bool
}

// NewSealWriter returns a SealWriter writing to w.
func NewSealWriter(w io.Writer) *SealWriter {
	return &SealWriter{w: w, h: sha256.New()}
}

func (s *SealWriter) Write(p []byte) (int, error) {
	if s.sealed {
		return 0, errors.New("storage: write after seal")
	}
	n, err := s.w.Write(p)
	s.h.Write(p[:n])
	return n, err
}

// Seal writes the trailer and returns the checksum of the payload.
func (s *SealWriter) Seal() (Checksum, error) {
	s.sealed = true
	sum := s.h.Sum(nil)
	if _, err := s.w.Write(sum); err != nil {
		return "", err
	}
	return FormatChecksum(sum), nil
}

// Unseal splits a blob written through a SealWriter into its payload and
// verifies the trailer.
func Unseal(data []byte) ([]byte, error) {
	if len(data) < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	payload, trailer := data[:len(data)-TrailerSize], data[len(data)-TrailerSize:]
	sum := sha256.Sum256(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("%w: expected %s got %s", ErrChecksumMismatch, FormatChecksum(trailer), FormatChecksum(sum[:]))
	}
	return payload, nil
}
