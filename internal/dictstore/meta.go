package dictstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"GoFST/internal/storage"
)

var ErrMetaCorrupt = errors.New("dictionary metadata checksum verification failed")

// Meta describes one stored dictionary.
type Meta struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	InputType string    `json:"input_type"`
	// Outputs names the output algebra the blob was built with, such as
	// "int", "bytes" or "none".
	Outputs   string `json:"outputs"`
	TermCount int64  `json:"term_count"`
	NodeCount int64  `json:"node_count"`
	ArcCount  int64  `json:"arc_count"`
	SizeBytes int64  `json:"size_bytes"`

	// BlobChecksum covers the serialized FST; Checksum covers this record
	// with Checksum itself empty.
	BlobChecksum storage.Checksum `json:"blob_checksum"`
	Checksum     storage.Checksum `json:"checksum"`
}

// MarshalMeta serializes m to JSON and sets its checksum.
func MarshalMeta(m *Meta) ([]byte, error) {
	checksum, err := computeMetaChecksum(m)
	if err != nil {
		return nil, fmt.Errorf("compute meta checksum: %w", err)
	}
	m.Checksum = checksum

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal meta: %w", err)
	}
	return data, nil
}

// UnmarshalMeta deserializes metadata and verifies its checksum.
func UnmarshalMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal meta: %w", err)
	}

	saved := m.Checksum
	computed, err := computeMetaChecksum(&m)
	if err != nil {
		return nil, fmt.Errorf("compute meta checksum for verification: %w", err)
	}
	if computed != saved {
		return nil, fmt.Errorf("%w: %q expected %s, got %s", ErrMetaCorrupt, m.Name, saved, computed)
	}
	if _, err := storage.ParseChecksum(m.BlobChecksum); err != nil {
		return nil, fmt.Errorf("%w: %q blob checksum: %v", ErrMetaCorrupt, m.Name, err)
	}
	return &m, nil
}

func computeMetaChecksum(m *Meta) (storage.Checksum, error) {
	saved := m.Checksum
	m.Checksum = ""
	defer func() { m.Checksum = saved }()

	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal for checksum: %w", err)
	}
	return storage.ComputeChecksum(data), nil
}
