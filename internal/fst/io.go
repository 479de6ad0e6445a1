package fst

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"GoFST/internal/storage"
)

// Magic starts every serialized FST.
const Magic = "GTSRFST\x00"

// FormatVersion is the version of the serialized layout.
const FormatVersion uint32 = 1

var (
	ErrBadMagic   = errors.New("not an FST stream")
	ErrBadVersion = errors.New("unsupported FST format version")
	ErrCorrupt    = errors.New("corrupt FST stream")
)

// Save writes f to w: magic, version, input type, the empty-key output,
// root address, counts, the arena, and a SHA-256 trailer over all of it.
func (f *FST[T]) Save(w io.Writer) error {
	var hdr []byte
	hdr = append(hdr, Magic...)
	hdr = binary.LittleEndian.AppendUint32(hdr, FormatVersion)
	hdr = append(hdr, byte(f.inputType))
	if f.hasEmpty {
		hdr = append(hdr, 1)
		out := f.outputs.Write(nil, f.emptyOutput)
		hdr = binary.AppendUvarint(hdr, uint64(len(out)))
		hdr = append(hdr, out...)
	} else {
		hdr = append(hdr, 0)
	}
	hdr = binary.AppendVarint(hdr, f.root)
	hdr = binary.AppendUvarint(hdr, uint64(f.nodeCount))
	hdr = binary.AppendUvarint(hdr, uint64(f.arcCount))
	hdr = binary.AppendUvarint(hdr, uint64(len(f.bytes)))

	sw := storage.NewSealWriter(w)
	if _, err := sw.Write(hdr); err != nil {
		return fmt.Errorf("fst: write header: %w", err)
	}
	if _, err := sw.Write(f.bytes); err != nil {
		return fmt.Errorf("fst: write arena: %w", err)
	}
	if _, err := sw.Seal(); err != nil {
		return fmt.Errorf("fst: write trailer: %w", err)
	}
	return nil
}

// Load reads an FST written by Save. outputs must be the algebra the FST
// was built with.
func Load[T any](r io.Reader, outputs Outputs[T]) (*FST[T], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fst: read: %w", err)
	}
	payload, err := storage.Unseal(data)
	if err != nil {
		return nil, fmt.Errorf("fst: %w", err)
	}
	return decode(payload, outputs)
}

func decode[T any](p []byte, outputs Outputs[T]) (*FST[T], error) {
	if len(p) < len(Magic)+4+2 || string(p[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}
	p = p[len(Magic):]
	if v := binary.LittleEndian.Uint32(p); v != FormatVersion {
		return nil, fmt.Errorf("fst: version %d: %w", v, ErrBadVersion)
	}
	p = p[4:]

	inputType := InputType(p[0])
	if inputType < InputByte1 || inputType > InputByte4 {
		return nil, fmt.Errorf("fst: input type %d: %w", p[0], ErrCorrupt)
	}
	f := newFST(inputType, outputs)
	hasEmpty := p[1]
	p = p[2:]

	uvarint := func(what string) (uint64, error) {
		v, n := binary.Uvarint(p)
		if n <= 0 {
			return 0, fmt.Errorf("fst: %s: %w", what, ErrCorrupt)
		}
		p = p[n:]
		return v, nil
	}

	if hasEmpty == 1 {
		n, err := uvarint("empty output length")
		if err != nil {
			return nil, err
		}
		if n > uint64(len(p)) {
			return nil, fmt.Errorf("fst: empty output: %w", ErrCorrupt)
		}
		f.emptyOutput = outputs.Read(&BytesReader{buf: p[:n]})
		f.hasEmpty = true
		p = p[n:]
	}

	root, n := binary.Varint(p)
	if n <= 0 {
		return nil, fmt.Errorf("fst: root: %w", ErrCorrupt)
	}
	p = p[n:]

	nodes, err := uvarint("node count")
	if err != nil {
		return nil, err
	}
	arcs, err := uvarint("arc count")
	if err != nil {
		return nil, err
	}
	size, err := uvarint("arena size")
	if err != nil {
		return nil, err
	}
	if size != uint64(len(p)) || size == 0 || root >= int64(size) || root < FinalEndNode {
		return nil, fmt.Errorf("fst: arena of %d bytes, root %d: %w", len(p), root, ErrCorrupt)
	}

	f.bytes = bytes.Clone(p)
	f.root = root
	f.nodeCount = int64(nodes)
	f.arcCount = int64(arcs)
	return f, nil
}

// SaveFile writes f to path atomically.
func (f *FST[T]) SaveFile(path string) error {
	if err := storage.AtomicWrite(path, f.Save); err != nil {
		return fmt.Errorf("fst: save: %w", err)
	}
	return nil
}

// LoadFile reads an FST written by SaveFile.
func LoadFile[T any](path string, outputs Outputs[T]) (*FST[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fst: load %s: %w", path, err)
	}
	defer file.Close()
	return Load(file, outputs)
}
