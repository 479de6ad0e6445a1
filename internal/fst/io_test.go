package fst

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoFST/internal/storage"
	"GoFST/internal/testutil"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	terms := testutil.RandomTerms(rng, 300, "abcdefghij", 0, 7)
	vals := make([]int64, len(terms))
	for i := range vals {
		vals[i] = rng.Int63n(1 << 40)
	}
	f := buildStrings(t, terms, vals)

	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))

	g, err := Load[int64](bytes.NewReader(buf.Bytes()), PositiveIntOutputs{})
	require.NoError(t, err)
	assert.Equal(t, f.NodeCount(), g.NodeCount())
	assert.Equal(t, f.ArcCount(), g.ArcCount())
	assert.Equal(t, f.SizeInBytes(), g.SizeInBytes())
	assert.Equal(t, f.InputType(), g.InputType())

	got := enumAll(g)
	require.Len(t, got, len(terms))
	for i := range got {
		assert.Equal(t, terms[i], testutil.String(got[i].Input))
		assert.Equal(t, vals[i], got[i].Output)
	}
}

func TestSaveLoadByteOutputsAndEmptyKey(t *testing.T) {
	keys := [][]int32{{}, L("x"), L("xy")}
	vals := [][]byte{[]byte("root"), []byte("ex"), nil}
	f := build[[]byte](t, InputByte2, ByteSequenceOutputs{}, DefaultBuilderOptions(), keys, vals)

	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))
	g, err := Load[[]byte](&buf, ByteSequenceOutputs{})
	require.NoError(t, err)

	out, ok := g.EmptyOutput()
	require.True(t, ok)
	assert.Equal(t, []byte("root"), out)
	for i, k := range keys {
		got, ok := Get(g, k)
		require.True(t, ok)
		assert.Equal(t, vals[i], got)
	}
}

func TestSaveLoadEmpty(t *testing.T) {
	f := buildStrings(t, nil, nil)
	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))

	g, err := Load[int64](&buf, PositiveIntOutputs{})
	require.NoError(t, err)
	assert.True(t, g.Empty())
}

func TestLoadDetectsCorruption(t *testing.T) {
	f := buildStrings(t, testutil.SampleTerms(), make([]int64, len(testutil.SampleTerms())))
	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf))
	data := buf.Bytes()

	for _, i := range []int{0, 9, len(data) / 2, len(data) - 1} {
		corrupt := bytes.Clone(data)
		corrupt[i] ^= 0xff
		g, err := Load[int64](bytes.NewReader(corrupt), PositiveIntOutputs{})
		assert.Nil(t, g)
		assert.ErrorIs(t, err, storage.ErrChecksumMismatch, "byte %d", i)
	}

	_, err := Load[int64](bytes.NewReader(data[:10]), PositiveIntOutputs{})
	assert.Error(t, err)
}

func TestLoadRejectsForeignStreams(t *testing.T) {
	seal := func(payload []byte) []byte {
		var buf bytes.Buffer
		sw := storage.NewSealWriter(&buf)
		_, err := sw.Write(payload)
		require.NoError(t, err)
		_, err = sw.Seal()
		require.NoError(t, err)
		return buf.Bytes()
	}

	_, err := Load[int64](bytes.NewReader(seal([]byte("GTSRPST\x00\x01\x00\x00\x00\x01\x00"))), PositiveIntOutputs{})
	assert.ErrorIs(t, err, ErrBadMagic)

	_, err = Load[int64](bytes.NewReader(seal([]byte(Magic+"\x09\x00\x00\x00\x01\x00"))), PositiveIntOutputs{})
	assert.ErrorIs(t, err, ErrBadVersion)

	_, err = Load[int64](bytes.NewReader(seal([]byte(Magic+"\x01\x00\x00\x00\x07\x00"))), PositiveIntOutputs{})
	assert.ErrorIs(t, err, ErrCorrupt)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoadPropagatesReadErrors(t *testing.T) {
	g, err := Load[int64](failingReader{}, PositiveIntOutputs{})
	assert.Nil(t, g)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestSaveLoadFile(t *testing.T) {
	testutil.WithTempDir(t, func(dir string) {
		path := filepath.Join(dir, "terms.fst")
		terms := testutil.SampleTerms()
		vals := make([]int64, len(terms))
		for i := range vals {
			vals[i] = int64(i)
		}
		f := buildStrings(t, terms, vals)
		require.NoError(t, f.SaveFile(path))
		testutil.AssertFileExists(t, path)

		g, err := LoadFile[int64](path, PositiveIntOutputs{})
		require.NoError(t, err)
		for i, term := range terms {
			got, ok := Get(g, L(term))
			require.True(t, ok)
			assert.Equal(t, vals[i], got)
		}

		_, err = LoadFile[int64](filepath.Join(dir, "missing.fst"), PositiveIntOutputs{})
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
