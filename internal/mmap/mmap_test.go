package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMmap_CreateExtendsToExactSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	m, err := Create(path, 4096)
	require.NoError(t, err)
	defer m.Close()

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), fi.Size())
	assert.Equal(t, int64(4096), m.Size())
	assert.Len(t, m.Bytes(), 4096)

	// Fresh mapping is zero-filled.
	for _, b := range m.Bytes() {
		if b != 0 {
			t.Fatal("fresh mapping is not zero-filled")
		}
	}
}

func TestMmap_CreateExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	m, err := Create(path, 64)
	require.NoError(t, err)
	defer m.Close()

	_, err = Create(path, 64)
	require.Error(t, err)
	assert.True(t, os.IsExist(err))
}

func TestMmap_WriteVisibleThroughSecondMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	m1, err := Create(path, 128)
	require.NoError(t, err)
	defer m1.Close()

	copy(m1.Bytes(), []byte("hello shared world"))
	require.NoError(t, m1.Sync())

	m2, err := Open(path)
	require.NoError(t, err)
	defer m2.Close()

	assert.Equal(t, []byte("hello shared world"), m2.Bytes()[:18])

	// And the reverse direction.
	m2.Bytes()[0] = 'H'
	assert.Equal(t, byte('H'), m1.Bytes()[0])
}

func TestMmap_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestMmap_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	m, err := Create(path, 64)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.Equal(t, ErrClosed, m.Sync())
}

func TestMmap_InvalidSize(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x"), 0)
	assert.Equal(t, ErrInvalidSize, err)
}

func TestMmap_Advise(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")

	m, err := Create(path, 4096)
	require.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Advise(AccessDefault))
}
