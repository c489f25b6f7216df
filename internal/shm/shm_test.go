package shm

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testName(t *testing.T) string {
	t.Helper()
	name := "bigmat_test_" + uuid.NewString()
	t.Cleanup(func() { _ = Remove(name) })
	return name
}

func TestShm_CreateOpenRemove(t *testing.T) {
	name := testName(t)

	s1, err := Create(name, 256)
	require.NoError(t, err)
	defer s1.Close()

	assert.True(t, Exists(name))
	assert.Equal(t, int64(256), s1.Size())

	copy(s1.Bytes(), []byte("segment data"))

	s2, err := Open(name)
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, []byte("segment data"), s2.Bytes()[:12])

	require.NoError(t, Remove(name))
	assert.False(t, Exists(name))

	// Existing mappings survive removal.
	assert.Equal(t, byte('s'), s1.Bytes()[0])
}

func TestShm_CreateCollision(t *testing.T) {
	name := testName(t)

	s, err := Create(name, 64)
	require.NoError(t, err)
	defer s.Close()

	_, err = Create(name, 64)
	require.Error(t, err)
	assert.True(t, os.IsExist(err))
}

func TestShm_OpenMissing(t *testing.T) {
	_, err := Open("bigmat_test_missing_" + uuid.NewString())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestShm_RemoveMissingIsNil(t *testing.T) {
	assert.NoError(t, Remove("bigmat_test_missing_"+uuid.NewString()))
}
