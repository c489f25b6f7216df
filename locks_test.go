package bigmat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bigmat"
)

// Advisory locks bind to the open file description, so two handles on
// the same identity exclude each other exactly like two processes
// would.
func sharedPair(t *testing.T) (*bigmat.SharedMatrix, *bigmat.SharedMatrix) {
	t.Helper()

	a, err := bigmat.CreateShared(100, 3, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Destroy()) })

	b, err := bigmat.ConnectShared(a.Identity(), 100, 3, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, b.Destroy()) })

	return a, b
}

func TestWriteLockExcludesWriter(t *testing.T) {
	a, b := sharedPair(t)

	require.NoError(t, a.ReadWriteLock(0))
	assert.True(t, a.Locks().Held(0))

	acquired := make(chan struct{})
	go func() {
		if err := b.ReadWriteLock(0); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired a held write lock")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, a.Unlock(0))

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second writer never acquired the released lock")
	}

	require.NoError(t, b.Unlock(0))
}

func TestWriteLockExcludesReader(t *testing.T) {
	a, b := sharedPair(t)

	require.NoError(t, a.ReadWriteLock(1))

	acquired := make(chan struct{})
	go func() {
		if err := b.ReadLock(1); err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired a write-held lock")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, a.Unlock(1))

	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("reader never acquired the released lock")
	}

	require.NoError(t, b.Unlock(1))
}

func TestReadLocksShared(t *testing.T) {
	a, b := sharedPair(t)

	require.NoError(t, a.ReadLock(0, 1))
	require.NoError(t, b.ReadLock(0, 1))

	assert.True(t, a.Locks().Held(0))
	assert.True(t, b.Locks().Held(1))

	require.NoError(t, a.Unlock(0, 1))
	require.NoError(t, b.Unlock(0, 1))
	assert.False(t, a.Locks().Held(0))
}

func TestLockBatchOrder(t *testing.T) {
	a, _ := sharedPair(t)

	// A batch acquires in the given order and releases cleanly.
	require.NoError(t, a.ReadWriteLock(2, 0, 1))
	for i := 0; i < 3; i++ {
		assert.True(t, a.Locks().Held(i))
	}
	require.NoError(t, a.Unlock(2, 0, 1))
	for i := 0; i < 3; i++ {
		assert.False(t, a.Locks().Held(i))
	}
}

func TestLockInvalidColumn(t *testing.T) {
	a, _ := sharedPair(t)

	require.ErrorIs(t, a.ReadLock(3), bigmat.ErrInvalidShape)
	require.ErrorIs(t, a.ReadWriteLock(-1), bigmat.ErrInvalidShape)
	require.ErrorIs(t, a.Unlock(99), bigmat.ErrInvalidShape)
}
