package bigmat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bigmat"
	"github.com/hupe1980/bigmat/internal/names"
	"github.com/hupe1980/bigmat/internal/shm"
)

func TestCreateShared(t *testing.T) {
	m, err := bigmat.CreateShared(100, 4, bigmat.Float64, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	assert.NotEmpty(t, m.Identity())
	assert.Equal(t, 100, m.Rows())
	assert.Equal(t, 4, m.Cols())

	for i := 0; i < 4; i++ {
		col := m.Column(i)
		require.Len(t, col, 100*8)
		for _, b := range col {
			require.Zero(t, b)
		}
	}
}

func TestSharedConnectSeesWrites(t *testing.T) {
	m, err := bigmat.CreateShared(1000, 5, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	acc, err := bigmat.NewAccessor[int32](m)
	require.NoError(t, err)
	acc.Set(7, 0, 7)

	peer, err := bigmat.ConnectShared(m.Identity(), 1000, 5, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, peer.Destroy()) }()

	peerAcc, err := bigmat.NewAccessor[int32](peer)
	require.NoError(t, err)
	assert.Equal(t, int32(7), peerAcc.Get(7, 0))
	for j := 1; j < 5; j++ {
		assert.Zero(t, peerAcc.Get(7, j))
	}
}

func TestSharedContiguousConnect(t *testing.T) {
	m, err := bigmat.CreateShared(2, 2, bigmat.Float64, bigmat.Contiguous)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	acc, err := bigmat.NewAccessor[float64](m)
	require.NoError(t, err)
	acc.Set(1, 1, 3.5)

	peer, err := bigmat.ConnectShared(m.Identity(), 2, 2, bigmat.Float64, bigmat.Contiguous)
	require.NoError(t, err)
	defer func() { require.NoError(t, peer.Destroy()) }()

	peerAcc, err := bigmat.NewAccessor[float64](peer)
	require.NoError(t, err)
	assert.Equal(t, 3.5, peerAcc.Get(1, 1))
}

func TestSharedConnectUnknownIdentity(t *testing.T) {
	_, err := bigmat.ConnectShared("no-such-identity", 10, 2, bigmat.Int8, bigmat.Separated)
	require.ErrorIs(t, err, bigmat.ErrDoesNotExist)
}

func TestSharedTeardownAtLastReferencer(t *testing.T) {
	m, err := bigmat.CreateShared(10, 2, bigmat.Int8, bigmat.Separated)
	require.NoError(t, err)
	identity := m.Identity()

	peer1, err := bigmat.ConnectShared(identity, 10, 2, bigmat.Int8, bigmat.Separated)
	require.NoError(t, err)
	peer2, err := bigmat.ConnectShared(identity, 10, 2, bigmat.Int8, bigmat.Separated)
	require.NoError(t, err)

	// Destroying referencers while others remain must not remove the
	// named resources, creation order does not matter.
	require.NoError(t, peer1.Destroy())
	assert.True(t, shm.Exists(names.SegmentColumn(identity, 0)))
	assert.True(t, shm.Exists(names.Counter(identity)))

	require.NoError(t, m.Destroy())
	assert.True(t, shm.Exists(names.SegmentColumn(identity, 0)))

	// The last referencer tears everything down.
	require.NoError(t, peer2.Destroy())
	assert.False(t, shm.Exists(names.SegmentColumn(identity, 0)))
	assert.False(t, shm.Exists(names.SegmentColumn(identity, 1)))
	assert.False(t, shm.Exists(names.Counter(identity)))
	assert.False(t, shm.Exists(names.StructuralLock(identity)))
	assert.False(t, shm.Exists(names.ColumnLock(identity, 0)))

	// The matrix is really gone.
	_, err = bigmat.ConnectShared(identity, 10, 2, bigmat.Int8, bigmat.Separated)
	require.ErrorIs(t, err, bigmat.ErrDoesNotExist)
}

func TestSharedNoLeftoversPerTypeAndLayout(t *testing.T) {
	types := []bigmat.ElementType{bigmat.Int8, bigmat.Int16, bigmat.Int32, bigmat.Float64}
	layouts := []bigmat.Layout{bigmat.Contiguous, bigmat.Separated}

	for _, elemType := range types {
		for _, layout := range layouts {
			t.Run(elemType.String()+"/"+layout.String(), func(t *testing.T) {
				m, err := bigmat.CreateShared(10, 2, elemType, layout)
				require.NoError(t, err)
				identity := m.Identity()

				require.NoError(t, m.Destroy())

				assert.False(t, shm.Exists(names.Segment(identity)))
				assert.False(t, shm.Exists(names.SegmentColumn(identity, 0)))
				assert.False(t, shm.Exists(names.SegmentColumn(identity, 1)))
				assert.False(t, shm.Exists(names.Counter(identity)))
				assert.False(t, shm.Exists(names.CreateGuard(identity)))
				assert.False(t, shm.Exists(names.StructuralLock(identity)))
				assert.False(t, shm.Exists(names.ColumnLock(identity, 0)))
				assert.False(t, shm.Exists(names.ColumnLock(identity, 1)))
			})
		}
	}
}

func TestSharedColumnWriteLifecycle(t *testing.T) {
	m, err := bigmat.CreateShared(1000, 5, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	identity := m.Identity()

	acc, err := bigmat.NewAccessor[int32](m)
	require.NoError(t, err)
	col := acc.Col(0)
	for i := range col {
		col[i] = 7
	}
	for i := 0; i < 1000; i++ {
		require.Equal(t, int32(7), acc.Get(i, 0))
	}

	require.NoError(t, m.Destroy())

	_, err = bigmat.ConnectShared(identity, 1000, 5, bigmat.Int32, bigmat.Separated)
	require.ErrorIs(t, err, bigmat.ErrDoesNotExist)
}

func TestSharedDestroyIdempotent(t *testing.T) {
	m, err := bigmat.CreateShared(10, 2, bigmat.Int16, bigmat.Contiguous)
	require.NoError(t, err)

	require.NoError(t, m.Destroy())
	require.NoError(t, m.Destroy())
}
