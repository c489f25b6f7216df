package bigmat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bigmat/internal/names"
	"github.com/hupe1980/bigmat/internal/shm"
)

func TestCreateSegmentsRollsBackOnCollision(t *testing.T) {
	identity := names.NewIdentity()
	sh := shape{rows: 10, cols: 3, elemType: Int32, layout: Separated}

	// Occupy the name of column 1 so creating segment 1 of 3 fails.
	blocker, err := shm.Create(names.SegmentColumn(identity, 1), 64)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = blocker.Close()
		_ = shm.Remove(blocker.Name())
	})

	_, err = createSegments(identity, sh)
	require.Error(t, err)

	// Column 0 was created before the collision and must be gone
	// again; columns past the failure were never created.
	require.False(t, shm.Exists(names.SegmentColumn(identity, 0)))
	require.False(t, shm.Exists(names.SegmentColumn(identity, 2)))
	require.True(t, shm.Exists(names.SegmentColumn(identity, 1)))
}

func TestConnectSharedMissingCounter(t *testing.T) {
	// Segments may linger while the counter is already gone (torn
	// down mid-destroy). Connect keys existence off the counter.
	identity := names.NewIdentity()
	sh := shape{rows: 10, cols: 1, elemType: Int8, layout: Contiguous}

	seg, err := shm.Create(names.Segment(identity), sh.totalBytes())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = seg.Close()
		_ = shm.Remove(seg.Name())
	})

	_, err = connectShared(identity, sh, applyOptions(nil))
	require.ErrorIs(t, err, ErrDoesNotExist)
}
