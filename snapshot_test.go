package bigmat_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/bigmat"
	"github.com/hupe1980/bigmat/resource"
)

func fillSequential(t *testing.T, m bigmat.Matrix) *bigmat.Accessor[int32] {
	t.Helper()

	acc, err := bigmat.NewAccessor[int32](m)
	require.NoError(t, err)
	for j := 0; j < m.Cols(); j++ {
		for i := 0; i < m.Rows(); i++ {
			acc.Set(i, j, int32(j*m.Rows()+i))
		}
	}
	return acc
}

func TestSnapshotRoundTrip(t *testing.T) {
	compressions := []struct {
		name string
		c    bigmat.CompressionType
	}{
		{"none", bigmat.CompressionNone},
		{"lz4", bigmat.CompressionLZ4},
		{"zstd", bigmat.CompressionZSTD},
	}

	for _, tt := range compressions {
		t.Run(tt.name, func(t *testing.T) {
			src, err := bigmat.CreateLocal(50, 4, bigmat.Int32, bigmat.Separated)
			require.NoError(t, err)
			defer func() { require.NoError(t, src.Destroy()) }()

			fillSequential(t, src)

			var buf bytes.Buffer
			require.NoError(t, bigmat.Save(context.Background(), &buf, src,
				bigmat.WithCompression(tt.c)))

			dst, err := bigmat.CreateLocal(50, 4, bigmat.Int32, bigmat.Separated)
			require.NoError(t, err)
			defer func() { require.NoError(t, dst.Destroy()) }()

			require.NoError(t, bigmat.Load(context.Background(), &buf, dst,
				bigmat.WithCompression(tt.c)))

			dstAcc, err := bigmat.NewAccessor[int32](dst)
			require.NoError(t, err)
			for j := 0; j < 4; j++ {
				for i := 0; i < 50; i++ {
					require.Equal(t, int32(j*50+i), dstAcc.Get(i, j))
				}
			}
		})
	}
}

func TestSnapshotUncompressedSize(t *testing.T) {
	m, err := bigmat.CreateLocal(10, 3, bigmat.Float64, bigmat.Contiguous)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	var buf bytes.Buffer
	require.NoError(t, bigmat.Save(context.Background(), &buf, m))

	// Headerless: the stream is exactly the raw column bytes.
	assert.Equal(t, 10*3*8, buf.Len())
}

func TestSnapshotAcrossLayouts(t *testing.T) {
	// The stream carries columns in order, so a separated save loads
	// into a contiguous matrix of the same shape.
	src, err := bigmat.CreateLocal(20, 2, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, src.Destroy()) }()

	fillSequential(t, src)

	var buf bytes.Buffer
	require.NoError(t, bigmat.Save(context.Background(), &buf, src))

	dst, err := bigmat.CreateLocal(20, 2, bigmat.Int32, bigmat.Contiguous)
	require.NoError(t, err)
	defer func() { require.NoError(t, dst.Destroy()) }()

	require.NoError(t, bigmat.Load(context.Background(), &buf, dst))

	dstAcc, err := bigmat.NewAccessor[int32](dst)
	require.NoError(t, err)
	assert.Equal(t, int32(20+3), dstAcc.Get(3, 1))
}

func TestSnapshotLoadShortStream(t *testing.T) {
	m, err := bigmat.CreateLocal(10, 2, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	buf := bytes.NewBuffer(make([]byte, 10)) // far too short
	require.Error(t, bigmat.Load(context.Background(), buf, m))
}

func TestSnapshotCanceled(t *testing.T) {
	m, err := bigmat.CreateLocal(10, 2, bigmat.Int32, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.ErrorIs(t, bigmat.Save(ctx, &buf, m), context.Canceled)
	require.ErrorIs(t, bigmat.Load(ctx, &buf, m), context.Canceled)
}

func TestSnapshotThrottled(t *testing.T) {
	m, err := bigmat.CreateLocal(10, 2, bigmat.Int8, bigmat.Separated)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	// A generous rate just exercises the throttled writer path.
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	require.NoError(t, bigmat.Save(context.Background(), &buf, m,
		bigmat.WithSnapshotController(rc)))
	assert.Equal(t, 10*2, buf.Len())
}

func TestSnapshotMetrics(t *testing.T) {
	m, err := bigmat.CreateLocal(10, 2, bigmat.Int8, bigmat.Contiguous)
	require.NoError(t, err)
	defer func() { require.NoError(t, m.Destroy()) }()

	mc := &bigmat.BasicMetricsCollector{}

	var buf bytes.Buffer
	require.NoError(t, bigmat.Save(context.Background(), &buf, m,
		bigmat.WithSnapshotMetricsCollector(mc)))

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.SnapshotCount)
	assert.Equal(t, int64(20), stats.SnapshotRawBytes)
}
