package bigmat

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordCreate is called after each create operation.
	// duration is the total time taken, err is nil if successful.
	RecordCreate(duration time.Duration, err error)

	// RecordConnect is called after each connect operation.
	RecordConnect(duration time.Duration, err error)

	// RecordDestroy is called after each destroy operation.
	// released indicates the shared resources were torn down.
	RecordDestroy(duration time.Duration, released bool, err error)

	// RecordLock is called after each batched lock/unlock operation.
	// columns is the number of column locks touched.
	RecordLock(columns int, duration time.Duration)

	// RecordSnapshot is called after each snapshot save/load.
	// bytes is the raw (uncompressed) byte count transferred.
	RecordSnapshot(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(time.Duration, error)          {}
func (NoopMetricsCollector) RecordConnect(time.Duration, error)         {}
func (NoopMetricsCollector) RecordDestroy(time.Duration, bool, error)   {}
func (NoopMetricsCollector) RecordLock(int, time.Duration)              {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CreateCount       atomic.Int64
	CreateErrors      atomic.Int64
	CreateTotalNanos  atomic.Int64
	ConnectCount      atomic.Int64
	ConnectErrors     atomic.Int64
	DestroyCount      atomic.Int64
	DestroyErrors     atomic.Int64
	ReleaseCount      atomic.Int64
	LockCount         atomic.Int64
	LockColumns       atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
	SnapshotRawBytes  atomic.Int64
	SnapshotTotalNano atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(duration time.Duration, err error) {
	b.CreateCount.Add(1)
	b.CreateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordConnect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordConnect(duration time.Duration, err error) {
	b.ConnectCount.Add(1)
	if err != nil {
		b.ConnectErrors.Add(1)
	}
}

// RecordDestroy implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDestroy(duration time.Duration, released bool, err error) {
	b.DestroyCount.Add(1)
	if released {
		b.ReleaseCount.Add(1)
	}
	if err != nil {
		b.DestroyErrors.Add(1)
	}
}

// RecordLock implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLock(columns int, duration time.Duration) {
	b.LockCount.Add(1)
	b.LockColumns.Add(int64(columns))
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	b.SnapshotRawBytes.Add(bytes)
	b.SnapshotTotalNano.Add(duration.Nanoseconds())
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CreateCount      int64
	CreateErrors     int64
	CreateAvgNanos   int64
	ConnectCount     int64
	ConnectErrors    int64
	DestroyCount     int64
	DestroyErrors    int64
	ReleaseCount     int64
	LockCount        int64
	LockColumns      int64
	SnapshotCount    int64
	SnapshotErrors   int64
	SnapshotRawBytes int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CreateCount:      b.CreateCount.Load(),
		CreateErrors:     b.CreateErrors.Load(),
		CreateAvgNanos:   b.getAvgCreateNanos(),
		ConnectCount:     b.ConnectCount.Load(),
		ConnectErrors:    b.ConnectErrors.Load(),
		DestroyCount:     b.DestroyCount.Load(),
		DestroyErrors:    b.DestroyErrors.Load(),
		ReleaseCount:     b.ReleaseCount.Load(),
		LockCount:        b.LockCount.Load(),
		LockColumns:      b.LockColumns.Load(),
		SnapshotCount:    b.SnapshotCount.Load(),
		SnapshotErrors:   b.SnapshotErrors.Load(),
		SnapshotRawBytes: b.SnapshotRawBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgCreateNanos() int64 {
	count := b.CreateCount.Load()
	if count == 0 {
		return 0
	}
	return b.CreateTotalNanos.Load() / count
}
