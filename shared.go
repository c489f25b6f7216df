package bigmat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/bigmat/internal/ipc"
	"github.com/hupe1980/bigmat/internal/names"
	"github.com/hupe1980/bigmat/internal/shm"
)

// SharedMatrix is a matrix backed by named OS shared memory segments,
// discoverable by identity from any process on the host.
type SharedMatrix struct {
	handle
	identity string
	segs     []*shm.Segment // 1 for contiguous, cols for separated
	counter  *ipc.Counter
	locks    *LockTable

	mu        sync.Mutex
	destroyed bool
}

// CreateShared creates a fresh shared-memory matrix with a new
// identity and reference count 1.
//
// The shared bookkeeping is initialized under a transient named mutex
// scoped to this create; the mutex's own resource is removed again
// before CreateShared returns. If creating segment k of n fails,
// segments 0..k-1 are removed before the error is returned, so no
// partially materialized matrix stays discoverable.
func CreateShared(rows, cols int, elemType ElementType, layout Layout, optFns ...Option) (*SharedMatrix, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := createShared(shape{rows: rows, cols: cols, elemType: elemType, layout: layout}, o)

	o.metricsCollector.RecordCreate(time.Since(start), err)
	identity := ""
	if m != nil {
		identity = m.identity
	}
	o.logger.LogCreate(context.Background(), "shared", identity, rows, cols, err)
	return m, err
}

func createShared(sh shape, o options) (*SharedMatrix, error) {
	h, err := newHandle(sh, o)
	if err != nil {
		return nil, err
	}

	identity := names.NewIdentity()

	guard, err := ipc.OpenMutex(names.CreateGuard(identity))
	if err != nil {
		return nil, translateOSError(err)
	}
	if err := guard.Lock(); err != nil {
		_ = guard.Close()
		_ = ipc.RemoveMutex(guard.Name())
		return nil, err
	}
	// The guard only orders this creation step; its resource is gone
	// once create returns.
	releaseGuard := func() {
		_ = guard.Unlock()
		_ = guard.Close()
		_ = ipc.RemoveMutex(guard.Name())
	}

	counter, err := ipc.OpenCounter(names.Counter(identity))
	if err != nil {
		releaseGuard()
		return nil, translateOSError(err)
	}

	segs, err := createSegments(identity, sh)
	if err != nil {
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	if _, err := counter.Incr(); err != nil {
		removeSegments(identity, sh)
		closeSegments(segs)
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, err
	}

	locks, err := openLockTable(identity, sh.cols)
	if err != nil {
		removeSegments(identity, sh)
		closeSegments(segs)
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, err
	}

	releaseGuard()

	return &SharedMatrix{
		handle:   h,
		identity: identity,
		segs:     segs,
		counter:  counter,
		locks:    locks,
	}, nil
}

// ConnectShared attaches to an existing shared-memory matrix. The
// caller must supply the same rows/cols/type/layout the matrix was
// created with; the engine trusts but does not verify them. The
// reference count is incremented by one.
func ConnectShared(identity string, rows, cols int, elemType ElementType, layout Layout, optFns ...Option) (*SharedMatrix, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := connectShared(identity, shape{rows: rows, cols: cols, elemType: elemType, layout: layout}, o)

	o.metricsCollector.RecordConnect(time.Since(start), err)
	o.logger.LogConnect(context.Background(), "shared", identity, err)
	return m, err
}

func connectShared(identity string, sh shape, o options) (*SharedMatrix, error) {
	h, err := newHandle(sh, o)
	if err != nil {
		return nil, err
	}

	counter, err := ipc.OpenExistingCounter(names.Counter(identity))
	if err != nil {
		return nil, translateOSError(err)
	}

	segs, err := openSegments(identity, sh)
	if err != nil {
		_ = counter.Close()
		return nil, translateOSError(err)
	}

	if _, err := counter.Incr(); err != nil {
		closeSegments(segs)
		_ = counter.Close()
		return nil, err
	}

	// The creator and the first connector may race to set the locks
	// up; open-or-create makes that benign.
	locks, err := openLockTable(identity, sh.cols)
	if err != nil {
		// Surrender the reference we just took.
		_, _ = counter.Decr()
		closeSegments(segs)
		_ = counter.Close()
		return nil, err
	}

	return &SharedMatrix{
		handle:   h,
		identity: identity,
		segs:     segs,
		counter:  counter,
		locks:    locks,
	}, nil
}

func createSegments(identity string, sh shape) ([]*shm.Segment, error) {
	if sh.layout == Separated {
		segs := make([]*shm.Segment, 0, sh.cols)
		for i := 0; i < sh.cols; i++ {
			s, err := shm.Create(names.SegmentColumn(identity, i), sh.columnBytes())
			if err != nil {
				for _, created := range segs {
					_ = created.Close()
					_ = shm.Remove(created.Name())
				}
				return nil, err
			}
			segs = append(segs, s)
		}
		return segs, nil
	}

	s, err := shm.Create(names.Segment(identity), sh.totalBytes())
	if err != nil {
		return nil, err
	}
	return []*shm.Segment{s}, nil
}

func openSegments(identity string, sh shape) ([]*shm.Segment, error) {
	if sh.layout == Separated {
		segs := make([]*shm.Segment, 0, sh.cols)
		for i := 0; i < sh.cols; i++ {
			s, err := shm.Open(names.SegmentColumn(identity, i))
			if err != nil {
				closeSegments(segs)
				return nil, err
			}
			segs = append(segs, s)
		}
		return segs, nil
	}

	s, err := shm.Open(names.Segment(identity))
	if err != nil {
		return nil, err
	}
	return []*shm.Segment{s}, nil
}

func closeSegments(segs []*shm.Segment) {
	for _, s := range segs {
		_ = s.Close()
	}
}

func removeSegments(identity string, sh shape) {
	if sh.layout == Separated {
		for i := 0; i < sh.cols; i++ {
			_ = shm.Remove(names.SegmentColumn(identity, i))
		}
		return
	}
	_ = shm.Remove(names.Segment(identity))
}

// Identity returns the string every named resource of this matrix is
// derived from. Any process holding it (plus the matching shape) can
// ConnectShared.
func (m *SharedMatrix) Identity() string { return m.identity }

// Column returns the raw bytes of column i.
func (m *SharedMatrix) Column(i int) []byte {
	if m.layout == Separated {
		return m.segs[i].Bytes()
	}
	cb := m.columnBytes()
	return m.segs[0].Bytes()[int64(i)*cb : int64(i+1)*cb]
}

// Locks returns the matrix's column lock table.
func (m *SharedMatrix) Locks() *LockTable { return m.locks }

// ReadLock acquires a shared hold on the listed columns as one batch.
func (m *SharedMatrix) ReadLock(columns ...int) error {
	return m.lockOp("read_lock", func() error { return m.locks.ReadLock(columns...) }, columns)
}

// ReadWriteLock acquires an exclusive hold on the listed columns as
// one batch.
func (m *SharedMatrix) ReadWriteLock(columns ...int) error {
	return m.lockOp("read_write_lock", func() error { return m.locks.ReadWriteLock(columns...) }, columns)
}

// Unlock releases the hold on the listed columns.
func (m *SharedMatrix) Unlock(columns ...int) error {
	return m.lockOp("unlock", func() error { return m.locks.Unlock(columns...) }, columns)
}

func (m *SharedMatrix) lockOp(op string, fn func() error, columns []int) error {
	start := time.Now()
	err := fn()
	m.metrics.RecordLock(len(columns), time.Since(start))
	m.logger.LogLock(context.Background(), op, len(columns), err)
	return err
}

// Destroy releases this process's mappings and decrements the shared
// reference count. If the count reaches zero, every data segment,
// every column lock, the structural lock and the counter itself are
// removed. Destroy is idempotent on an already destroyed handle.
func (m *SharedMatrix) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return nil
	}
	m.destroyed = true

	start := time.Now()

	// The local mappings go away regardless of the global count.
	closeSegments(m.segs)

	n, err := m.counter.Decr()
	released := err == nil && n == 0
	if released {
		removeSegments(m.identity, m.shape)
		if rmErr := m.locks.removeAll(); rmErr != nil && err == nil {
			err = rmErr
		}
		if rmErr := ipc.RemoveCounter(names.Counter(m.identity)); rmErr != nil && err == nil {
			err = rmErr
		}
	}

	if closeErr := m.locks.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if closeErr := m.counter.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	m.segs = nil

	m.metrics.RecordDestroy(time.Since(start), released, err)
	m.logger.LogDestroy(context.Background(), "shared", m.identity, released, err)
	return err
}
