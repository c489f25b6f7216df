package bigmat

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/bigmat/internal/mem"
	"github.com/hupe1980/bigmat/resource"
)

// LocalMatrix is a heap-backed matrix private to this process. It has
// no identity, no reference counting and no inter-process locking.
type LocalMatrix struct {
	handle
	base     []byte   // contiguous layout only
	colBufs  [][]byte // one entry per column, views for contiguous
	ctrl     *resource.Controller
	reserved int64
}

// CreateLocal allocates a process-local matrix.
//
// Allocation is checked against the controller budget (WithController)
// when one is configured; exceeding it fails with ErrAllocation. In
// the separated layout a failure on column k releases the k already
// reserved columns before returning, so nothing leaks.
func CreateLocal(rows, cols int, elemType ElementType, layout Layout, optFns ...Option) (*LocalMatrix, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := createLocal(shape{rows: rows, cols: cols, elemType: elemType, layout: layout}, o)

	o.metricsCollector.RecordCreate(time.Since(start), err)
	o.logger.LogCreate(context.Background(), "local", "", rows, cols, err)
	return m, err
}

func createLocal(sh shape, o options) (*LocalMatrix, error) {
	h, err := newHandle(sh, o)
	if err != nil {
		return nil, err
	}

	m := &LocalMatrix{handle: h, ctrl: o.controller}

	switch sh.layout {
	case Contiguous:
		total := sh.totalBytes()
		if !m.ctrl.TryAcquireMemory(total) {
			return nil, fmt.Errorf("%w: %d bytes exceed memory budget", ErrAllocation, total)
		}
		m.reserved = total
		m.base = mem.AllocAligned(int(total))
		m.colBufs = make([][]byte, sh.cols)
		cb := sh.columnBytes()
		for i := 0; i < sh.cols; i++ {
			m.colBufs[i] = m.base[int64(i)*cb : int64(i+1)*cb]
		}

	case Separated:
		cb := sh.columnBytes()
		m.colBufs = make([][]byte, 0, sh.cols)
		for i := 0; i < sh.cols; i++ {
			if !m.ctrl.TryAcquireMemory(cb) {
				// Free every column allocated so far.
				m.ctrl.ReleaseMemory(m.reserved)
				m.reserved = 0
				m.colBufs = nil
				return nil, fmt.Errorf("%w: column %d exceeds memory budget", ErrAllocation, i)
			}
			m.reserved += cb
			m.colBufs = append(m.colBufs, mem.AllocAligned(int(cb)))
		}
	}

	return m, nil
}

// Column returns the raw bytes of column i.
func (m *LocalMatrix) Column(i int) []byte {
	return m.colBufs[i]
}

// Base returns the single combined buffer of a contiguous matrix, or
// nil for the separated layout.
func (m *LocalMatrix) Base() []byte {
	return m.base
}

// Destroy frees the matrix and resets the handle to the empty state.
// It is idempotent: destroying an already empty handle is a no-op.
func (m *LocalMatrix) Destroy() error {
	start := time.Now()

	if m.colBufs == nil && m.base == nil {
		return nil
	}

	m.ctrl.ReleaseMemory(m.reserved)
	m.reserved = 0
	m.base = nil
	m.colBufs = nil
	m.rows = 0
	m.cols = 0

	m.metrics.RecordDestroy(time.Since(start), true, nil)
	m.logger.LogDestroy(context.Background(), "local", "", true, nil)
	return nil
}
