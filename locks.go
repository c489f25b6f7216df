package bigmat

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/bigmat/internal/ipc"
	"github.com/hupe1980/bigmat/internal/names"
)

// LockTable holds one named reader/writer lock per column plus the
// structural lock that makes batched acquisition atomic with respect
// to other batch callers. The structural lock does not protect
// element data; callers must hold the relevant column locks before
// mutating that column's buffer.
type LockTable struct {
	identity   string
	structural *ipc.Mutex
	cols       []*ipc.RWLock

	mu        sync.Mutex
	readHeld  *bitset.BitSet
	writeHeld *bitset.BitSet
}

// openLockTable opens (or creates) the structural lock and one lock
// per column for the given identity. Open-or-create is idempotent:
// the creator and the first connector may race to set these up.
func openLockTable(identity string, ncols int) (*LockTable, error) {
	structural, err := ipc.OpenMutex(names.StructuralLock(identity))
	if err != nil {
		return nil, err
	}

	cols := make([]*ipc.RWLock, 0, ncols)
	for i := 0; i < ncols; i++ {
		l, err := ipc.OpenRWLock(names.ColumnLock(identity, i))
		if err != nil {
			for _, opened := range cols {
				_ = opened.Close()
			}
			_ = structural.Close()
			return nil, err
		}
		cols = append(cols, l)
	}

	return &LockTable{
		identity:   identity,
		structural: structural,
		cols:       cols,
		readHeld:   bitset.New(uint(ncols)),
		writeHeld:  bitset.New(uint(ncols)),
	}, nil
}

func (t *LockTable) checkColumns(columns []int) error {
	for _, c := range columns {
		if c < 0 || c >= len(t.cols) {
			return fmt.Errorf("%w: column %d of %d", ErrInvalidShape, c, len(t.cols))
		}
	}
	return nil
}

// ReadLock acquires a shared hold on each listed column, in the given
// order, as one atomic batch. It blocks until every lock is acquired.
func (t *LockTable) ReadLock(columns ...int) error {
	if err := t.checkColumns(columns); err != nil {
		return err
	}
	if err := t.structural.Lock(); err != nil {
		return err
	}
	for _, c := range columns {
		if err := t.cols[c].RLock(); err != nil {
			_ = t.structural.Unlock()
			return err
		}
		t.mu.Lock()
		t.readHeld.Set(uint(c))
		t.mu.Unlock()
	}
	return t.structural.Unlock()
}

// ReadWriteLock acquires an exclusive hold on each listed column, in
// the given order, as one atomic batch. It blocks until every lock is
// acquired.
func (t *LockTable) ReadWriteLock(columns ...int) error {
	if err := t.checkColumns(columns); err != nil {
		return err
	}
	if err := t.structural.Lock(); err != nil {
		return err
	}
	for _, c := range columns {
		if err := t.cols[c].Lock(); err != nil {
			_ = t.structural.Unlock()
			return err
		}
		t.mu.Lock()
		t.writeHeld.Set(uint(c))
		t.mu.Unlock()
	}
	return t.structural.Unlock()
}

// Unlock releases the hold on each listed column in the given order.
// It deliberately skips the structural lock: a releaser must make
// progress while another caller blocks mid-batch, otherwise the
// blocked batch could never be satisfied.
func (t *LockTable) Unlock(columns ...int) error {
	if err := t.checkColumns(columns); err != nil {
		return err
	}
	for _, c := range columns {
		if err := t.cols[c].Unlock(); err != nil {
			return err
		}
		t.mu.Lock()
		t.readHeld.Clear(uint(c))
		t.writeHeld.Clear(uint(c))
		t.mu.Unlock()
	}
	return nil
}

// Held reports whether this handle currently holds column c (shared
// or exclusive). It reflects only holds taken through this handle,
// not other processes'.
func (t *LockTable) Held(c int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.readHeld.Test(uint(c)) || t.writeHeld.Test(uint(c))
}

// close releases this process's lock handles without removing the
// named resources.
func (t *LockTable) close() error {
	var firstErr error
	for _, l := range t.cols {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := t.structural.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// removeAll unlinks every named lock. Called by the last referencer
// during teardown.
func (t *LockTable) removeAll() error {
	var firstErr error
	for i := range t.cols {
		if err := ipc.RemoveRWLock(names.ColumnLock(t.identity, i)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := ipc.RemoveMutex(names.StructuralLock(t.identity)); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
