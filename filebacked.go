package bigmat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/bigmat/internal/fs"
	"github.com/hupe1980/bigmat/internal/ipc"
	"github.com/hupe1980/bigmat/internal/mmap"
	"github.com/hupe1980/bigmat/internal/names"
)

// FileBackedMatrix is a matrix backed by memory-mapped regular files
// under a caller-given directory. It shares the bookkeeping shape of
// SharedMatrix (named counter, named locks) and adds on-disk
// persistence control: with WithPreserve(true) the data files survive
// last-referencer teardown for a later create-independent connect.
type FileBackedMatrix struct {
	handle
	identity string
	fileName string
	dir      string
	preserve bool
	maps     []*mmap.Mapping // 1 for contiguous, cols for separated
	counter  *ipc.Counter
	locks    *LockTable
	fsys     fs.FileSystem

	mu        sync.Mutex
	destroyed bool
}

// CreateFileBacked creates a fresh file-backed matrix. Each backing
// file is extended to its exact required byte length before it is
// mapped. If file k of n cannot be created, files 0..k-1 are deleted
// before the error is returned.
func CreateFileBacked(fileName, dir string, rows, cols int, elemType ElementType, layout Layout, optFns ...Option) (*FileBackedMatrix, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := createFileBacked(fileName, dir, shape{rows: rows, cols: cols, elemType: elemType, layout: layout}, o)

	o.metricsCollector.RecordCreate(time.Since(start), err)
	identity := ""
	if m != nil {
		identity = m.identity
	}
	o.logger.LogCreate(context.Background(), "filebacked", identity, rows, cols, err)
	return m, err
}

func createFileBacked(fileName, dir string, sh shape, o options) (*FileBackedMatrix, error) {
	h, err := newHandle(sh, o)
	if err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, fmt.Errorf("%w: empty file name", ErrInvalidShape)
	}

	identity := names.NewFileIdentity(fileName)

	guard, err := ipc.OpenMutex(names.CreateGuard(identity))
	if err != nil {
		return nil, translateOSError(err)
	}
	if err := guard.Lock(); err != nil {
		_ = guard.Close()
		_ = ipc.RemoveMutex(guard.Name())
		return nil, err
	}
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

	maps, err := createDataFiles(o.fsys, fileName, dir, sh)
	if err != nil {
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	if _, err := counter.Incr(); err != nil {
		closeMappings(maps)
		removeDataFiles(o.fsys, fileName, dir, sh)
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, err
	}

	locks, err := openLockTable(identity, sh.cols)
	if err != nil {
		closeMappings(maps)
		removeDataFiles(o.fsys, fileName, dir, sh)
		_ = counter.Close()
		_ = ipc.RemoveCounter(names.Counter(identity))
		releaseGuard()
		return nil, err
	}

	releaseGuard()

	return &FileBackedMatrix{
		handle:   h,
		identity: identity,
		fileName: fileName,
		dir:      dir,
		preserve: o.preserve,
		maps:     maps,
		counter:  counter,
		locks:    locks,
		fsys:     o.fsys,
	}, nil
}

// ConnectFileBacked attaches to a file-backed matrix by identity. The
// caller supplies the identity, file name, directory and shape it
// remembered from create time; the engine trusts but does not verify
// them against the files. Unlike the shared-memory variant the
// bookkeeping is opened-or-created, so preserved files can be
// reattached after their bookkeeping was torn down.
func ConnectFileBacked(identity, fileName, dir string, rows, cols int, elemType ElementType, layout Layout, optFns ...Option) (*FileBackedMatrix, error) {
	o := applyOptions(optFns)
	start := time.Now()

	m, err := connectFileBacked(identity, fileName, dir, shape{rows: rows, cols: cols, elemType: elemType, layout: layout}, o)

	o.metricsCollector.RecordConnect(time.Since(start), err)
	o.logger.LogConnect(context.Background(), "filebacked", identity, err)
	return m, err
}

func connectFileBacked(identity, fileName, dir string, sh shape, o options) (*FileBackedMatrix, error) {
	h, err := newHandle(sh, o)
	if err != nil {
		return nil, err
	}

	maps, err := openDataFiles(fileName, dir, sh)
	if err != nil {
		return nil, translateOSError(err)
	}

	counter, err := ipc.OpenCounter(names.Counter(identity))
	if err != nil {
		closeMappings(maps)
		return nil, translateOSError(err)
	}

	if _, err := counter.Incr(); err != nil {
		closeMappings(maps)
		_ = counter.Close()
		return nil, err
	}

	locks, err := openLockTable(identity, sh.cols)
	if err != nil {
		_, _ = counter.Decr()
		closeMappings(maps)
		_ = counter.Close()
		return nil, err
	}

	return &FileBackedMatrix{
		handle:   h,
		identity: identity,
		fileName: fileName,
		dir:      dir,
		preserve: o.preserve,
		maps:     maps,
		counter:  counter,
		locks:    locks,
		fsys:     o.fsys,
	}, nil
}

func dataFilePaths(fileName, dir string, sh shape) []string {
	if sh.layout == Separated {
		paths := make([]string, sh.cols)
		for i := range paths {
			paths[i] = filepath.Join(dir, names.DataFileColumn(fileName, i))
		}
		return paths
	}
	return []string{filepath.Join(dir, names.DataFile(fileName))}
}

func dataFileSize(sh shape) int64 {
	if sh.layout == Separated {
		return sh.columnBytes()
	}
	return sh.totalBytes()
}

func createDataFiles(fsys fs.FileSystem, fileName, dir string, sh shape) ([]*mmap.Mapping, error) {
	paths := dataFilePaths(fileName, dir, sh)
	size := dataFileSize(sh)

	maps := make([]*mmap.Mapping, 0, len(paths))
	for _, path := range paths {
		m, err := createDataFile(fsys, path, size)
		if err != nil {
			// Delete every file created so far; nothing of this
			// matrix may stay discoverable.
			closeMappings(maps)
			for i := range maps {
				_ = fsys.Remove(paths[i])
			}
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}

// createDataFile creates path, extends it to exactly size bytes and
// maps it. Creation and extension go through the fs abstraction so
// tests can inject failures; the mapping itself is always real.
func createDataFile(fsys fs.FileSystem, path string, size int64) (*mmap.Mapping, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = fsys.Remove(path)
		return nil, err
	}
	if err := fsys.Truncate(path, size); err != nil {
		_ = fsys.Remove(path)
		return nil, err
	}

	m, err := mmap.Open(path)
	if err != nil {
		_ = fsys.Remove(path)
		return nil, err
	}
	return m, nil
}

func openDataFiles(fileName, dir string, sh shape) ([]*mmap.Mapping, error) {
	paths := dataFilePaths(fileName, dir, sh)

	maps := make([]*mmap.Mapping, 0, len(paths))
	for _, path := range paths {
		m, err := mmap.Open(path)
		if err != nil {
			closeMappings(maps)
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}

func closeMappings(maps []*mmap.Mapping) {
	for _, m := range maps {
		_ = m.Close()
	}
}

func removeDataFiles(fsys fs.FileSystem, fileName, dir string, sh shape) {
	for _, path := range dataFilePaths(fileName, dir, sh) {
		_ = fsys.Remove(path)
	}
}

// Identity returns the identity string of this matrix. The caller is
// responsible for remembering it, together with the file name,
// directory and shape, to reattach later.
func (m *FileBackedMatrix) Identity() string { return m.identity }

// Preserve reports whether the data files survive last-referencer
// teardown.
func (m *FileBackedMatrix) Preserve() bool { return m.preserve }

// Column returns the raw bytes of column i.
func (m *FileBackedMatrix) Column(i int) []byte {
	if m.layout == Separated {
		return m.maps[i].Bytes()
	}
	cb := m.columnBytes()
	return m.maps[0].Bytes()[int64(i)*cb : int64(i+1)*cb]
}

// Locks returns the matrix's column lock table.
func (m *FileBackedMatrix) Locks() *LockTable { return m.locks }

// ReadLock acquires a shared hold on the listed columns as one batch.
func (m *FileBackedMatrix) ReadLock(columns ...int) error {
	return m.lockOp("read_lock", func() error { return m.locks.ReadLock(columns...) }, columns)
}

// ReadWriteLock acquires an exclusive hold on the listed columns as
// one batch.
func (m *FileBackedMatrix) ReadWriteLock(columns ...int) error {
	return m.lockOp("read_write_lock", func() error { return m.locks.ReadWriteLock(columns...) }, columns)
}

// Unlock releases the hold on the listed columns.
func (m *FileBackedMatrix) Unlock(columns ...int) error {
	return m.lockOp("unlock", func() error { return m.locks.Unlock(columns...) }, columns)
}

func (m *FileBackedMatrix) lockOp(op string, fn func() error, columns []int) error {
	start := time.Now()
	err := fn()
	m.metrics.RecordLock(len(columns), time.Since(start))
	m.logger.LogLock(context.Background(), op, len(columns), err)
	return err
}

// Sync flushes dirty pages of every mapping back to the data files.
func (m *FileBackedMatrix) Sync() error {
	var firstErr error
	for _, mp := range m.maps {
		if err := mp.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Destroy releases this process's mappings and decrements the shared
// reference count. If the count reaches zero, the column locks, the
// structural lock and the counter are removed, and the data files are
// deleted from disk unless the preserve flag is set. Destroy is
// idempotent on an already destroyed handle.
func (m *FileBackedMatrix) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destroyed {
		return nil
	}
	m.destroyed = true

	start := time.Now()

	// Flush before unmapping so a preserved file holds what was
	// written through this handle.
	err := m.Sync()
	closeMappings(m.maps)

	n, decErr := m.counter.Decr()
	if decErr != nil && err == nil {
		err = decErr
	}
	released := decErr == nil && n == 0
	if released {
		if rmErr := m.locks.removeAll(); rmErr != nil && err == nil {
			err = rmErr
		}
		if rmErr := ipc.RemoveCounter(names.Counter(m.identity)); rmErr != nil && err == nil {
			err = rmErr
		}
		if !m.preserve {
			removeDataFiles(m.fsys, m.fileName, m.dir, m.shape)
		}
	}

	if closeErr := m.locks.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if closeErr := m.counter.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	m.maps = nil

	m.metrics.RecordDestroy(time.Since(start), released, err)
	m.logger.LogDestroy(context.Background(), "filebacked", m.identity, released, err)
	return err
}
