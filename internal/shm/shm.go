package shm

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/bigmat/internal/mmap"
)

var (
	dirOnce sync.Once
	dir     string
)

// Dir returns the directory that holds named shared resources.
// On Linux this is the tmpfs at /dev/shm; elsewhere the fallback is a
// subdirectory of the system temp dir, which is still shared between
// processes, just not guaranteed to be memory-backed.
func Dir() string {
	dirOnce.Do(func() {
		if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
			dir = "/dev/shm"
			return
		}
		dir = filepath.Join(os.TempDir(), "bigmat-shm")
		_ = os.MkdirAll(dir, 0o700)
	})
	return dir
}

// Path returns the filesystem path of the named resource.
func Path(name string) string {
	return filepath.Join(Dir(), name)
}

// Segment is a process-local mapping of a named shared memory segment.
type Segment struct {
	name string
	m    *mmap.Mapping
}

// Create creates a fresh segment of exactly size bytes. It fails if a
// segment of that name already exists.
func Create(name string, size int64) (*Segment, error) {
	m, err := mmap.Create(Path(name), size)
	if err != nil {
		return nil, err
	}
	return &Segment{name: name, m: m}, nil
}

// Open maps the existing segment with the given name. It fails with
// an os.ErrNotExist-wrapping error if the segment is absent.
func Open(name string) (*Segment, error) {
	m, err := mmap.Open(Path(name))
	if err != nil {
		return nil, err
	}
	return &Segment{name: name, m: m}, nil
}

// Remove unlinks the named segment. Existing mappings stay valid until
// they are closed.
func Remove(name string) error {
	err := os.Remove(Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists reports whether a segment of the given name is discoverable.
func Exists(name string) bool {
	_, err := os.Stat(Path(name))
	return err == nil
}

// Name returns the segment's name.
func (s *Segment) Name() string { return s.name }

// Bytes returns the mapped bytes. The slice is valid until Close.
func (s *Segment) Bytes() []byte { return s.m.Bytes() }

// Size returns the segment size in bytes.
func (s *Segment) Size() int64 { return s.m.Size() }

// Close releases this process's mapping. It is idempotent and does
// not remove the segment itself.
func (s *Segment) Close() error { return s.m.Close() }
