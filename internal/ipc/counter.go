//go:build unix

package ipc

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/bigmat/internal/shm"
)

const counterSize = 8

// Counter is a named integer shared between processes. Mutation is a
// read-modify-write cycle on an 8-byte mapped file under the
// counter's own file lock.
type Counter struct {
	name string
	f    *os.File
	data []byte
}

// OpenCounter opens the named counter, creating it with value 0 if it
// does not exist yet.
func OpenCounter(name string) (*Counter, error) {
	return openCounter(name, os.O_RDWR|os.O_CREATE)
}

// OpenExistingCounter opens the named counter, failing with an
// os.ErrNotExist-wrapping error if it is absent.
func OpenExistingCounter(name string) (*Counter, error) {
	return openCounter(name, os.O_RDWR)
}

func openCounter(name string, flag int) (*Counter, error) {
	f, err := os.OpenFile(shm.Path(name), flag, 0o600)
	if err != nil {
		return nil, err
	}

	// A freshly created file is empty; extend it to the counter width
	// under the lock so racing openers cannot observe a short file.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	fi, err := f.Stat()
	if err == nil && fi.Size() < counterSize {
		err = f.Truncate(counterSize)
	}
	if unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN); unlockErr != nil && err == nil {
		err = unlockErr
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	data, err := unix.Mmap(int(f.Fd()), 0, counterSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Counter{name: name, f: f, data: data}, nil
}

// Incr atomically increments the counter and returns the new value.
func (c *Counter) Incr() (int64, error) {
	return c.add(1)
}

// Decr atomically decrements the counter and returns the new value.
func (c *Counter) Decr() (int64, error) {
	return c.add(-1)
}

func (c *Counter) add(delta int64) (int64, error) {
	if err := unix.Flock(int(c.f.Fd()), unix.LOCK_EX); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(c.data)) + delta
	binary.LittleEndian.PutUint64(c.data, uint64(v))
	if err := unix.Flock(int(c.f.Fd()), unix.LOCK_UN); err != nil {
		return 0, err
	}
	return v, nil
}

// Get returns the current value.
func (c *Counter) Get() (int64, error) {
	if err := unix.Flock(int(c.f.Fd()), unix.LOCK_SH); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(c.data))
	if err := unix.Flock(int(c.f.Fd()), unix.LOCK_UN); err != nil {
		return 0, err
	}
	return v, nil
}

// Name returns the counter name.
func (c *Counter) Name() string { return c.name }

// Close releases this process's mapping and handle.
func (c *Counter) Close() error {
	err := unix.Munmap(c.data)
	if closeErr := c.f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// RemoveCounter unlinks the named counter's backing file.
func RemoveCounter(name string) error {
	err := os.Remove(shm.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
