//go:build unix

package ipc

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/bigmat/internal/shm"
)

// Mutex is a named inter-process mutual exclusion lock.
type Mutex struct {
	name string
	f    *os.File
}

// OpenMutex opens the named mutex, creating its backing file if it
// does not exist yet. Open-or-create is idempotent: every opener ends
// up locking the same file.
func OpenMutex(name string) (*Mutex, error) {
	f, err := os.OpenFile(shm.Path(name), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &Mutex{name: name, f: f}, nil
}

// Lock acquires the mutex, blocking until it is available.
func (m *Mutex) Lock() error {
	return unix.Flock(int(m.f.Fd()), unix.LOCK_EX)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() error {
	return unix.Flock(int(m.f.Fd()), unix.LOCK_UN)
}

// Name returns the mutex name.
func (m *Mutex) Name() string { return m.name }

// Close releases this process's handle. Any lock held through it is
// dropped by the OS.
func (m *Mutex) Close() error {
	return m.f.Close()
}

// RemoveMutex unlinks the named mutex's backing file.
func RemoveMutex(name string) error {
	err := os.Remove(shm.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
