//go:build unix

package ipc

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/hupe1980/bigmat/internal/shm"
)

// RWLock is a named inter-process reader/writer lock. Multiple
// concurrent read holders are permitted; a write hold is exclusive
// against every other holder.
type RWLock struct {
	name string
	f    *os.File
}

// OpenRWLock opens the named reader/writer lock, creating its backing
// file if it does not exist yet.
func OpenRWLock(name string) (*RWLock, error) {
	f, err := os.OpenFile(shm.Path(name), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	return &RWLock{name: name, f: f}, nil
}

// RLock acquires a shared hold, blocking while a writer holds the lock.
func (l *RWLock) RLock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_SH)
}

// Lock acquires an exclusive hold, blocking while any holder exists.
func (l *RWLock) Lock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
}

// Unlock releases whichever hold this handle has.
func (l *RWLock) Unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}

// Name returns the lock name.
func (l *RWLock) Name() string { return l.name }

// Close releases this process's handle.
func (l *RWLock) Close() error {
	return l.f.Close()
}

// RemoveRWLock unlinks the named lock's backing file.
func RemoveRWLock(name string) error {
	err := os.Remove(shm.Path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
