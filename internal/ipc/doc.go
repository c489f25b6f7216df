// Package ipc provides named inter-process synchronization primitives.
//
// Every primitive is backed by a small file in the shared resource
// directory, discoverable by name from any process. Mutex and RWLock
// use flock(2): LOCK_EX for exclusive holds, LOCK_SH for shared holds.
// flock associates locks with the open file description, so two
// handles opened separately exclude each other whether they live in
// one process or two. Acquisition blocks with no timeout.
//
// Counter is a named shared integer. Increments and decrements are
// read-modify-write cycles under the counter's own file lock, so
// concurrent attach/detach from many processes cannot corrupt it.
package ipc
