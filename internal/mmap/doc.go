// Package mmap provides read-write memory-mapped file access.
//
// # Overview
//
// Matrix stores map their backing bytes directly so element access is
// zero-copy and, for shared mappings, visible to every process that
// maps the same file. Create extends a fresh file to its exact final
// length before mapping it; Open maps an existing file as-is.
//
// # Thread Safety
//
// Mapping is safe for concurrent read access. Close is idempotent and
// protected by atomic operations. Callers must ensure no goroutines
// access Bytes() after Close() returns.
//
// # Platform Support
//
// Unix only (mmap(2), msync(2), madvise(2)).
package mmap
