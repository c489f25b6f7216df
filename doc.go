// Package bigmat provides a multi-process matrix storage engine for Go.
//
// Bigmat stores large two-dimensional numeric matrices outside the
// garbage-collected heap and shares them across process boundaries:
//
//   - Three backing stores: local heap, POSIX shared memory, and
//     memory-mapped files
//   - Four element types (Int8, Int16, Int32, Float64) with NA
//     sentinel coercion
//   - Contiguous or separated (one region per column) layouts
//   - Reference-counted multi-process lifecycle with deterministic
//     teardown of named resources
//   - Advisory per-column read/write locking across processes
//   - Typed zero-copy accessors with parallel bulk fill
//   - Streaming snapshot save/load with optional LZ4/ZSTD compression
//     and IO throttling
//
// # Store Selection
//
// Choose the backing store for your workload:
//   - Local: single-process, heap-backed, cheapest to create
//   - Shared: multi-process via /dev/shm, vanishes with the last
//     referencer
//   - FileBacked: multi-process via mmap'd files, can outlive all
//     referencers when preserved
//
// # Quick Start
//
// Create a shared matrix, write through a typed accessor and attach
// from another process by identity:
//
//	m, err := bigmat.CreateShared(1_000_000, 8, bigmat.Float64, bigmat.Separated)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Destroy()
//
//	acc, err := bigmat.NewAccessor[float64](m)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	acc.Set(0, 0, 3.5)
//
//	// Elsewhere, using the identity string shared out of band:
//	peer, err := bigmat.ConnectShared(m.Identity(), 1_000_000, 8, bigmat.Float64, bigmat.Separated)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer peer.Destroy()
//
// Locking is advisory: cooperating processes bracket column access
// with ReadLock/ReadWriteLock and Unlock, but nothing stops a process
// that skips the protocol.
package bigmat
