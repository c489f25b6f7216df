// Package names derives the OS-level resource names of a shared
// matrix from its identity string.
//
// Every named resource (data segment, reference counter, column lock,
// structural lock, creation guard) is a pure function of the identity
// plus a role suffix. Two matrices can therefore never collide, and a
// process holding only the identity can rediscover every resource.
package names

import (
	"strconv"

	"github.com/google/uuid"
)

// NewIdentity returns a fresh globally unique identity root.
// uuid.NewString is safe for concurrent use, so no guard is needed
// around generation.
func NewIdentity() string {
	return uuid.NewString()
}

// NewFileIdentity returns a fresh identity for a file-backed matrix.
// The file name is folded into the identity so bookkeeping names stay
// recognizable next to the data files they belong to.
func NewFileIdentity(fileName string) string {
	return fileName + "-" + uuid.NewString()
}

// Segment returns the name of the single combined data segment of a
// contiguous matrix.
func Segment(identity string) string {
	return identity
}

// SegmentColumn returns the name of column i's data segment of a
// separated matrix.
func SegmentColumn(identity string, i int) string {
	return identity + "_column_" + strconv.Itoa(i)
}

// Counter returns the name of the shared reference counter.
func Counter(identity string) string {
	return identity + "_counter"
}

// CreateGuard returns the name of the transient mutex that orders
// concurrent create() calls. It exists only while create() runs.
func CreateGuard(identity string) string {
	return identity + "_create_lock"
}

// ColumnLock returns the name of column i's reader/writer lock.
func ColumnLock(identity string, i int) string {
	return identity + "_column_" + strconv.Itoa(i) + "_lock"
}

// StructuralLock returns the name of the lock that makes batched
// column-lock acquisition atomic.
func StructuralLock(identity string) string {
	return identity + "_lock"
}

// DataFile returns the on-disk file name of a contiguous file-backed
// matrix.
func DataFile(fileName string) string {
	return fileName
}

// DataFileColumn returns the on-disk file name of column i of a
// separated file-backed matrix.
func DataFileColumn(fileName string, i int) string {
	return fileName + "_column_" + strconv.Itoa(i)
}
