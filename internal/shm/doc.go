// Package shm manages named shared memory segments.
//
// A segment is a file in the OS shared memory filesystem (/dev/shm on
// Linux) mapped read-write shared, which is what POSIX shm_open
// resolves to. Any process that knows a segment's name can open it;
// the segment disappears when it is removed and the last mapping is
// gone.
package shm
