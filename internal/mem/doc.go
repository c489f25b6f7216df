// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Column buffers are allocated with 64-byte alignment so typed views
// over them satisfy the alignment of every supported element width
// and stay friendly to vectorized scans.
package mem
