// Package fs abstracts the file system operations of the file-backed
// store so failure paths can be exercised in tests via FaultyFS.
package fs
