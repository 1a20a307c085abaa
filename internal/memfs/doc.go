// Package memfs is an in-memory directory backend. The runner mounts it for
// scratch and seeded directories, and the tests use it as the reference
// implementation of the dir.Dir and file.File contracts.
package memfs
