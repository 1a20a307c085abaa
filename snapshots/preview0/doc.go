// Package preview0 is the wasi_unstable dispatcher. It shares every
// handler with preview1 and differs in whence order, the filestat and
// subscription layouts, its errno table, and the absence of sock_accept.
package preview0
