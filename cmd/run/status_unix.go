//go:build !windows

package main

import "golang.org/x/sys/unix"

// Shell conventions for a process killed by a signal.
const (
	abortStatus     = 128 + int(unix.SIGABRT)
	interruptStatus = 128 + int(unix.SIGINT)
)

func exitStatus(code uint32) int { return int(code) }
