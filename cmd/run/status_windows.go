//go:build windows

package main

const (
	abortStatus     = 3
	interruptStatus = 3
)

// Windows reserves 3 for abnormal termination; larger guest codes
// collapse to 1.
func exitStatus(code uint32) int {
	if code >= 3 {
		return 1
	}
	return int(code)
}
