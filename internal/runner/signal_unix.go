//go:build !windows

package runner

import (
	"os"
	"syscall"
)

// sendInterrupt raises SIGINT on the current process.
func sendInterrupt() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
}
