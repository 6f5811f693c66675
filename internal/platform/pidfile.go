package platform

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// terminateGracePeriod gives a previous instance time to release its port.
const terminateGracePeriod = 500 * time.Millisecond

// WritePIDFile records the current process id so a later instance can find
// and replace this one.
func WritePIDFile(path string) error {
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid), 0o644); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	return nil
}

// RemovePIDFile deletes the pid file. A missing file is not an error.
func RemovePIDFile(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}

// TerminatePreviousInstance reads the pid file and sends SIGTERM to the
// recorded process, waiting briefly for it to exit. It reports whether a
// previous instance was signalled. A stale or unreadable pid file is treated
// as no previous instance.
func TerminatePreviousInstance(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return false
	}
	time.Sleep(terminateGracePeriod)
	return true
}
