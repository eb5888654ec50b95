//go:build unix

package daemon

import "golang.org/x/sys/unix"

// processAlive probes a pid with signal 0.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// terminate sends SIGTERM so the daemon can shut down cleanly.
func terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
