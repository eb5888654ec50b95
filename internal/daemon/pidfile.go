package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WritePIDFile records the current process id, refusing when the file
// already names a live process.
func WritePIDFile(path string) error {
	if pid, err := ReadPIDFile(path); err == nil && processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create pidfile directory: %w", err)
	}

	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// ReadPIDFile returns the process id recorded at path.
func ReadPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pidfile %s: %w", path, err)
	}
	return pid, nil
}

// RemovePIDFile deletes the pidfile, ignoring a missing one.
func RemovePIDFile(path string) {
	_ = os.Remove(path)
}

// Status reports the recorded pid and whether that process is alive.
// A missing pidfile means no daemon is running.
func Status(path string) (pid int, running bool, err error) {
	pid, err = ReadPIDFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return pid, processAlive(pid), nil
}

// Terminate asks the process recorded in the pidfile to shut down.
func Terminate(path string) error {
	pid, err := ReadPIDFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no daemon running")
		}
		return err
	}

	if !processAlive(pid) {
		RemovePIDFile(path)
		return fmt.Errorf("no daemon running (stale pidfile removed)")
	}

	return terminate(pid)
}
