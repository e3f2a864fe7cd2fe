package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// AcquirePID records the current process in path. It fails when another live
// process already holds it; a stale file is replaced.
func AcquirePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("launch: create pid directory: %w", err)
	}
	if running, pid, _ := IsRunning(path); running && pid != os.Getpid() {
		return fmt.Errorf("launch: main process already running with PID %d", pid)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("launch: write pid file: %w", err)
	}
	return nil
}

// ReleasePID removes path if it still names this process.
func ReleasePID(path string) error {
	pid, err := ReadPID(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	return os.Remove(path)
}

// ReadPID returns the pid stored in path.
func ReadPID(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// IsRunning reports whether the process named by path is alive.
func IsRunning(path string) (bool, int, error) {
	pid, err := ReadPID(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return processAlive(pid), pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes for existence; EPERM still means alive.
	err = p.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
