package history

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	lockRetryInterval = 10 * time.Millisecond
	lockStaleAfter    = 30 * time.Second
)

// fileLock is an advisory cross-process lock backed by an O_EXCL lock file.
// Server workers are separate processes sharing one history directory, so an
// in-process mutex alone cannot protect the index.
type fileLock struct {
	path string
}

// acquire blocks until the lock file is created or the timeout elapses.
// A lock file older than lockStaleAfter is treated as left behind by a dead
// worker and taken over.
func (l *fileLock) acquire(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			return f.Close()
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock file: %w", err)
		}

		if info, statErr := os.Stat(l.path); statErr == nil {
			if time.Since(info.ModTime()) > lockStaleAfter {
				_ = os.Remove(l.path)
				continue
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("history index lock timeout")
		}
		time.Sleep(lockRetryInterval)
	}
}

func (l *fileLock) release() {
	_ = os.Remove(l.path)
}
