package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLocked is returned when another process holds the data directory lock
// past the acquisition deadline.
var ErrLocked = errors.New("data directory is locked by another process")

// LockFile is the advisory lock's name inside the data directory.
const LockFile = ".lock"

const (
	lockTimeout = 5 * time.Second
	lockRetry   = 50 * time.Millisecond
)

// errWouldBlock is returned by tryLock when the lock is held elsewhere.
var errWouldBlock = errors.New("lock held")

var processOwner = uuid.NewString()

// fileLock serializes writers within the process with a mutex and across
// processes with an OS advisory lock on a file.
type fileLock struct {
	mu   sync.Mutex
	path string
}

func newFileLock(dir string) *fileLock {
	return &fileLock{path: filepath.Join(dir, LockFile)}
}

func (l *fileLock) with(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lockTimeout)
		defer cancel()
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for {
		err := tryLock(f)
		if err == nil {
			break
		}
		if !errors.Is(err, errWouldBlock) {
			return fmt.Errorf("locking %s: %w", l.path, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (%s)", ErrLocked, l.path)
		case <-time.After(lockRetry):
		}
	}
	defer func() { _ = unlock(f) }()

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(fmt.Sprintf("owner=%s pid=%d\n", processOwner, os.Getpid())), 0)
	}

	return fn()
}

// Owner reports the last holder recorded in dir's lock file, or "" if the
// lock was never taken.
func Owner(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, LockFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ProcessOwner is this process's lock owner id.
func ProcessOwner() string { return processOwner }
