package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	lexerrors "github.com/legalguardian/lexkb/internal/errors"
)

// BuildLock serializes index builds on one output directory across
// processes. Two concurrent builds would interleave their atomic renames
// and leave the index and bundle from different runs.
type BuildLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewBuildLock creates a lock for the given output directory. The lock
// file lives at <dir>/.build.lock.
func NewBuildLock(dir string) *BuildLock {
	lockPath := filepath.Join(dir, ".build.lock")
	return &BuildLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Acquire takes the lock without blocking. A lock held by another
// process is reported as a retryable build-locked error.
func (l *BuildLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return lexerrors.IOError("create lock directory", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return lexerrors.IOError("acquire build lock", err)
	}
	if !acquired {
		return lexerrors.New(lexerrors.ErrCodeBuildLocked,
			fmt.Sprintf("another build is writing to this output directory (lock: %s)", l.path), nil)
	}

	l.locked = true
	return nil
}

// Release drops the lock. Safe to call on an unheld lock.
func (l *BuildLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return lexerrors.IOError("release build lock", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *BuildLock) Path() string {
	return l.path
}
