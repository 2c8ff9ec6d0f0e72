package state

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/oicur0t/logl-check/pkg/retry"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// lock is an exclusive advisory lock held on a companion file next to the
// state file. The state file itself is replaced by rename on save, so it
// cannot carry the lock.
type lock struct {
	file *os.File
}

func lockPath(statePath string) string {
	return statePath + ".lock"
}

// lockPoll paces the wait for a lock held by another run. Polling with
// LOCK_NB keeps the wait cancellable, which a blocking flock is not.
func lockPoll() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = -1
	cfg.MaxWait = 250 * time.Millisecond
	cfg.Retryable = func(err error) bool {
		return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
	}
	return cfg
}

// acquireLock waits until the exclusive lock on path is granted or ctx is
// done.
func acquireLock(ctx context.Context, path string, logger *zap.Logger) (*lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	fd := int(f.Fd())

	tryLock := func() error {
		return unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
	}

	err = tryLock()
	if errors.Is(err, unix.EWOULDBLOCK) {
		logger.Info("State file is locked by another run, waiting", zap.String("lock_file", path))
		err = retry.Do(ctx, lockPoll(), tryLock)
	}
	if err != nil {
		f.Close()
		return nil, err
	}

	logger.Debug("State lock acquired", zap.String("lock_file", path))
	return &lock{file: f}, nil
}

// release unlocks and closes the lock file. It is safe to call twice.
func (l *lock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
