package storage

import (
	"fmt"

	"github.com/gofrs/flock"
)

// LockFile takes an exclusive lock on path, waiting until it is free, and
// returns the function that releases it. The file is created if missing.
func LockFile(path string) (func() error, error) {
	l := flock.New(path)
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	return l.Unlock, nil
}
