// Package filelock serializes access to the local snapshot and settings files
// between concurrent CLI processes with an advisory lock.
package filelock

import "os"

const lockFileMode = 0o600

// Lock acquires an exclusive advisory lock on the file at path, creating it
// if needed, and blocks until the lock is free. The returned function
// releases the lock.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock path is derived from our own data dir
	if err != nil {
		return nil, err
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// For returns the lock file guarding path.
func For(path string) string {
	return path + ".lock"
}
