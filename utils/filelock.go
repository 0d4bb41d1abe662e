package utils

import (
	"os"
	"syscall"
)

// FLock is a file-based lock
type FLock struct {
	fh *os.File
}

// NewFLock creates new Flock-based lock (unlocked first)
func NewFLock(path string) (FLock, error) {
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return FLock{}, err
	}
	return FLock{fh: fh}, nil
}

// TryLock acquires the lock, non-blocking
func (lock FLock) TryLock() (bool, error) {
	err := syscall.Flock(int(lock.fh.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	switch err {
	case nil:
		return true, nil
	case syscall.EWOULDBLOCK:
		return false, nil
	}
	return false, err
}

// Unlock releases the lock and closes its file
func (lock FLock) Unlock() error {
	err := syscall.Flock(int(lock.fh.Fd()), syscall.LOCK_UN)
	lock.fh.Close()
	return err
}

// Remove unlocks and deletes the lock file
func (lock FLock) Remove() error {
	name := lock.fh.Name()
	if err := lock.Unlock(); err != nil {
		return err
	}
	return os.Remove(name)
}
