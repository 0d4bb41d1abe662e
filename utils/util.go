package utils

import (
	"os"
	"path/filepath"
)

// ReadyDir ensures the parent directory of filename exists
func ReadyDir(filename string) error {
	dir := filepath.Dir(filename)
	return os.MkdirAll(dir, os.FileMode(0755))
}

// Exists returns true if a file exists
func Exists(fpath string) bool {
	_, err := os.Stat(fpath)
	return !os.IsNotExist(err)
}

// IsDir ...
func IsDir(fpath string) bool {
	fi, err := os.Stat(fpath)
	return err == nil && fi.Mode().IsDir()
}

// FileSize return file size, return -1 if error
func FileSize(fpath string) int64 {
	if fi, err := os.Stat(fpath); err == nil {
		return fi.Size()
	}
	return -1
}

// Stem returns the base name of fpath without its extension
func Stem(fpath string) string {
	base := filepath.Base(fpath)
	return base[:len(base)-len(filepath.Ext(base))]
}
