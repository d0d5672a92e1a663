//go:build windows

package storage

import (
	"os"
)

// MmapFile is not supported on Windows; callers fall back to streaming the file.
func MmapFile(f *os.File) ([]byte, error) {
	return nil, errNotMappable
}

// MunmapFile is a no-op on Windows.
func MunmapFile(data []byte) error {
	return nil
}
