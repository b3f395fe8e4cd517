// Package fsutil implements small filesystem helpers shared by the config
// loader and the model file writer.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nakatani/ldig-go/internal/logger"
)

// logg returns this package's logger, built fresh per call so it always
// reflects the current global log level (internal/logger.Default).
func logg() *log.Logger { return logger.Default("fsutil") }

// FileExists simply checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// WriteFileAtomic writes data to path by first writing to a sibling temp
// file and renaming it into place, so a crash mid-write never leaves a
// truncated model file behind (spec.md §7).
func WriteFileAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		logg().Errorf("renaming %s into place: %v", path, err)
		os.Remove(tmpPath)
		return err
	}
	return nil
}
