package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmoose/dtcgcore/pkg/loader"
)

// osWriter writes bundled output to the local filesystem, creating parent
// directories as needed.
type osWriter struct{}

func (osWriter) Write(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func newLoader() *loader.Loader {
	return loader.New(loader.OSReader{})
}
