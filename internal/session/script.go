// internal/session/script.go
package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// ReadFile reads a page or script from disk. A leading ~ expands to the home
// directory, and files ending in .br are brotli-decompressed.
func ReadFile(path string) ([]byte, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(filepath.Ext(expanded), ".br") {
		return raw, nil
	}
	out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %q: %w", path, err)
	}
	return out, nil
}

// RunScripts executes the script files in order. The first failure stops the run.
func (s *Session) RunScripts(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		code, err := ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		if err := s.runtime.ExecuteScript(ctx, filepath.Base(path), string(code)); err != nil {
			return fmt.Errorf("script %s failed: %w", path, err)
		}
		s.logger.Debug("Script executed", zap.String("path", path))
	}
	return nil
}
