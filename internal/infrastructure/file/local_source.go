package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

// LocalSource opens files that live under BaseDir. Paths that escape it,
// directly or through symlinks, are refused.
type LocalSource struct {
	BaseDir string
}

func NewLocalSource(baseDir string) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir}
}

// Resolve returns the absolute, symlink-free location of sourcePath.
// Relative paths are taken relative to the working directory, which is how
// stored upload paths are recorded.
func (s *LocalSource) Resolve(sourcePath string) (string, error) {
	raw := strings.TrimSpace(sourcePath)
	if raw == "" || strings.Contains(raw, "://") {
		return "", fmt.Errorf("%w: %q", domain.ErrForbiddenPath, sourcePath)
	}

	base, err := filepath.Abs(s.BaseDir)
	if err != nil {
		return "", fmt.Errorf("resolve upload dir: %w", err)
	}
	path, err := filepath.Abs(raw)
	if err != nil || !within(base, path) {
		return "", fmt.Errorf("%w: %q", domain.ErrForbiddenPath, sourcePath)
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrFileNotFound, sourcePath)
		}
		return "", fmt.Errorf("resolve %s: %w", sourcePath, err)
	}
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		realBase = base
	}
	if !within(realBase, resolved) {
		return "", fmt.Errorf("%w: %q", domain.ErrForbiddenPath, sourcePath)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", sourcePath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrFileNotFound, sourcePath)
	}
	return resolved, nil
}

// Open resolves sourcePath and opens it for reading.
func (s *LocalSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Resolve(sourcePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "."
}
