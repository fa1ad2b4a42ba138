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

	"github.com/google/uuid"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
)

// UploadStore writes uploads into Dir under random names. Stored paths are
// returned joined with Dir exactly as configured.
type UploadStore struct {
	Dir string
}

func NewUploadStore(dir string) *UploadStore {
	if dir == "" {
		dir = "uploads"
	}
	return &UploadStore{Dir: dir}
}

func (s *UploadStore) Save(ctx context.Context, body io.Reader, ext string, maxBytes int64) (string, int64, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create upload dir: %w", err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(ext)
	path := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}

	written, copyErr := io.Copy(f, io.LimitReader(body, maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write upload: %w", copyErr)
	case written > maxBytes:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("%w: limit is %d bytes", domain.ErrUploadTooLarge, maxBytes)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("close upload: %w", closeErr)
	}
	return path, written, nil
}

func (s *UploadStore) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", path, err)
	}
	return nil
}
