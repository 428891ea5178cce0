package docstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ronnie012/assured-life-server/internal/domain"
)

// FileStore persists claim documents onto the local filesystem. It is
// intended for development and test environments where an object storage
// service is not available.
type FileStore struct {
	basePath string
	baseURL  string
}

// NewFileStore initializes a FileStore rooted at basePath. Returned URLs are
// baseURL + "/" + key.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("docstore: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store writes the document under a generated key and returns its URL. Keys
// are cleaned to prevent directory traversal.
func (s *FileStore) Store(ctx context.Context, name, _ string, r io.Reader) (string, error) {
	if s == nil {
		return "", errors.New("docstore: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanName, err := sanitizeKey(name)
	if err != nil {
		return "", err
	}
	key := "claims/" + uuid.NewString() + "/" + cleanName
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", &domain.DependencyUnavailableError{Dependency: "document store", Err: err}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &domain.DependencyUnavailableError{Dependency: "document store", Err: err}
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", &domain.DependencyUnavailableError{Dependency: "document store", Err: err}
	}
	return s.baseURL + "/" + key, nil
}

// sanitizeKey reduces an uploaded filename to its base name so a crafted
// name can never escape the storage prefix.
func sanitizeKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("docstore: name is required")
	}
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return "", errors.New("docstore: invalid name")
	}
	return base, nil
}

var _ domain.DocumentStore = (*FileStore)(nil)
