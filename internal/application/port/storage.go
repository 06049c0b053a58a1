package port

import "context"

// FileStorage reads and writes files below a base directory
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool

	// List returns the files directly under dir, sorted by name
	List(ctx context.Context, dir string) ([]string, error)
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}
