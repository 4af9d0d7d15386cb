package series

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// DescriptorFileName is the per-series document inside its directory.
const DescriptorFileName = "manwhaDescription.json"

var _ Loader = (*FileStore)(nil)

// FileStore reads descriptors from <dir>/<series id>/manwhaDescription.json.
type FileStore struct {
	dir     string
	catalog *Catalog
}

// NewFileStore creates a file-backed loader. When catalog is non-nil the
// series list comes from its enabled entries instead of the directory listing.
func NewFileStore(dir string, catalog *Catalog) *FileStore {
	return &FileStore{
		dir:     dir,
		catalog: catalog,
	}
}

func (s *FileStore) ListSeriesIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.catalog != nil {
		return s.catalog.EnabledIDs(), nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list series directory: %w", err)
	}

	// os.ReadDir sorts by name
	ids := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		return entry.Name(), entry.IsDir() && !strings.HasPrefix(entry.Name(), ".")
	})

	return ids, nil
}

func (s *FileStore) LoadDescriptor(ctx context.Context, id string) (*Descriptor, error) {
	data, err := s.ReadDocument(ctx, id)
	if err != nil || data == nil {
		return nil, err
	}
	return Decode(id, data)
}

// ReadDocument returns the raw descriptor bytes, or nil when the series has
// no descriptor file.
func (s *FileStore) ReadDocument(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !ValidID(id) {
		return nil, fmt.Errorf("%w: invalid series id %q", ErrDescriptorUnavailable, id)
	}

	data, err := os.ReadFile(s.descriptorPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDescriptorUnavailable, id, err)
	}

	return data, nil
}

func (s *FileStore) descriptorPath(id string) string {
	return filepath.Join(s.dir, id, DescriptorFileName)
}
