package source

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/board/internal/model"
)

// FileSource reads a snapshot from a JSON file in the same shape the HTTP
// endpoint serves.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Fetch(ctx context.Context) (*model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	snap, err := decodeSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return snap, nil
}
