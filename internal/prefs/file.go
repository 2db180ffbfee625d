package prefs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

// FileKV stores preferences as a flat TOML table in a single file. Writes
// replace the file atomically so a crash never leaves it half-written.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV returns a FileKV backed by path. The file need not exist.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// DefaultFilePath returns ~/.local/state/board/prefs.toml.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "board", "prefs.toml"), nil
}

// Path returns the backing file path.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) read() (map[string]string, error) {
	values := map[string]string{}
	if _, err := toml.DecodeFile(f.path, &values); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		// Corrupt file: overwrite it.
		values = map[string]string{}
	}
	values[key] = value

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := atomic.WriteFile(f.path, &buf); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
