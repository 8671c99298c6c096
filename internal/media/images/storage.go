// Package images validates and stores uploaded recipe images.
package images

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedFormat means the bytes are not JPEG, PNG, GIF or WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrUndecodable means the magic bytes matched but the image is corrupt.
	ErrUndecodable = errors.New("image could not be decoded")
	// ErrNotFound means no file is stored under the name.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidName rejects names that could escape the storage directory.
	ErrInvalidName = errors.New("invalid image name")
)

// Storage keeps image files in one flat directory. Names are generated,
// never taken from the client.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates {basePath}/{subdir} and returns storage rooted there.
func NewStorage(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, errors.New("base path cannot be empty")
	}
	if subdir == "" {
		return nil, errors.New("subdirectory cannot be empty")
	}

	dir := filepath.Join(basePath, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s directory: %w", subdir, err)
	}
	return &Storage{dir: dir}, nil
}

// NewName returns a collision-resistant file name with the given extension.
func NewName(ext string) string {
	return uuid.NewString() + ext
}

// Save writes data under name, replacing any existing file.
func (s *Storage) Save(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write then rename so readers never see a partial file.
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename image file: %w", err)
	}
	return nil
}

// Get reads the image stored under name.
func (s *Storage) Get(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}

// Exists reports whether a file is stored under name.
func (s *Storage) Exists(name string) bool {
	if checkName(name) != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path(name))
	return err == nil
}

// Delete removes the file stored under name. A missing file is not an error.
func (s *Storage) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string {
	return s.dir
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, name)
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
