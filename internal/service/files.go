package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/basegroupapp/basegroup-server/internal/errors"
	"github.com/basegroupapp/basegroup-server/internal/loader"
)

// FileInfo describes one loadable file in the data directory.
type FileInfo struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FileService lists and reads loadable files from the configured data
// directory. Listings are cached; the directory watcher invalidates the
// cache on change.
type FileService struct {
	dataDir string
	logger  *slog.Logger

	mu    sync.Mutex
	cache []FileInfo
	dirty bool
}

// NewFileService creates a file service over dataDir.
func NewFileService(dataDir string, logger *slog.Logger) *FileService {
	return &FileService{dataDir: dataDir, logger: logger, dirty: true}
}

// Invalidate marks the cached listing stale. Called by the watcher.
func (s *FileService) Invalidate() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// List returns the loadable files in the data directory, sorted by name.
func (s *FileService) List() ([]FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return s.cache, nil
	}

	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !loader.IsLoadable(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	s.cache = files
	s.dirty = false
	return files, nil
}

// Read returns the content of a named file from the data directory. The
// name must be a bare file name; anything resembling a path is rejected.
func (s *FileService) Read(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, domainerrors.Validation("invalid file name")
	}
	if !loader.IsLoadable(name) {
		return nil, domainerrors.UnsupportedFormat("unsupported file format: " + filepath.Ext(name))
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domainerrors.NotFoundf("file %q not found in data directory", name)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
