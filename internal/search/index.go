package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/recipebook/recipebook-server/internal/logger"
)

// SearchIndex wraps a Bleve index. All methods are safe for concurrent use.
type SearchIndex struct {
	index  bleve.Index
	path   string // empty for in-memory indexes
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory holding the index. Empty means in-memory.
	DataPath string
	Logger   *slog.Logger
}

// mappingVersion changes whenever buildIndexMapping does. A mismatch on
// startup drops the index so it can be rebuilt from the database.
const mappingVersion = "1"

// NewSearchIndex opens the index under opts.DataPath, creating it when absent,
// outdated or unreadable.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := logger.OrDiscard(opts.Logger)

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &SearchIndex{index: index, logger: log}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "recipes.bleve")
	versionPath := filepath.Join(opts.DataPath, "recipes.version")

	var index bleve.Index
	if _, err := os.Stat(indexPath); err == nil {
		version, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(version) != mappingVersion:
			log.Info("search index mapping changed, recreating", "old_version", string(version), "new_version", mappingVersion)
		default:
			index, err = bleve.Open(indexPath)
			if err != nil {
				log.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
	}

	if index == nil {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create search directory: %w", err)
		}
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			log.Warn("failed to write search version file", "error", err)
		}
		log.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	}

	return &SearchIndex{index: index, path: indexPath, logger: log}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Index adds or replaces a document.
func (s *SearchIndex) Index(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexBatch adds or replaces many documents in chunks.
func (s *SearchIndex) IndexBatch(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *SearchIndex) Delete(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
