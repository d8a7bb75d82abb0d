package introduce

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ogg1996/ggdevlog/pkg"
)

// Document is the single self-introduction page: the frontend editor
// content plus the names of the stored images it references.
type Document struct {
	Content json.RawMessage `json:"content"`
	Images  []string        `json:"images"`
}

// FileStore keeps the document in one JSON file on disk. There is only
// one document, so a file beats a table here.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path}

	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check introduce file: %w", err)
	}
	if !exists {
		if err := store.Set(Document{Images: []string{}}); err != nil {
			return nil, fmt.Errorf("create introduce file: %w", err)
		}
	}

	return store, nil
}

func (s *FileStore) Get() (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, fmt.Errorf("read introduce file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal introduce file: %w", err)
	}
	return doc, nil
}

func (s *FileStore) Set(doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal introduce document: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write introduce file: %w", err)
	}
	return nil
}
