package activity

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ogg1996/ggdevlog/pkg"
)

const dateLayout = "2006-01-02"

// FileStore keeps per-day visit counts in a single JSON file mapping
// "YYYY-MM-DD" (UTC) to a count.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path}

	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, fmt.Errorf("check activity file: %w", err)
	}
	if !exists {
		if err := store.write(map[string]int{}); err != nil {
			return nil, fmt.Errorf("create activity file: %w", err)
		}
	}

	return store, nil
}

func (s *FileStore) Counts() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Increment bumps the counter of the day the given instant falls on,
// in UTC.
func (s *FileStore) Increment(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, err := s.read()
	if err != nil {
		return err
	}

	day := now.UTC().Format(dateLayout)
	counts[day]++

	return s.write(counts)
}

func (s *FileStore) read() (map[string]int, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}

	counts := map[string]int{}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, fmt.Errorf("unmarshal activity file: %w", err)
	}
	return counts, nil
}

func (s *FileStore) write(counts map[string]int) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal activity counts: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write activity file: %w", err)
	}
	return nil
}
