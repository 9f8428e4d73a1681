package dedup

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Store is a persistent set of opaque identifiers backed by a
// newline-delimited file. Membership is the only contract; the set is
// append-only and never shrinks. A missing or unreadable backing file is
// not fatal: the store starts empty and rebuilds over subsequent cycles.
type Store struct {
	path string
	log  *logrus.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// Load opens the set at path, tolerating a missing or corrupt file.
func Load(path string, log *logrus.Logger) *Store {
	s := &Store{
		path: path,
		log:  log,
		ids:  make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Errorf("Failed to load id set %s, starting empty: %v", path, err)
		}
		return s
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Errorf("Failed to read id set %s, starting empty: %v", path, err)
		s.ids = make(map[string]struct{})
	}

	return s
}

// Contains reports whether id is in the set.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add records id in the in-memory set. The addition becomes durable on the
// next Persist.
func (s *Store) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Len returns the number of identifiers in the set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Persist writes the set to disk. The file is written to a temp sibling and
// renamed into place so a crash mid-write never corrupts the set loaded on
// the next start.
func (s *Store) Persist() error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", s.path, err)
	}

	w := bufio.NewWriter(tmp)
	for _, id := range ids {
		if _, err := w.WriteString(id + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("failed to write id set %s: %w", s.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to flush id set %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", s.path, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace id set %s: %w", s.path, err)
	}

	return nil
}
