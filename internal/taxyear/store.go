// Package taxyear persists the practice-wide list of fiscal-year labels
// in a flat newline-separated text file. The file is deliberately plain
// so staff can still edit it by hand; a watcher picks up such edits.
package taxyear

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var defaultYears = []string{"2024-25", "2025-26"}

type Store struct {
	filePath string
	mu       sync.RWMutex
	years    []string
	watcher  *fsnotify.Watcher
}

func NewStore(filePath string) (*Store, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("tax years file path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare tax years directory: %w", err)
	}

	s := &Store{filePath: filePath}
	if err := s.reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Years returns a copy of the current ordered year labels.
func (s *Store) Years() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.years))
	copy(out, s.years)
	return out
}

// Add appends a year label and persists the list. Adding a year that is
// already present is a no-op.
func (s *Store) Add(year string) ([]string, bool, error) {
	label := strings.TrimSpace(year)
	if label == "" {
		return nil, false, fmt.Errorf("year label cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.years {
		if existing == label {
			out := make([]string, len(s.years))
			copy(out, s.years)
			return out, false, nil
		}
	}

	updated := append(append([]string{}, s.years...), label)
	if err := s.saveLocked(updated); err != nil {
		return nil, false, err
	}

	s.years = updated
	out := make([]string, len(updated))
	copy(out, updated)
	return out, true, nil
}

func (s *Store) reload() error {
	years, err := readYearsFile(s.filePath)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.years = years
	s.mu.Unlock()
	return nil
}

func (s *Store) saveLocked(years []string) error {
	content := strings.Join(years, "\n") + "\n"
	if err := os.WriteFile(s.filePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("save tax years %q: %w", s.filePath, err)
	}

	return nil
}

func readYearsFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			out := make([]string, len(defaultYears))
			copy(out, defaultYears)
			return out, nil
		}
		return nil, fmt.Errorf("read tax years %q: %w", filePath, err)
	}

	years := make([]string, 0, 4)
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		years = append(years, trimmed)
	}

	if len(years) == 0 {
		out := make([]string, len(defaultYears))
		copy(out, defaultYears)
		return out, nil
	}

	return years, nil
}

// Watch reloads the store whenever the settings file changes on disk,
// so out-of-band edits are picked up without a restart. Close stops it.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create tax years watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files by rename
	// and a file-level watch would be lost on the first save.
	if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch tax years directory: %w", err)
	}

	s.watcher = watcher
	go func() {
		base := filepath.Base(s.filePath)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					slog.Warn("tax years reload failed", "file", s.filePath, "error", err)
					continue
				}
				slog.Info("tax years reloaded", "file", s.filePath, "years", len(s.Years()))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return nil
}

func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}

	return s.watcher.Close()
}
