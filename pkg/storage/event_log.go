package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/revu/pkg/domain"
)

// eventMu serializes appends to the shared events file across services.
var eventMu sync.Mutex

// RecordEvent appends an audit event to the JSON Lines trail.
func (r *FilesystemRepository) RecordEvent(event domain.Event) error {
	eventMu.Lock()
	defer eventMu.Unlock()

	dir := filepath.Join(r.root, RevuDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create .revu directory: %w", err)
	}

	path := filepath.Join(dir, EventsFile)
	// #nosec G304 -- path is rooted in the workspace .revu directory
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// LoadEvents reads the full audit trail in append order.
func (r *FilesystemRepository) LoadEvents() ([]domain.Event, error) {
	path := filepath.Join(r.root, RevuDir, EventsFile)
	// #nosec G304 -- path is rooted in the workspace .revu directory
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var events []domain.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event domain.Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("corrupt event line: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	return events, nil
}
