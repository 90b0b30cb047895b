package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hyejinbaek/cognition-ai-proj/internal/core"
)

var (
	_ core.Auditor     = (*FileAuditor)(nil)
	_ core.AuditReader = (*FileAuditor)(nil)
)

// FileAuditor appends one JSON document per decision to a file.
// Existing lines are never rewritten.
type FileAuditor struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	encoder *json.Encoder
}

func NewFileAuditor(filePath string) (*FileAuditor, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file: %w", err)
	}
	return &FileAuditor{
		path:    filePath,
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (f *FileAuditor) Log(entry core.AuditEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.encoder.Encode(entry); err != nil {
		return fmt.Errorf("%w: writing audit log entry: %v", core.ErrPersistenceFailure, err)
	}
	return nil
}

func (f *FileAuditor) GetRecent(limit int) ([]core.AuditEntry, error) {
	return f.Find(func(core.AuditEntry) bool { return true }, limit)
}

// Find scans the whole file and returns the last limit entries accepted by filter.
func (f *FileAuditor) Find(filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log file for reading: %w", err)
	}
	defer func(r *os.File) {
		_ = r.Close()
	}(r)

	return scanEntries(r, filter, limit)
}

func (f *FileAuditor) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

func scanEntries(r io.Reader, filter func(entry core.AuditEntry) bool, limit int) ([]core.AuditEntry, error) {
	matches := make([]core.AuditEntry, 0)
	if limit <= 0 {
		return matches, nil
	}

	dec := json.NewDecoder(bufio.NewReader(r))
	for {
		var entry core.AuditEntry
		if err := dec.Decode(&entry); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding audit log entry: %w", err)
		}
		if !filter(entry) {
			continue
		}
		matches = append(matches, entry)
		if len(matches) > limit {
			matches = matches[1:]
		}
	}
	return matches, nil
}
