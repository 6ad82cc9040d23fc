// Package auditlog records every mutating action vartija takes (or
// would take under dry-run) as an append-only JSONL trail.
package auditlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Action names the mutations the CLI can perform.
type Action string

const (
	ActionCreateFlowLog  Action = "create-flow-log"
	ActionCreateEndpoint Action = "create-endpoint"
	ActionDeregisterAMI  Action = "deregister-ami"
	ActionDeleteSnapshot Action = "delete-snapshot"
	ActionReleaseEIP     Action = "release-eip"
	ActionDeleteZone     Action = "delete-zone"
)

// Outcome is the result of an action attempt.
type Outcome string

const (
	OutcomeExecuted Outcome = "executed"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDryRun   Outcome = "dry-run"
)

// Entry is one logged action.
type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	Sequence   int64           `json:"sequence"`
	Action     Action          `json:"action"`
	Outcome    Outcome         `json:"outcome"`
	Region     string          `json:"region,omitempty"`
	ResourceID string          `json:"resource_id,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Log is an append-only action log.
type Log struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	sequence int64
}

// Open creates or opens the action log at path, appending to an
// existing file. Sequence numbering continues from the last recorded
// entry so the trail stays monotonic across invocations.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}

	sequence, err := lastSequence(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) // #nosec G302 G304
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Log{
		file:     file,
		writer:   bufio.NewWriter(file),
		sequence: sequence,
	}, nil
}

// lastSequence recovers the highest sequence number in an existing
// log file. A missing file starts numbering at zero; a torn final
// line stops the scan without blocking appends.
func lastSequence(path string) (int64, error) {
	reader, err := NewReader(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer func() { _ = reader.Close() }()

	var last int64
	for {
		entry, err := reader.Next()
		if err != nil {
			break
		}
		if entry.Sequence > last {
			last = entry.Sequence
		}
	}
	return last, nil
}

// Close flushes and closes the log.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

// Record appends one action entry.
func (l *Log) Record(action Action, outcome Outcome, region, resourceID string, detail interface{}) error {
	return l.record(action, outcome, region, resourceID, detail, nil)
}

// RecordError appends a failed action entry with its error.
func (l *Log) RecordError(action Action, region, resourceID string, detail interface{}, actionErr error) error {
	return l.record(action, OutcomeFailed, region, resourceID, detail, actionErr)
}

func (l *Log) record(action Action, outcome Outcome, region, resourceID string, detail interface{}, actionErr error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var raw json.RawMessage
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal detail: %w", err)
		}
		raw = data
	}

	l.sequence++
	entry := Entry{
		Timestamp:  time.Now(),
		Sequence:   l.sequence,
		Action:     action,
		Outcome:    outcome,
		Region:     region,
		ResourceID: resourceID,
		Detail:     raw,
	}
	if actionErr != nil {
		entry.Error = actionErr.Error()
	}

	return l.writeEntry(entry)
}

// writeEntry writes one JSONL line and syncs for durability.
func (l *Log) writeEntry(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if _, err := l.writer.Write(line); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if _, err := l.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return l.file.Sync()
}

// Reader replays a log file entry by entry.
type Reader struct {
	scanner *bufio.Scanner
	file    *os.File
}

// NewReader opens a log file for replay.
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	return &Reader{
		scanner: bufio.NewScanner(file),
		file:    file,
	}, nil
}

// Next reads the next entry, io.EOF at end.
func (r *Reader) Next() (*Entry, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	var entry Entry
	if err := json.Unmarshal(r.scanner.Bytes(), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Replay calls handler for every entry after since.
func Replay(path string, since time.Time, handler func(*Entry) error) error {
	reader, err := NewReader(path)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	for {
		entry, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if entry.Timestamp.After(since) {
			if err := handler(entry); err != nil {
				return err
			}
		}
	}
	return nil
}
