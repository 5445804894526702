// Package ops tracks long-running conversion operations so clients can poll
// their progress by ID.
package ops

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an operation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// FileOutcome records the result of one file within a batch operation.
type FileOutcome struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path,omitempty"`
	Success    bool   `json:"success"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Operation is a snapshot of one tracked operation.
type Operation struct {
	ID          string        `json:"operation_id"`
	Kind        string        `json:"kind"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Total       int           `json:"total"`
	Converted   int           `json:"converted"`
	Failed      int           `json:"failed"`
	Skipped     int           `json:"skipped"`
	Files       []FileOutcome `json:"files,omitempty"`
	ArchivePath string        `json:"archive_path,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Store is an in-memory operation registry. Operations are kept for the
// process lifetime.
type Store struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

func NewStore() *Store {
	return &Store{ops: map[string]*Operation{}}
}

// Create registers a new pending operation and returns its ID.
func (s *Store) Create(kind string) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[id] = &Operation{ID: id, Kind: kind, Status: StatusPending, StartedAt: time.Now()}
	return id
}

// Start marks the operation running.
func (s *Store) Start(id string) {
	s.update(id, func(op *Operation) {
		op.Status = StatusRunning
	})
}

// AddFile appends one file outcome and updates the counters.
func (s *Store) AddFile(id string, outcome FileOutcome) {
	s.update(id, func(op *Operation) {
		op.Files = append(op.Files, outcome)
		op.Total++
		switch {
		case outcome.Skipped:
			op.Skipped++
		case outcome.Success:
			op.Converted++
		default:
			op.Failed++
		}
	})
}

// Complete marks the operation finished, recording the archive path if one
// was produced.
func (s *Store) Complete(id, archivePath string) {
	s.update(id, func(op *Operation) {
		op.Status = StatusCompleted
		op.ArchivePath = archivePath
		now := time.Now()
		op.FinishedAt = &now
	})
}

// Fail marks the operation failed with a message.
func (s *Store) Fail(id, message string) {
	s.update(id, func(op *Operation) {
		op.Status = StatusFailed
		op.Error = message
		now := time.Now()
		op.FinishedAt = &now
	})
}

// Get returns a snapshot of the operation.
func (s *Store) Get(id string) (Operation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[id]
	if !ok {
		return Operation{}, false
	}
	snap := *op
	snap.Files = append([]FileOutcome(nil), op.Files...)
	return snap, true
}

// Counts returns the number of operations per status.
func (s *Store) Counts() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[Status]int{}
	for _, op := range s.ops {
		out[op.Status]++
	}
	return out
}

func (s *Store) update(id string, fn func(*Operation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if op, ok := s.ops[id]; ok {
		fn(op)
	}
}
