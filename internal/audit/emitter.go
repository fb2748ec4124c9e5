package audit

import (
	"context"
	"sync"
	"time"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// Emitter forwards audit entries to the audit store without blocking
// the operation that produced them. A full buffer or a failed write is
// logged and dropped; auditing must never take down the primary path.
type Emitter struct {
	repo    contracts.AuditRepository
	logger  *logger.Logger
	entries chan contracts.AuditEntry
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewEmitter creates and starts an emitter
func NewEmitter(repo contracts.AuditRepository, log *logger.Logger) *Emitter {
	e := &Emitter{
		repo:    repo,
		logger:  log,
		entries: make(chan contracts.AuditEntry, 256),
		done:    make(chan struct{}),
	}
	go e.run()
	return e
}

// Emit queues an entry for persistence. Never blocks, and stays safe
// to call after Close: late entries are logged and dropped.
func (e *Emitter) Emit(entry contracts.AuditEntry) {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.logger.WithFields(map[string]interface{}{
			"action": entry.Action,
			"actor":  entry.ActorID,
		}).Warn("Audit emitter closed, entry dropped")
		return
	}

	select {
	case e.entries <- entry:
	default:
		e.logger.WithFields(map[string]interface{}{
			"action": entry.Action,
			"actor":  entry.ActorID,
		}).Warn("Audit buffer full, entry dropped")
	}
}

// Close drains queued entries and stops the writer
func (e *Emitter) Close() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		close(e.entries)
		e.mu.Unlock()

		<-e.done
	})
}

func (e *Emitter) run() {
	defer close(e.done)

	for entry := range e.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.repo.Insert(ctx, &entry); err != nil {
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"action": entry.Action,
				"actor":  entry.ActorID,
			}).Error("Failed to persist audit entry")
		}
		cancel()
	}
}
