package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/pkg/config"
	"github.com/fleetops/premia/backend/pkg/logger"
)

type fakeAuditRepo struct {
	inserted chan contracts.AuditEntry
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{inserted: make(chan contracts.AuditEntry, 32)}
}

func (r *fakeAuditRepo) Insert(_ context.Context, entry *contracts.AuditEntry) error {
	r.inserted <- *entry
	return nil
}

func (r *fakeAuditRepo) receive(t *testing.T) contracts.AuditEntry {
	t.Helper()
	select {
	case entry := <-r.inserted:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("no audit entry persisted")
		return contracts.AuditEntry{}
	}
}

func auditLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func TestEmitter_DeliversEntries(t *testing.T) {
	repo := newFakeAuditRepo()
	emitter := NewEmitter(repo, auditLogger())
	defer emitter.Close()

	emitter.Emit(contracts.AuditEntry{
		ActorID:    "mgr-1",
		ActorName:  "Manager",
		Action:     "period.close",
		EntityType: "period",
		EntityID:   7,
	})

	entry := repo.receive(t)
	assert.Equal(t, "period.close", entry.Action)
	assert.Equal(t, int64(7), entry.EntityID)
	assert.False(t, entry.OccurredAt.IsZero(), "emit must stamp the entry")
}

func TestEmitter_CloseDrainsQueuedEntries(t *testing.T) {
	repo := newFakeAuditRepo()
	emitter := NewEmitter(repo, auditLogger())

	for i := 0; i < 5; i++ {
		emitter.Emit(contracts.AuditEntry{Action: "expurgo.request", EntityID: int64(i)})
	}
	emitter.Close()

	require.Len(t, repo.inserted, 5)
}

func TestEmitter_EmitAfterCloseIsDropped(t *testing.T) {
	repo := newFakeAuditRepo()
	emitter := NewEmitter(repo, auditLogger())
	emitter.Close()

	assert.NotPanics(t, func() {
		emitter.Emit(contracts.AuditEntry{Action: "period.advance", EntityID: 1})
	})
	assert.Empty(t, repo.inserted, "late entries must not be persisted")

	// Close stays idempotent
	assert.NotPanics(t, emitter.Close)
}
