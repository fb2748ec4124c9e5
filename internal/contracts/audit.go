package contracts

import "time"

// AuditEntry records one state-changing operation for the audit
// collaborator. Emission is fire-and-forget: a failed write is logged,
// never propagated to the primary operation.
type AuditEntry struct {
	ID            int64       `json:"id"`
	ActorID       string      `json:"actor_id"`
	ActorName     string      `json:"actor_name"`
	Action        string      `json:"action"`
	EntityType    string      `json:"entity_type"`
	EntityID      int64       `json:"entity_id"`
	Before        interface{} `json:"before,omitempty"`
	After         interface{} `json:"after,omitempty"`
	Justification string      `json:"justification,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}
