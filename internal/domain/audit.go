package domain

import (
	"encoding/json"
	"time"
)

// AuditEntry records one mutation for the audit trail. Entries are published
// to the audit queue by the API process and persisted by the worker.
type AuditEntry struct {
	ID             int64           `json:"id,omitempty"`
	OrganizationID int64           `json:"organizationId"`
	ActorID        int64           `json:"actorId"`
	Action         string          `json:"action"`
	EntityType     string          `json:"entityType"`
	EntityID       int64           `json:"entityId"`
	OldData        json.RawMessage `json:"oldData,omitempty"`
	NewData        json.RawMessage `json:"newData,omitempty"`
	RecordedAt     time.Time       `json:"recordedAt"`
}
