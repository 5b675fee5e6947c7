package domain

import "time"

// Audit actions recorded by the order service.
const (
	AuditOrderCreated       = "order.created"
	AuditOrderUpdated       = "order.updated"
	AuditOrderStatusChanged = "order.status.changed"
)

const EntityTypeOrder = "order"

// AuditLogEntry is one immutable record in the append-only audit stream.
// Metadata holds transition-specific context such as {from, to}.
type AuditLogEntry struct {
	ID         uint64
	ActorID    *uint64
	Action     string
	EntityType string
	EntityID   *uint64
	Metadata   map[string]any
	CreatedAt  time.Time
}
