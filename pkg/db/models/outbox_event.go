package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/etfuel/etfuel-backend/pkg/enums"
)

// OutboxEvent is an append-only audit event awaiting publication.
type OutboxEvent struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	EventType     enums.AuditEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AuditAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                `gorm:"column:aggregate_id;type:uuid;not null"`
	ActorUID      *uuid.UUID               `gorm:"column:actor_uid;type:uuid"`
	Payload       json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time               `gorm:"column:published_at"`
	AttemptCount  int                      `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                  `gorm:"column:last_error"`
}
