package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditType records who or what caused a change
type AuditType string

const (
	AuditTypeManual  AuditType = "manual"
	AuditTypeMeeting AuditType = "meeting"
	AuditTypeSystem  AuditType = "system"
)

// AuditEntry is an immutable record of one field-level change to a task
type AuditEntry struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      AuditType `json:"type"`
	Field     string    `json:"field"`
	OldValue  any       `json:"old_value"`
	NewValue  any       `json:"new_value"`
	Reason    string    `json:"reason,omitempty"`
	MeetingID *string   `json:"meeting_id,omitempty"`
}
