package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Action vocabulary for audit records. The column is free text so new
// actions can be introduced without migrating existing rows.
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionDelete         = "delete"
	ActionBulkUpdate     = "bulk_update"
	ActionBulkDelete     = "bulk_delete"
	ActionBulkSoftDelete = "bulk_soft_delete"
	ActionBulkHardDelete = "bulk_hard_delete"
	ActionBulkRestore    = "bulk_restore"
	ActionRestore        = "restore"
	ActionHardDelete     = "hard_delete"
	ActionSoftDelete     = "soft_delete"
	ActionLogin          = "login"
	ActionLogout         = "logout"
	ActionAccess         = "access"
	ActionPermChange     = "permission_change"
	ActionUnknown        = "unknown"
)

// KnownActions is the filter vocabulary. A filter value outside this set
// yields an empty result set rather than an error.
var KnownActions = map[string]struct{}{
	ActionCreate:         {},
	ActionUpdate:         {},
	ActionDelete:         {},
	ActionBulkUpdate:     {},
	ActionBulkDelete:     {},
	ActionBulkSoftDelete: {},
	ActionBulkHardDelete: {},
	ActionBulkRestore:    {},
	ActionRestore:        {},
	ActionHardDelete:     {},
	ActionSoftDelete:     {},
	ActionLogin:          {},
	ActionLogout:         {},
	ActionAccess:         {},
	ActionPermChange:     {},
	ActionUnknown:        {},
}

// Record sources.
const (
	SourceAPI    = "api"
	SourceAdmin  = "admin"
	SourceSignal = "signal"
	SourceModel  = "model"
	SourceShell  = "shell"
)

// Record statuses. Free text; these are the conventional values.
const (
	StatusInfo    = "INFO"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Change is a single field delta.
type Change struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// ChangeSet maps field name to its before/after delta. Stored as JSON.
type ChangeSet map[string]Change

func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *ChangeSet) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("changeset: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*c = nil
		return nil
	}
	return json.Unmarshal(raw, c)
}

// AuditRecord is one append-only audit trail entry. Rows are never updated
// and only the retention sweep deletes them.
type AuditRecord struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID *uint `gorm:"index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Action      string `gorm:"size:50;index" json:"action"`
	Resource    string `gorm:"size:100;index;default:''" json:"resource"`
	Status      string `gorm:"size:20;index;default:INFO" json:"status"`
	Description string `json:"description"`
	Source      string `gorm:"size:10;index;default:api" json:"source"`

	// Polymorphic reference to the affected entity. Both set or both nil.
	TargetType *string `gorm:"size:100;index" json:"target_type"`
	TargetID   *string `gorm:"size:255;index" json:"target_id"`

	Changes ChangeSet `gorm:"type:jsonb" json:"changes"`

	Timestamp time.Time `gorm:"column:timestamp;index;autoCreateTime" json:"timestamp"`
}

func (AuditRecord) TableName() string { return "audit_records" }

// AuditResourceName is the resource label the audit table itself resolves
// to. The interceptor treats it as unmanaged to prevent self-logging
// recursion.
const AuditResourceName = "auditrecord"
