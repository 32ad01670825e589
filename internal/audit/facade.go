package audit

import (
	"context"
	"strings"

	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/logger"
)

// Entry is an explicit call-site audit event, for paths outside the
// automatic interceptor (logins, bulk operations, custom actions).
type Entry struct {
	Action      string
	Resource    string
	Actor       *model.User
	Target      Auditable
	Status      string
	Description string
	Changes     model.ChangeSet
	Source      string
}

// Log records an explicit audit entry. It shares the recorder's fail-safe
// contract: it honors the context suppression flag and returns nil on any
// internal failure, never an error and never a panic.
func (r *Recorder) Log(ctx context.Context, entry Entry) (record *model.AuditRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("audit facade panic suppressed", "panic", rec)
			record = nil
		}
	}()

	if LoggingDisabled(ctx) {
		return nil
	}
	if !r.storeProvisioned(ctx) {
		return nil
	}

	actor := entry.Actor
	if actor == nil {
		actor = ActorFrom(ctx)
	}

	action := strings.ToLower(strings.TrimSpace(entry.Action))
	if action == "" {
		action = model.ActionUnknown
	}

	resource := entry.Resource
	var targetType, targetID *string
	if entry.Target != nil {
		tt := entry.Target.AuditResource()
		tid := entry.Target.AuditObjectID()
		targetType, targetID = &tt, &tid
		if resource == "" {
			resource = tt
		}
	}

	status := entry.Status
	if status == "" {
		status = model.StatusInfo
	}
	source := entry.Source
	if source == "" {
		source = model.SourceAPI
	}

	record = &model.AuditRecord{
		Action:      action,
		Resource:    resource,
		Status:      status,
		Description: entry.Description,
		Source:      source,
		TargetType:  targetType,
		TargetID:    targetID,
		Changes:     entry.Changes,
	}
	if actor != nil {
		id := actor.ID
		record.UserID = &id
	}

	if err := r.persist(ctx, record); err != nil {
		logger.Warn("explicit audit entry dropped", "action", action, "resource", resource, "error", err.Error())
		return nil
	}
	return record
}
