package audit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/pkg/metrics"
)

// Auditable is the capability every audited entity type implements.
type Auditable interface {
	AuditResource() string
	AuditObjectID() string
	AuditSnapshot() map[string]any
}

// Ownable lets an entity supply a fallback actor when the context has none.
type Ownable interface {
	AuditOwner() *model.User
}

// Muteable lets a single instance opt out of audit recording.
type Muteable interface {
	AuditMuted() bool
}

// Hooks fires after every entity mutation. The repository layer invokes it
// deterministically, post-write, in mutation order.
type Hooks interface {
	OnCreate(ctx context.Context, entity Auditable)
	OnUpdate(ctx context.Context, before map[string]any, entity Auditable)
	OnDelete(ctx context.Context, entity Auditable)
}

// RecordStore is the persistence contract the recorder writes through.
type RecordStore interface {
	Create(ctx context.Context, record *model.AuditRecord) error
	Provisioned(ctx context.Context) bool
}

// RecentCache mirrors freshly created records into a bounded recent feed.
type RecentCache interface {
	Push(ctx context.Context, record *model.AuditRecord) error
}

// Recorder is the audit event interceptor. Every code path in it is
// fail-safe: a recording failure is logged and dropped, never surfaced to
// the mutation that triggered it.
type Recorder struct {
	store       RecordStore
	cache       RecentCache
	ignored     map[string]struct{}
	unmanaged   map[string]struct{}
	ready       atomic.Bool
	provisioned atomic.Bool
}

type RecorderOption func(*Recorder)

func WithRecentCache(cache RecentCache) RecorderOption {
	return func(r *Recorder) { r.cache = cache }
}

func WithIgnoredFields(fields []string) RecorderOption {
	return func(r *Recorder) { r.ignored = IgnoreSet(fields) }
}

// WithUnmanagedResources extends the set of resources the recorder never
// logs. The audit table itself and migration bookkeeping are always in it.
func WithUnmanagedResources(resources ...string) RecorderOption {
	return func(r *Recorder) {
		for _, res := range resources {
			r.unmanaged[res] = struct{}{}
		}
	}
}

func NewRecorder(store RecordStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		ignored: IgnoreSet(DefaultIgnoredFields),
		unmanaged: map[string]struct{}{
			model.AuditResourceName: {},
			"schema_migrations":     {},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetReady marks the end of the bootstrap phase. Until it is called every
// hook is a no-op, so nothing is recorded while migrations run.
func (r *Recorder) SetReady() { r.ready.Store(true) }

func (r *Recorder) OnCreate(ctx context.Context, entity Auditable) {
	defer swallowPanic("on_create")
	if !r.shouldRecord(ctx, entity) {
		return
	}
	record := r.buildRecord(ctx, entity, model.ActionCreate, nil)
	if err := r.persist(ctx, record); err != nil {
		logger.Warn("audit record dropped", "action", model.ActionCreate, "resource", record.Resource, "error", err.Error())
	}
}

func (r *Recorder) OnUpdate(ctx context.Context, before map[string]any, entity Auditable) {
	defer swallowPanic("on_update")
	if !r.shouldRecord(ctx, entity) {
		return
	}
	changes := Diff(before, entity.AuditSnapshot(), r.ignored)
	if len(changes) == 0 {
		// No-op writes do not clutter the trail.
		return
	}
	record := r.buildRecord(ctx, entity, model.ActionUpdate, changes)
	if err := r.persist(ctx, record); err != nil {
		logger.Warn("audit record dropped", "action", model.ActionUpdate, "resource", record.Resource, "error", err.Error())
	}
}

func (r *Recorder) OnDelete(ctx context.Context, entity Auditable) {
	defer swallowPanic("on_delete")
	if !r.shouldRecord(ctx, entity) {
		return
	}
	record := r.buildRecord(ctx, entity, model.ActionDelete, nil)
	if err := r.persist(ctx, record); err != nil {
		logger.Warn("audit record dropped", "action", model.ActionDelete, "resource", record.Resource, "error", err.Error())
	}
}

// shouldRecord runs the guard chain, short-circuiting at the first reject.
func (r *Recorder) shouldRecord(ctx context.Context, entity Auditable) bool {
	if entity == nil {
		return false
	}
	if !r.ready.Load() {
		return false
	}
	if RawLoad(ctx) {
		return false
	}
	if _, skip := r.unmanaged[entity.AuditResource()]; skip {
		return false
	}
	if LoggingDisabled(ctx) {
		return false
	}
	if !r.storeProvisioned(ctx) {
		return false
	}
	if muteable, ok := entity.(Muteable); ok && muteable.AuditMuted() {
		return false
	}
	return true
}

// storeProvisioned guards against the race during first-time setup where
// the recorder is live before the audit table exists. The positive answer
// is cached; tables do not get unprovisioned.
func (r *Recorder) storeProvisioned(ctx context.Context) bool {
	if r.provisioned.Load() {
		return true
	}
	if r.store == nil || !r.store.Provisioned(ctx) {
		return false
	}
	r.provisioned.Store(true)
	return true
}

func (r *Recorder) buildRecord(ctx context.Context, entity Auditable, action string, changes model.ChangeSet) *model.AuditRecord {
	actor := ActorFrom(ctx)
	if actor == nil {
		if ownable, ok := entity.(Ownable); ok {
			actor = ownable.AuditOwner()
		}
	}

	resource := entity.AuditResource()
	targetType := resource
	targetID := entity.AuditObjectID()

	record := &model.AuditRecord{
		Action:      action,
		Resource:    resource,
		Status:      model.StatusInfo,
		Description: fmt.Sprintf("%s %s (id=%s)", resource, action, targetID),
		Source:      model.SourceSignal,
		TargetType:  &targetType,
		TargetID:    &targetID,
		Changes:     changes,
	}
	if actor != nil {
		id := actor.ID
		record.UserID = &id
	}
	return record
}

// persist writes the record and emits operational counters. Counter or
// cache failures never block the record itself.
func (r *Recorder) persist(ctx context.Context, record *model.AuditRecord) error {
	start := time.Now()
	if err := r.store.Create(ctx, record); err != nil {
		return err
	}
	observe(func() {
		metrics.AuditCreateLatency.Observe(time.Since(start).Seconds())
		metrics.AuditCreatedTotal.WithLabelValues(record.Resource, record.Action).Inc()
	})
	if r.cache != nil {
		if err := r.cache.Push(ctx, record); err != nil {
			logger.Debug("recent audit cache push failed", "error", err.Error())
		}
	}
	return nil
}

// observe runs a metrics emission, absorbing any panic from the metrics
// backend.
func observe(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func swallowPanic(hook string) {
	if rec := recover(); rec != nil {
		logger.Error("audit hook panic suppressed", "hook", hook, "panic", fmt.Sprint(rec))
	}
}
