package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuditCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_log_created_total",
		Help: "Total number of audit records created",
	}, []string{"resource", "action"})

	AuditCleanupTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_log_cleanup_total",
		Help: "Total number of audit records deleted by the retention sweep",
	})

	AuditCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audit_log_create_latency_seconds",
		Help:    "Audit record creation latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auditgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditgate_login_total",
		Help: "Total login attempts by outcome",
	}, []string{"status"})
)
