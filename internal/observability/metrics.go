package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneyshelf_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moneyshelf_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ExternalRequests counts outbound catalog/library requests by provider and outcome.
	ExternalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneyshelf_external_requests_total",
		Help: "Outbound book catalog and library locator requests",
	}, []string{"provider", "outcome"})

	// ExternalLatency records outbound request latency by provider.
	ExternalLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moneyshelf_external_request_seconds",
		Help:    "Outbound request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	// LikeToggles counts like toggles by resulting state.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneyshelf_like_toggles_total",
		Help: "Like toggles by resulting state",
	}, []string{"liked"})

	// ShelfWrites counts shelf file writes by outcome.
	ShelfWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneyshelf_shelf_writes_total",
		Help: "Shelf document writes by outcome",
	}, []string{"outcome"})

	// WebSocketConnections is the gauge of active feed websocket connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "moneyshelf_websocket_connections",
		Help: "Number of active feed WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneyshelf_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// OTPSweeps counts expired OTP codes cleared by the sweeper.
	OTPSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneyshelf_otp_codes_swept_total",
		Help: "Expired OTP codes cleared by the background sweeper",
	})
)

const queryStartKey = "moneyshelf:query_start"

// RegisterQueryMetrics installs gorm callbacks that observe DatabaseQueryLatency
// for every create, query, update, delete and raw statement.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("metrics:before_"+h.op, before); err != nil {
			return err
		}
		if err := h.after("metrics:after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}
