// Package metrics exposes Prometheus counters for note and auth operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	noteOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mintylist_note_operations_total",
		Help: "Note access layer calls by operation and outcome",
	}, []string{"op", "outcome"})

	authOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mintylist_auth_operations_total",
		Help: "Identity provider calls by operation and outcome code",
	}, []string{"op", "outcome"})

	liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mintylist_live_sessions",
		Help: "Browser sessions currently held in memory",
	})
)

// NoteOp records one note operation. outcome is "ok" or an error class.
func NoteOp(op, outcome string) {
	noteOps.WithLabelValues(op, outcome).Inc()
}

// AuthOp records one identity operation. outcome is "ok" or the provider code.
func AuthOp(op, outcome string) {
	authOps.WithLabelValues(op, outcome).Inc()
}

func SessionOpened() { liveSessions.Inc() }
func SessionClosed() { liveSessions.Dec() }
