// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package metrics exposes the server's sync activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lab_updater"

// Sync records sync cycle activity. It satisfies protocol.Metrics.
type Sync struct {
	// cycles counts finished cycles.
	// Labels:
	//   - outcome: completed, aborted, client_left, timeout, cancelled
	cycles *prometheus.CounterVec

	// gateWait is the time a cycle waited before it held the gate.
	gateWait prometheus.Histogram

	// cycleDuration is the time from announce to the cycle's end.
	// Labels:
	//   - outcome: same values as cycles
	cycleDuration *prometheus.HistogramVec

	connectedClients prometheus.Gauge

	// filesTransferred counts files moved by the protocol.
	// Labels:
	//   - direction: to_client, from_client, broadcast
	filesTransferred *prometheus.CounterVec
}

// NewSync creates the collectors and registers them on reg.
func NewSync(reg prometheus.Registerer) *Sync {
	m := &Sync{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_cycles_total",
				Help:      "Total number of finished sync cycles",
			},
			[]string{"outcome"},
		),
		gateWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gate_wait_seconds",
				Help:      "Time a sync cycle waited for the coordination gate",
				Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_cycle_duration_seconds",
				Help:      "Duration of sync cycles in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
			},
			[]string{"outcome"},
		),
		connectedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "connected_clients",
				Help:      "Number of clients currently connected",
			},
		),
		filesTransferred: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_transferred_total",
				Help:      "Total number of files transferred by the sync protocol",
			},
			[]string{"direction"},
		),
	}

	reg.MustRegister(m.cycles, m.gateWait, m.cycleDuration, m.connectedClients, m.filesTransferred)
	return m
}

func (m *Sync) ObserveGateWait(d time.Duration) {
	m.gateWait.Observe(d.Seconds())
}

func (m *Sync) ObserveCycle(outcome string, d time.Duration) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Sync) SetConnectedClients(n int) {
	m.connectedClients.Set(float64(n))
}

func (m *Sync) AddFilesTransferred(direction string, n int) {
	if n <= 0 {
		return
	}
	m.filesTransferred.WithLabelValues(direction).Add(float64(n))
}
