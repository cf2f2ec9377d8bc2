// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sourceStates = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "clue_search_dashboard_records_total",
		Help: "Dashboard source-state records by stage",
	},
	[]string{"stage"},
)

// Dashboard keeps the latest source-state value reported for each
// question, stage and result. It is safe for concurrent use and is
// injected where needed rather than held as a process-wide instance.
type Dashboard struct {
	mu     sync.RWMutex
	states map[dashboardKey]int
}

type dashboardKey struct {
	question string
	stage    string
	result   string
}

// NewDashboard returns an empty dashboard.
func NewDashboard() *Dashboard {
	return &Dashboard{states: make(map[dashboardKey]int)}
}

// Record stores value for the question, stage and result.
func (d *Dashboard) Record(questionID, stage, resultID string, value int) {
	d.mu.Lock()
	d.states[dashboardKey{questionID, stage, resultID}] = value
	d.mu.Unlock()
	sourceStates.WithLabelValues(stage).Inc()
}

// State returns the recorded value and whether one exists.
func (d *Dashboard) State(questionID, stage, resultID string) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.states[dashboardKey{questionID, stage, resultID}]
	return v, ok
}

// Count returns how many results were recorded for questionID under stage.
func (d *Dashboard) Count(questionID, stage string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for k := range d.states {
		if k.question == questionID && k.stage == stage {
			n++
		}
	}
	return n
}
