// Package health aggregates per-subsystem probes into a tri-state overall
// status.
package health

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/gaspardpetit/echoflow/internal/config"
	"github.com/gaspardpetit/echoflow/internal/logx"
)

// Component status values. NotInitialized is acceptable for the overall
// check: a freshly started process is healthy before the AI resource has
// ever been touched.
const (
	StatusHealthy        = "healthy"
	StatusDegraded       = "degraded"
	StatusUnhealthy      = "unhealthy"
	StatusNotInitialized = "not_initialized"
)

// memoryDegradedPercent marks the node degraded when used memory crosses it.
const memoryDegradedPercent = 90.0

// Probe reports the status of one subsystem.
type Probe struct {
	Name  string
	Check func(ctx context.Context) string
}

// Report is the aggregated health snapshot.
type Report struct {
	Status     string            `json:"status"`
	AppName    string            `json:"app_name"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Aggregator polls all registered probes and reduces them to one status.
type Aggregator struct {
	appName string
	version string
	probes  []Probe
}

// ModelChecker is the model manager surface the AI probe needs.
type ModelChecker interface {
	Initialized() bool
	HealthCheck(ctx context.Context) bool
}

// NewAggregator builds the standard probe set: config, logging, filesystem,
// memory, and the AI model manager.
func NewAggregator(cfg *config.Config, version string, models ModelChecker) *Aggregator {
	a := &Aggregator{appName: cfg.AppName, version: version}
	a.Add(Probe{Name: "config", Check: func(ctx context.Context) string { return checkConfig(cfg) }})
	a.Add(Probe{Name: "logging", Check: func(ctx context.Context) string { return StatusHealthy }})
	a.Add(Probe{Name: "filesystem", Check: func(ctx context.Context) string { return checkFilesystem(cfg.TempDir) }})
	a.Add(Probe{Name: "memory", Check: checkMemory})
	a.Add(Probe{Name: "ai_models", Check: func(ctx context.Context) string { return checkModels(ctx, models) }})
	return a
}

// Add appends a probe.
func (a *Aggregator) Add(p Probe) {
	a.probes = append(a.probes, p)
}

// Report polls every probe. Reduction: any unhealthy makes the whole report
// unhealthy; otherwise any degraded makes it degraded.
func (a *Aggregator) Report(ctx context.Context) Report {
	components := make(map[string]string, len(a.probes))
	overall := StatusHealthy
	for _, p := range a.probes {
		status := p.Check(ctx)
		components[p.Name] = status
		switch status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall != StatusUnhealthy {
				overall = StatusDegraded
			}
		}
	}
	return Report{
		Status:     overall,
		AppName:    a.appName,
		Version:    a.version,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
}

// Check reports whether the process is fit to serve. Per component only
// healthy and not_initialized are acceptable; a degraded component fails
// the check even though the aggregate report calls the process degraded.
func (a *Aggregator) Check(ctx context.Context) bool {
	report := a.Report(ctx)
	ok := report.Status == StatusHealthy || report.Status == StatusDegraded
	for name, status := range report.Components {
		switch status {
		case StatusHealthy:
		case StatusNotInitialized:
			logx.Log.Info().Str("component", name).Msg("component not yet initialized")
		default:
			logx.Log.Warn().Str("component", name).Str("status", status).Msg("component unhealthy")
			ok = false
		}
	}
	if ok {
		logx.Log.Info().Msg("all health checks passed")
	} else {
		logx.Log.Error().Str("status", report.Status).Msg("health checks failed")
	}
	return ok
}

func checkConfig(cfg *config.Config) string {
	if cfg == nil || cfg.AppName == "" || cfg.TempDir == "" {
		return StatusUnhealthy
	}
	return StatusHealthy
}

func checkFilesystem(tempDir string) string {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return StatusUnhealthy
	}
	probe := filepath.Join(tempDir, "health_check.tmp")
	if err := os.WriteFile(probe, []byte("health_check"), 0o600); err != nil {
		return StatusUnhealthy
	}
	_ = os.Remove(probe)
	return StatusHealthy
}

func checkMemory(ctx context.Context) string {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		// No reading is a visibility gap, not an outage.
		return StatusDegraded
	}
	if vm.UsedPercent > memoryDegradedPercent {
		return StatusDegraded
	}
	return StatusHealthy
}

func checkModels(ctx context.Context, models ModelChecker) string {
	if models == nil {
		return StatusNotInitialized
	}
	if !models.Initialized() {
		return StatusNotInitialized
	}
	if models.HealthCheck(ctx) {
		return StatusHealthy
	}
	return StatusDegraded
}
