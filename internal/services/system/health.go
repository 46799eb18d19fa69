// Package system holds the health, metrics and maintenance services.
package system

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"norelock.dev/reelid/backend/internal/config"
	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/services/identify"
	"norelock.dev/reelid/backend/internal/services/search"
	"norelock.dev/reelid/backend/internal/utils"
)

// HealthStatus is the reported state of a single component or of the system
// as a whole.
type HealthStatus string

const (
	// StatusUp means the component works normally.
	StatusUp HealthStatus = "up"
	// StatusDown means the component is unusable.
	StatusDown HealthStatus = "down"
	// StatusDegraded means the component works with reduced capability.
	StatusDegraded HealthStatus = "degraded"
)

// ComponentHealth is the last observed state of one system component.
type ComponentHealth struct {
	Name        string       `json:"name"`
	Status      HealthStatus `json:"status"`
	Description string       `json:"description,omitempty"`
	Latency     int64        `json:"latency_ms,omitempty"`
	LastChecked time.Time    `json:"last_checked"`
}

// SystemHealth aggregates component states with process-level runtime info.
type SystemHealth struct {
	Status      HealthStatus      `json:"status"`
	Components  []ComponentHealth `json:"components"`
	Version     string            `json:"version"`
	Environment string            `json:"environment"`
	Uptime      int64             `json:"uptime_seconds"`
	StartTime   time.Time         `json:"start_time"`
	GoVersion   string            `json:"go_version"`
	GoRoutines  int               `json:"go_routines"`
	MemStats    MemoryStats       `json:"memory_stats"`
}

// MemoryStats is a snapshot of the Go runtime's memory counters.
type MemoryStats struct {
	Alloc      uint64 `json:"alloc_bytes"`
	TotalAlloc uint64 `json:"total_alloc_bytes"`
	Sys        uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
	HeapAlloc  uint64 `json:"heap_alloc_bytes"`
	HeapSys    uint64 `json:"heap_sys_bytes"`
}

// HealthService probes the store, the identification providers and the web
// search integration, and caches the latest result per component.
type HealthService struct {
	store     *file.Store
	registry  *identify.Registry
	searchSvc *search.Service
	cfg       *config.Config
	logger    *utils.Logger
	startTime time.Time
	version   string

	mu         sync.RWMutex
	components map[string]ComponentHealth

	checkInterval time.Duration
}

// NewHealthService creates a new health service.
func NewHealthService(
	store *file.Store,
	registry *identify.Registry,
	searchSvc *search.Service,
	cfg *config.Config,
	version string,
	logger *utils.Logger,
) *HealthService {
	return &HealthService{
		store:         store,
		registry:      registry,
		searchSvc:     searchSvc,
		cfg:           cfg,
		logger:        logger.Named("health_service"),
		startTime:     time.Now(),
		version:       version,
		components:    make(map[string]ComponentHealth),
		checkInterval: 30 * time.Second,
	}
}

// Start runs an initial check and then keeps re-checking on an interval until
// the context is cancelled.
func (s *HealthService) Start(ctx context.Context) {
	s.logger.Info("Starting health service")

	s.CheckHealth(ctx)
	go s.watch(ctx)
}

func (s *HealthService) watch(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping health service")
			return
		case <-ticker.C:
			s.CheckHealth(ctx)
		}
	}
}

// CheckHealth probes every component once and refreshes the cache.
func (s *HealthService) CheckHealth(ctx context.Context) {
	s.logger.Debug("Performing health check")

	s.checkFileStore(ctx)
	s.checkProviders()
	s.checkWebSearch()
}

// GetHealth assembles the system snapshot from the cached component states.
func (s *HealthService) GetHealth(ctx context.Context) SystemHealth {
	s.mu.RLock()
	components := make([]ComponentHealth, 0, len(s.components))
	for _, component := range s.components {
		components = append(components, component)
	}
	s.mu.RUnlock()

	return SystemHealth{
		Status:      overallStatus(components),
		Components:  components,
		Version:     s.version,
		Environment: s.cfg.Environment,
		Uptime:      int64(time.Since(s.startTime).Seconds()),
		StartTime:   s.startTime,
		GoVersion:   runtime.Version(),
		GoRoutines:  runtime.NumGoroutine(),
		MemStats:    captureMemStats(),
	}
}

// overallStatus folds component states into one verdict. Any down component
// wins over degraded, degraded wins over up.
func overallStatus(components []ComponentHealth) HealthStatus {
	status := StatusUp
	for _, component := range components {
		switch component.Status {
		case StatusDown:
			return StatusDown
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

func captureMemStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
	}
}

// IsReady reports whether the system can serve traffic. Degraded components
// keep the process ready; only a down component fails readiness.
func (s *HealthService) IsReady(ctx context.Context) bool {
	return s.GetHealth(ctx).Status != StatusDown
}

// checkFileStore checks that the data directory is writable.
func (s *HealthService) checkFileStore(ctx context.Context) {
	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := s.store.Ping(pingCtx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		s.logger.Error("File store health check failed", err)
		s.setComponent("file_store", StatusDown, "Failed to write to data directory: "+err.Error(), latency)
		return
	}

	s.setComponent("file_store", StatusUp, "File store is writable", latency)
}

// checkProviders checks whether identification can serve live results.
func (s *HealthService) checkProviders() {
	registered := s.registry.ListAvailable()
	active := s.registry.CurrentProvider()

	status := StatusUp
	description := fmt.Sprintf("%d provider(s) configured, %q active", len(registered), active)

	switch {
	case len(registered) == 0:
		status = StatusDegraded
		description = "No identification provider configured; requests take the fallback path"
	case !slices.Contains(registered, active):
		status = StatusDegraded
		description = fmt.Sprintf("Active provider %q is not configured; requests take the fallback path", active)
	}

	s.setComponent("identify_providers", status, description, 0)
}

// checkWebSearch checks the optional web search integration. The component is
// only reported when the feature is switched on.
func (s *HealthService) checkWebSearch() {
	if !s.cfg.Features.EnableWebSearch {
		return
	}

	if !s.searchSvc.Enabled() {
		s.setComponent("web_search", StatusDegraded, "Web search is enabled but not configured", 0)
		return
	}

	s.setComponent("web_search", StatusUp, "Web search is available", 0)
}

func (s *HealthService) setComponent(name string, status HealthStatus, description string, latency int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.components[name] = ComponentHealth{
		Name:        name,
		Status:      status,
		Description: description,
		Latency:     latency,
		LastChecked: time.Now(),
	}
}
