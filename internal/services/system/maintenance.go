// Package system holds the health, metrics and maintenance services.
package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"norelock.dev/reelid/backend/internal/db/file"
	"norelock.dev/reelid/backend/internal/db/file/repositories"
	"norelock.dev/reelid/backend/internal/utils"
)

// MaintenanceTask is a named chore with its own schedule. Fn receives a
// context that is cancelled when the task exceeds its timeout.
type MaintenanceTask struct {
	Name     string
	Interval time.Duration
	LastRun  time.Time
	Fn       func(context.Context) error
}

// MaintenanceConfig controls which chores run and how aggressively.
type MaintenanceConfig struct {
	// Enabled turns the background scheduler on or off. RunAllTasks works
	// either way.
	Enabled bool
	// UploadDir is the directory where identification uploads are stored.
	UploadDir string
	// UploadMaxAge is how long a stored upload survives before cleanup.
	UploadMaxAge time.Duration
	// HistoryMaxAge is how long history records are retained.
	HistoryMaxAge time.Duration
	// MaintenanceInterval is the schedule for the heavyweight cleanup tasks.
	MaintenanceInterval time.Duration
	// MaxConcurrentTasks bounds how many tasks may run at once.
	MaxConcurrentTasks int
	// TaskTimeout caps the runtime of a single scheduled task.
	TaskTimeout time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		Enabled:             true,
		UploadDir:           "./data/uploads",
		UploadMaxAge:        30 * 24 * time.Hour,
		HistoryMaxAge:       90 * 24 * time.Hour,
		MaintenanceInterval: 1 * time.Hour,
		MaxConcurrentTasks:  3,
		TaskTimeout:         10 * time.Minute,
	}
}

// MaintenanceService schedules and runs recurring cleanup work.
type MaintenanceService struct {
	config      MaintenanceConfig
	historyRepo repositories.HistoryRepository
	userRepo    repositories.UserRepository
	sessionMgr  *file.SessionManager
	metrics     *MetricsService
	logger      *utils.Logger

	mu     sync.Mutex
	tasks  []*MaintenanceTask
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewMaintenanceService creates a maintenance service with the standard set
// of tasks already registered.
func NewMaintenanceService(
	config MaintenanceConfig,
	historyRepo repositories.HistoryRepository,
	userRepo repositories.UserRepository,
	sessionMgr *file.SessionManager,
	metrics *MetricsService,
	logger *utils.Logger,
) *MaintenanceService {
	s := &MaintenanceService{
		config:      config,
		historyRepo: historyRepo,
		userRepo:    userRepo,
		sessionMgr:  sessionMgr,
		metrics:     metrics,
		logger:      logger.Named("maintenance_service"),
		stopCh:      make(chan struct{}),
		tasks:       make([]*MaintenanceTask, 0),
	}

	s.RegisterTask("upload_cleanup", config.MaintenanceInterval, s.CleanupUploads)
	s.RegisterTask("history_cleanup", config.MaintenanceInterval, s.CleanupHistory)
	s.RegisterTask("session_cleanup", 5*time.Minute, s.CleanupSessions)
	s.RegisterTask("metrics_refresh", 1*time.Minute, s.RefreshMetrics)

	return s
}

// RegisterTask adds a task to the schedule. The task's last-run time is
// backdated by one interval, so the next sweep picks it up right away.
func (s *MaintenanceService) RegisterTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mu.Lock()
	s.tasks = append(s.tasks, &MaintenanceTask{
		Name:     name,
		Interval: interval,
		LastRun:  time.Now().Add(-interval),
		Fn:       fn,
	})
	s.mu.Unlock()

	s.logger.Info("Registered maintenance task", "name", name, "interval", interval)
}

// Start launches the background scheduler. When maintenance is disabled no
// goroutine is spawned and Start returns immediately.
func (s *MaintenanceService) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("Maintenance service is disabled")
		return nil
	}

	s.logger.Info("Starting maintenance service")

	s.wg.Add(1)
	go s.schedule(ctx)

	return nil
}

// schedule sweeps for due tasks once a minute until stopped.
func (s *MaintenanceService) schedule(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic in maintenance service", fmt.Errorf("%v", r))
		}
	}()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runDueTasks(ctx)
		case <-s.stopCh:
			s.logger.Info("Stopping maintenance service")
			return
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping maintenance service")
			return
		}
	}
}

// Stop halts the scheduler and waits for in-flight sweeps to finish.
func (s *MaintenanceService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// markRun records a successful completion of the task.
func (s *MaintenanceService) markRun(t *MaintenanceTask) {
	s.mu.Lock()
	t.LastRun = time.Now()
	s.mu.Unlock()
}

// runBatch executes the given tasks in parallel, bounded by
// MaxConcurrentTasks, and blocks until the whole batch is done.
func (s *MaintenanceService) runBatch(batch []*MaintenanceTask, run func(*MaintenanceTask)) {
	var wg sync.WaitGroup
	slots := make(chan struct{}, s.config.MaxConcurrentTasks)

	for _, task := range batch {
		wg.Add(1)
		go func(t *MaintenanceTask) {
			defer wg.Done()
			slots <- struct{}{}
			defer func() { <-slots }()

			run(t)
		}(task)
	}

	wg.Wait()
}

// RunAllTasks runs every registered task immediately, ignoring schedules.
// Failures are collected rather than aborting the batch.
func (s *MaintenanceService) RunAllTasks(ctx context.Context) error {
	s.logger.Info("Running all maintenance tasks")

	s.mu.Lock()
	batch := make([]*MaintenanceTask, len(s.tasks))
	copy(batch, s.tasks)
	s.mu.Unlock()

	errCh := make(chan error, len(batch))
	s.runBatch(batch, func(t *MaintenanceTask) {
		s.logger.Info("Running maintenance task", "name", t.Name)

		err := t.Fn(ctx)
		s.metrics.ObserveMaintenanceTask(t.Name, err)
		if err != nil {
			s.logger.Error("Failed to run maintenance task", err, "name", t.Name)
			errCh <- fmt.Errorf("task %s failed: %w", t.Name, err)
			return
		}

		s.markRun(t)
		s.logger.Info("Completed maintenance task", "name", t.Name)
	})
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("some maintenance tasks failed: %v", errs)
	}

	return nil
}

// runDueTasks runs every task whose interval has elapsed since its last
// successful run. A failed or panicking task keeps its old LastRun, so it is
// retried on the next sweep.
func (s *MaintenanceService) runDueTasks(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	var due []*MaintenanceTask
	for _, task := range s.tasks {
		if now.Sub(task.LastRun) >= task.Interval {
			due = append(due, task)
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	s.logger.Debug("Running due maintenance tasks", "count", len(due))

	s.runBatch(due, func(t *MaintenanceTask) {
		taskCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic in task %s: %v", t.Name, r)
				s.logger.Error("Task panic recovered", err, "name", t.Name)
				s.metrics.ObserveMaintenanceTask(t.Name, err)
			}
		}()

		err := t.Fn(taskCtx)
		s.metrics.ObserveMaintenanceTask(t.Name, err)
		if err != nil {
			s.logger.Error("Task failed", err, "name", t.Name)
			return
		}

		s.markRun(t)
	})
}

// CleanupUploads removes stored uploads older than the configured max age.
// A file that cannot be removed is logged and skipped.
func (s *MaintenanceService) CleanupUploads(ctx context.Context) error {
	s.logger.Info("Cleaning up stored uploads", "dir", s.config.UploadDir, "maxAge", s.config.UploadMaxAge)

	cutoff := time.Now().Add(-s.config.UploadMaxAge)
	deleted := 0

	err := filepath.Walk(s.config.UploadDir, func(path string, info os.FileInfo, err error) error {
		switch {
		case err != nil:
			return err
		case info.IsDir():
			return nil
		case info.ModTime().Before(cutoff):
			if err := os.Remove(path); err != nil {
				s.logger.Error("Failed to delete stored upload", err, "path", path)
				return nil
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cleanup stored uploads: %w", err)
	}

	s.logger.Info("Upload cleanup completed", "deletedCount", deleted)
	return nil
}

// CleanupHistory drops history entries past the configured retention age.
func (s *MaintenanceService) CleanupHistory(ctx context.Context) error {
	s.logger.Info("Cleaning up history records", "maxAge", s.config.HistoryMaxAge)

	cutoff := time.Now().Add(-s.config.HistoryMaxAge)
	deleted, err := s.historyRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup history: %w", err)
	}

	s.logger.Info("History cleanup completed", "deletedCount", deleted)
	return nil
}

// CleanupSessions removes expired sessions from the session store.
func (s *MaintenanceService) CleanupSessions(ctx context.Context) error {
	removed, err := s.sessionMgr.CleanupExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}

	if removed > 0 {
		s.logger.Info("Session cleanup completed", "removedCount", removed)
	}
	return nil
}

// RefreshMetrics updates the gauges that reflect current system state. Repo
// errors are logged but do not fail the task.
func (s *MaintenanceService) RefreshMetrics(ctx context.Context) error {
	if users, err := s.userRepo.CountUsers(ctx); err != nil {
		s.logger.Error("Failed to count users for metrics", err)
	} else {
		s.metrics.SetUsersTotal(users)
	}

	if sessions, err := s.sessionMgr.GetActiveSessions(ctx); err != nil {
		s.logger.Error("Failed to count sessions for metrics", err)
	} else {
		s.metrics.SetSessionsActive(sessions)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	s.metrics.SetSystemMemoryUsage(memStats.Alloc)
	s.metrics.SetSystemGoroutines(runtime.NumGoroutine())

	return nil
}
