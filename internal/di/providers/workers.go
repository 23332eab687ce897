package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/basegroupapp/basegroup-server/internal/config"
	"github.com/basegroupapp/basegroup-server/internal/service"
	"github.com/basegroupapp/basegroup-server/internal/watch"
)

// DataDirWatcherHandle wraps the filesystem watcher to implement do.Shutdowner.
// The watcher is nil when watching is disabled or no data dir is configured.
type DataDirWatcherHandle struct {
	Watcher *watch.Watcher
}

// Shutdown stops the watcher.
func (h *DataDirWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	return h.Watcher.Stop()
}

// ProvideDataDirWatcher starts the data directory watcher when enabled.
// Changes invalidate the file listing cache.
func ProvideDataDirWatcher(i do.Injector) (*DataDirWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if !cfg.Data.WatchDataDir || cfg.Data.DataDir == "" {
		log.Debug("Data directory watching disabled")
		return &DataDirWatcherHandle{}, nil
	}

	files := do.MustInvoke[*service.FileService](i)

	watcher, err := watch.New(cfg.Data.DataDir, files.Invalidate, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create data dir watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		// A missing or unreadable data dir should not prevent startup.
		log.Warn("Data directory watcher failed to start", "dir", cfg.Data.DataDir, "error", err)
		return &DataDirWatcherHandle{}, nil
	}

	return &DataDirWatcherHandle{Watcher: watcher}, nil
}

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// SessionCleanupJob periodically removes expired sessions and their
// dataset snapshots from the store.
type SessionCleanupJob struct {
	auth   *service.AuthService
	logger *slog.Logger
	cancel context.CancelFunc
}

// Shutdown stops the cleanup loop.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the background session cleanup loop.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SessionCleanupJob{
		auth:   authService,
		logger: log,
		cancel: cancel,
	}
	go job.run(ctx)

	return job, nil
}

func (j *SessionCleanupJob) run(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := j.auth.CleanupExpiredSessions(ctx)
			if err != nil {
				j.logger.Warn("Session cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				j.logger.Info("Expired sessions removed", "count", removed)
			}
		}
	}
}
