package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/cloudpe/pemarket/internal/domain"
	"github.com/cloudpe/pemarket/internal/infra/logger"
)

// InstallFunc hands a verified archive to the installer once its download
// completes.
type InstallFunc func(ctx context.Context, archivePath string, job *domain.Job) error

// Manager serializes acquire-and-install jobs: one active job at a time,
// newest queued behind it. Cancellation tears down the active job's
// context; its partial download is cleaned up by the downloader.
type Manager struct {
	mu         sync.RWMutex
	log        *logger.Logger
	downloader *Downloader
	install    InstallFunc
	sink       *ProgressSink
	stagingDir string

	queue      []*domain.Job
	activeItem *domain.Job

	newJobChan chan struct{}
}

func NewManager(log *logger.Logger, dl *Downloader, install InstallFunc, sink *ProgressSink, stagingDir string) *Manager {
	return &Manager{
		log:        log,
		downloader: dl,
		install:    install,
		sink:       sink,
		stagingDir: stagingDir,
		newJobChan: make(chan struct{}, 1),
	}
}

// Add queues a download+install job and wakes the run loop.
func (m *Manager) Add(p domain.Plugin, driveRoot string, threads int) domain.JobSnapshot {
	job := &domain.Job{
		ID:        ksuid.New().String(),
		Plugin:    p,
		DriveRoot: driveRoot,
		Threads:   threads,
		Status:    domain.StatusPending,
		DestPath:  filepath.Join(m.stagingDir, stagingName(p)),
	}

	m.mu.Lock()
	m.queue = append(m.queue, job)
	snap := snapshot(job)
	m.mu.Unlock()

	select {
	case m.newJobChan <- struct{}{}:
	default:
		// wakeup already pending
	}

	return snap
}

// snapshot copies a job's observable state. Callers must hold m.mu for
// Status and Error; the counters are atomics.
func snapshot(job *domain.Job) domain.JobSnapshot {
	return domain.JobSnapshot{
		ID:        job.ID,
		Plugin:    job.Plugin,
		DriveRoot: job.DriveRoot,
		Threads:   job.Threads,
		Status:    job.Status,
		Error:     job.Error,
		Done:      job.BytesWritten.Load(),
		Total:     job.TotalBytes.Load(),
	}
}

// stagingName keeps parallel jobs for the same plugin from clobbering each
// other while staying recognizable on disk.
func stagingName(p domain.Plugin) string {
	if p.File != "" {
		return p.File
	}
	return p.ID + ".download"
}

// Start runs the job loop until ctx is cancelled. Call from a dedicated
// goroutine.
func (m *Manager) Start(ctx context.Context) {
	if err := os.MkdirAll(m.stagingDir, 0755); err != nil {
		m.log.Error("could not create staging dir %s: %v", m.stagingDir, err)
	}

	for {
		next := m.nextPending()
		if next == nil {
			select {
			case <-m.newJobChan:
				continue
			case <-ctx.Done():
				return
			}
		}

		m.mu.Lock()
		m.activeItem = next
		jobCtx, cancel := context.WithCancel(ctx)
		next.CancelFunc = cancel
		next.Status = domain.StatusDownloading
		m.mu.Unlock()

		jobErr := m.downloader.Download(jobCtx, next)

		if jobErr == nil && jobCtx.Err() == nil {
			m.setStatus(next, domain.StatusInstalling)
			m.emit(next, domain.PhaseInstalling, nil)
			jobErr = m.install(jobCtx, next.DestPath, next)
			// the staged archive is no longer needed either way
			os.Remove(next.DestPath)
		}

		m.finalize(next, jobErr)
		cancel()
	}
}

func (m *Manager) nextPending() *domain.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, job := range m.queue {
		if job.Status == domain.StatusPending {
			return job
		}
	}
	return nil
}

func (m *Manager) setStatus(job *domain.Job, status domain.JobStatus) {
	m.mu.Lock()
	job.Status = status
	m.mu.Unlock()
}

func (m *Manager) finalize(job *domain.Job, err error) {
	m.mu.Lock()

	if err != nil {
		job.Status = domain.StatusFailed
		if errors.Is(err, context.Canceled) {
			err = domain.ErrDownloadCancelled
		}
		job.Error = err.Error()
	} else {
		job.Status = domain.StatusCompleted
		job.BytesWritten.Store(job.TotalBytes.Load())
	}

	m.activeItem = nil
	m.removeFromQueue(job.ID)
	m.mu.Unlock()

	if err != nil {
		m.emit(job, domain.PhaseError, err)
	} else {
		m.emit(job, domain.PhaseDone, nil)
	}
}

func (m *Manager) emit(job *domain.Job, phase domain.Phase, err error) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(domain.ProgressEvent{
		JobID: job.ID,
		Phase: phase,
		Done:  job.BytesWritten.Load(),
		Total: job.TotalBytes.Load(),
		Err:   domain.DescribeError(err),
	})
}

// Cancel stops a queued or active job. Returns false when the job is
// unknown or already finished.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()

	for _, job := range m.queue {
		if job.ID != id {
			continue
		}
		switch job.Status {
		case domain.StatusCompleted, domain.StatusFailed:
			m.mu.Unlock()
			return false
		case domain.StatusPending:
			// not started yet: drop it from the queue directly
			job.Status = domain.StatusFailed
			job.Error = domain.ErrDownloadCancelled.Error()
			m.removeFromQueue(job.ID)
			m.mu.Unlock()
			m.emit(job, domain.PhaseError, domain.ErrDownloadCancelled)
			return true
		}
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
		m.mu.Unlock()
		return true
	}

	m.mu.Unlock()
	return false
}

// Active reports the currently running job, if any.
func (m *Manager) Active() (domain.JobSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.activeItem == nil {
		return domain.JobSnapshot{}, false
	}
	return snapshot(m.activeItem), true
}

// Items returns a point-in-time view of the queue.
func (m *Manager) Items() []domain.JobSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.JobSnapshot, 0, len(m.queue))
	for _, job := range m.queue {
		items = append(items, snapshot(job))
	}
	return items
}

func (m *Manager) removeFromQueue(id string) {
	for i, job := range m.queue {
		if job.ID == id {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
}
