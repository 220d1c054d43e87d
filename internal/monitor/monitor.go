// Package monitor polls the backend for the progress of a pending re-index.
package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"searchadmin/internal/domain"
	"searchadmin/internal/settings"
)

// DefaultInterval is the fixed polling period.
const DefaultInterval = 5 * time.Second

// Status is one observation of re-index progress.
type Status struct {
	// Active is false once the backend has no pending settings.
	Active    bool
	Pending   *domain.SearchSettings
	Jobs      []domain.ReindexJobStatus
	Err       error
	UpdatedAt time.Time
}

// Summary counts jobs by state.
type Summary struct {
	Total      int
	InProgress int
	Succeeded  int
	Failed     int
	Docs       int
}

func (s Status) Summary() Summary {
	var sum Summary
	for _, j := range s.Jobs {
		sum.Total++
		sum.Docs += j.DocsReindexed
		switch j.Status {
		case domain.JobSuccess:
			sum.Succeeded++
		case domain.JobFailed:
			sum.Failed++
		default:
			sum.InProgress++
		}
	}
	return sum
}

// Done reports whether every connector has finished, successfully or not.
func (s Summary) Done() bool { return s.Total > 0 && s.InProgress == 0 }

// Config holds the monitor's collaborators. Store is optional; when set it
// receives every secondary settings observation.
type Config struct {
	Settings domain.SettingsReader
	Progress domain.IndexingStatusReader
	Store    *settings.Store
	Interval time.Duration
	Logger   *slog.Logger
}

// Monitor polls secondary settings and per-connector indexing status until the
// pending settings clear or its context is cancelled. Each tick runs in its own
// goroutine; overlapping ticks are allowed and the last one to finish wins.
type Monitor struct {
	cfg     Config
	updates chan Status

	mu       sync.Mutex
	snap     Status
	finished bool
}

// New returns a monitor; call Run to start polling.
func New(cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Monitor{
		cfg:     cfg,
		updates: make(chan Status, 1),
		snap:    Status{Active: true},
	}
}

// Updates delivers the latest status after each tick. Unread statuses are
// replaced, never queued. The channel is closed when Run returns.
func (m *Monitor) Updates() <-chan Status { return m.updates }

// Snapshot returns the most recent status.
func (m *Monitor) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyStatus(m.snap)
}

// Run polls immediately and then every interval. It returns nil once the
// backend reports no pending settings, or ctx.Err() when cancelled. Run must
// be called at most once.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.updates)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	var once sync.Once
	var wg sync.WaitGroup
	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !m.poll(ctx) {
				once.Do(func() { close(done) })
			}
		}()
	}

	m.cfg.Logger.Debug("re-index monitor started", slog.Duration("interval", m.cfg.Interval))
	tick()
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-done:
			cancel()
			wg.Wait()
			m.cfg.Logger.Info("re-index monitor stopped: no pending settings")
			return nil
		case <-ticker.C:
			tick()
		}
	}
}

// poll runs one tick and reports whether polling should continue.
func (m *Monitor) poll(ctx context.Context) bool {
	if m.isFinished() {
		return false
	}

	pending, err := m.cfg.Settings.GetSecondarySearchSettings(ctx)
	if err != nil {
		m.fail(ctx, "fetch secondary settings", err)
		return true
	}
	if m.cfg.Store != nil {
		m.cfg.Store.Put(settings.KeySecondary, pending)
	}
	if pending == nil {
		m.finish()
		return false
	}
	if m.isFinished() {
		return false
	}

	jobs, err := m.cfg.Progress.IndexingStatus(ctx, true)
	if err != nil {
		m.fail(ctx, "fetch indexing status", err)
		return true
	}
	m.apply(pending, jobs)
	return true
}

func (m *Monitor) apply(pending *domain.SearchSettings, jobs []domain.ReindexJobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return
	}
	m.snap = Status{
		Active:    true,
		Pending:   pending,
		Jobs:      mergeJobs(jobs),
		UpdatedAt: time.Now(),
	}
	m.publishLocked()
}

func (m *Monitor) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return
	}
	m.finished = true
	m.snap = Status{Active: false, Jobs: m.snap.Jobs, UpdatedAt: time.Now()}
	if m.cfg.Store != nil {
		// The pending settings were promoted or dropped; current has changed.
		m.cfg.Store.Invalidate(settings.KeyCurrent)
	}
	m.publishLocked()
}

func (m *Monitor) fail(ctx context.Context, op string, err error) {
	if ctx.Err() != nil {
		return
	}
	m.cfg.Logger.Warn("re-index poll failed", slog.String("op", op), slog.String("error", err.Error()))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.finished {
		return
	}
	m.snap.Err = err
	m.snap.UpdatedAt = time.Now()
	m.publishLocked()
}

func (m *Monitor) isFinished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished
}

// publishLocked replaces any unread status with the current one.
func (m *Monitor) publishLocked() {
	select {
	case <-m.updates:
	default:
	}
	m.updates <- copyStatus(m.snap)
}

// mergeJobs keys statuses by connector so duplicates collapse to the last
// entry, and orders them by name for stable rendering.
func mergeJobs(jobs []domain.ReindexJobStatus) []domain.ReindexJobStatus {
	byID := make(map[int]domain.ReindexJobStatus, len(jobs))
	for _, j := range jobs {
		byID[j.ConnectorID] = j
	}
	out := make([]domain.ReindexJobStatus, 0, len(byID))
	for _, j := range byID {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].ConnectorName != out[k].ConnectorName {
			return out[i].ConnectorName < out[k].ConnectorName
		}
		return out[i].ConnectorID < out[k].ConnectorID
	})
	return out
}

func copyStatus(s Status) Status {
	s.Jobs = append([]domain.ReindexJobStatus(nil), s.Jobs...)
	if s.Pending != nil {
		p := s.Pending.Clone()
		s.Pending = &p
	}
	return s
}
