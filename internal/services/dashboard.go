package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"projectpulse/internal/dataprocessing"
	"projectpulse/internal/infrastructure"
	"projectpulse/internal/sheet"
	"projectpulse/internal/source"
	"projectpulse/internal/store"
	"projectpulse/pkg/contracts/domain"
)

// Notifier is told about every refresh outcome.
type Notifier interface {
	RefreshCompleted(info domain.RefreshInfo, kpis domain.DashboardKPIs)
	RefreshFailed(err error)
}

// State is one complete, immutable refresh result.
type State struct {
	Info     domain.RefreshInfo
	Now      time.Time
	Table    *sheet.Table
	Projects []domain.Project
}

// Refresh fetches the sheet and normalizes every row against now. It returns
// either a complete State or an error.
func Refresh(ctx context.Context, src source.Source, n *dataprocessing.Normalizer, now time.Time) (*State, error) {
	table, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return newState(table, n, now, domain.RefreshInfo{
		ID:        uuid.New().String(),
		Source:    src.Name(),
		StartedAt: now,
	}), nil
}

func newState(table *sheet.Table, n *dataprocessing.Normalizer, now time.Time, info domain.RefreshInfo) *State {
	projects := n.NormalizeAll(table, now)
	info.RowCount = len(projects)
	if info.CompletedAt.IsZero() {
		info.CompletedAt = now
	}
	return &State{
		Info:     info,
		Now:      now,
		Table:    table,
		Projects: projects,
	}
}

// RefreshStatus reports the last success and the last failure.
type RefreshStatus struct {
	Last                *domain.RefreshInfo `json:"last,omitempty"`
	LastError           string              `json:"last_error,omitempty"`
	LastErrorAt         *time.Time          `json:"last_error_at,omitempty"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	Interval            string              `json:"interval"`
}

// DashboardOptions configures a DashboardService. Source and Normalizer are
// required.
type DashboardOptions struct {
	Source     source.Source
	Normalizer *dataprocessing.Normalizer
	Store      store.SnapshotStore
	Notifier   Notifier
	Metrics    *infrastructure.BusinessMetrics
	// Interval between automatic refreshes. Zero disables the timer.
	Interval time.Duration
	Clock    func() time.Time
	Logger   *slog.Logger
}

// DashboardService holds the current project set and keeps it fresh.
type DashboardService struct {
	source     source.Source
	normalizer *dataprocessing.Normalizer
	store      store.SnapshotStore
	notifier   Notifier
	metrics    *infrastructure.BusinessMetrics
	interval   time.Duration
	clock      func() time.Time
	logger     *slog.Logger

	state atomic.Pointer[State]
	group singleflight.Group

	mu          sync.Mutex
	lastErr     error
	lastErrAt   time.Time
	failures    int
	done        chan struct{}
	startedOnce sync.Once
}

// NewDashboardService validates opts and fills defaults.
func NewDashboardService(opts DashboardOptions) (*DashboardService, error) {
	if opts.Source == nil {
		return nil, errors.New("dashboard service requires a source")
	}
	if opts.Normalizer == nil {
		return nil, errors.New("dashboard service requires a normalizer")
	}
	if opts.Store == nil {
		opts.Store = store.NopStore{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &DashboardService{
		source:     opts.Source,
		normalizer: opts.Normalizer,
		store:      opts.Store,
		notifier:   opts.Notifier,
		metrics:    opts.Metrics,
		interval:   opts.Interval,
		clock:      opts.Clock,
		logger:     opts.Logger.With(slog.String("component", "dashboard_service")),
		done:       make(chan struct{}),
	}, nil
}

// Start restores the last snapshot, then refreshes in the background once
// immediately and every interval until ctx is cancelled. Only the first call
// has an effect.
func (s *DashboardService) Start(ctx context.Context) {
	s.startedOnce.Do(func() {
		if err := s.Restore(ctx); err != nil && !errors.Is(err, ErrNoSnapshot) {
			s.logger.WarnContext(ctx, "snapshot restore failed", slog.String("error", err.Error()))
		}
		go s.loop(ctx)
	})
}

// Done is closed when the refresh loop has exited.
func (s *DashboardService) Done() <-chan struct{} {
	return s.done
}

func (s *DashboardService) loop(ctx context.Context) {
	defer close(s.done)

	_, _ = s.RefreshNow(ctx)

	if s.interval <= 0 {
		s.logger.InfoContext(ctx, "automatic refresh disabled")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.RefreshNow(ctx)
		case <-ctx.Done():
			s.logger.Debug("refresh loop stopped")
			return
		}
	}
}

// RefreshNow runs a refresh, or joins the one already in flight. The shared
// refresh is not cancelled when an individual caller goes away.
func (s *DashboardService) RefreshNow(ctx context.Context) (domain.RefreshInfo, error) {
	if err := ctx.Err(); err != nil {
		return domain.RefreshInfo{}, err
	}

	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.RefreshInfo{}, res.Err
		}
		return res.Val.(domain.RefreshInfo), nil
	case <-ctx.Done():
		return domain.RefreshInfo{}, ctx.Err()
	}
}

func (s *DashboardService) refresh(ctx context.Context) (domain.RefreshInfo, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	started := time.Now()
	now := s.clock()

	st, err := Refresh(ctx, s.source, s.normalizer, now)
	if err != nil {
		s.recordFailure(ctx, err, time.Since(started))
		return domain.RefreshInfo{}, fmt.Errorf("refresh from %s: %w", s.source.Name(), err)
	}

	st.Info.CompletedAt = now.Add(time.Since(started))
	s.state.Store(st)

	kpis := dataprocessing.KPIs(st.Projects)
	s.mu.Lock()
	s.lastErr = nil
	s.failures = 0
	s.mu.Unlock()

	s.metrics.RecordRefresh(ctx, s.source.Name(), time.Since(started), len(st.Projects), kpis.CriticalProjects, nil)
	s.logger.InfoContext(ctx, "refresh completed",
		slog.String("refresh_id", st.Info.ID),
		slog.Int("projects", len(st.Projects)),
		slog.Int("critical", kpis.CriticalProjects),
		slog.Duration("elapsed", time.Since(started)))

	if err := s.store.Save(ctx, store.NewSnapshot(st.Table, st.Info)); err != nil {
		s.logger.WarnContext(ctx, "snapshot save failed",
			slog.String("store", s.store.Name()),
			slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.SnapshotFailures.Add(ctx, 1)
		}
	}

	if s.notifier != nil {
		s.notifier.RefreshCompleted(st.Info, kpis)
	}
	return st.Info, nil
}

func (s *DashboardService) recordFailure(ctx context.Context, err error, elapsed time.Duration) {
	s.mu.Lock()
	s.lastErr = err
	s.lastErrAt = s.clock()
	s.failures++
	failures := s.failures
	s.mu.Unlock()

	s.metrics.RecordRefresh(ctx, s.source.Name(), elapsed, 0, 0, err)
	infrastructure.RecordError(ctx, err)
	s.logger.WarnContext(ctx, "refresh failed, keeping previous data",
		slog.String("error", err.Error()),
		slog.Int("consecutive_failures", failures),
		slog.Bool("has_data", s.state.Load() != nil))

	if s.notifier != nil {
		s.notifier.RefreshFailed(err)
	}
}

// Restore loads the last snapshot and normalizes it against the current
// time. It never replaces data from a live refresh.
func (s *DashboardService) Restore(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return ErrNoSnapshot
	}
	if err != nil {
		return err
	}

	table, err := snap.Table()
	if err != nil {
		return err
	}

	info := snap.Info
	info.Restored = true
	st := newState(table, s.normalizer, s.clock(), info)

	if !s.state.CompareAndSwap(nil, st) {
		return nil
	}
	s.logger.InfoContext(ctx, "restored snapshot",
		slog.String("store", s.store.Name()),
		slog.String("refresh_id", info.ID),
		slog.Time("fetched_at", info.CompletedAt),
		slog.Int("projects", len(st.Projects)))
	return nil
}

func (s *DashboardService) current() (*State, error) {
	st := s.state.Load()
	if st == nil {
		return nil, ErrNotReady
	}
	return st, nil
}

// Ready reports whether any data is loaded.
func (s *DashboardService) Ready() bool {
	return s.state.Load() != nil
}

// Projects returns the projects matching f in sheet order.
func (s *DashboardService) Projects(f domain.ProjectFilter) ([]domain.Project, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.Filter(st.Projects, f), nil
}

// Project looks a project up by id.
func (s *DashboardService) Project(id string) (domain.Project, error) {
	st, err := s.current()
	if err != nil {
		return domain.Project{}, err
	}
	p, ok := dataprocessing.FindByID(st.Projects, id)
	if !ok {
		return domain.Project{}, ErrProjectNotFound
	}
	return p, nil
}

// Summary computes every aggregate over the projects matching f.
func (s *DashboardService) Summary(f domain.ProjectFilter) (domain.DashboardSummary, error) {
	st, err := s.current()
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return dataprocessing.Summarize(dataprocessing.Filter(st.Projects, f), st.Now), nil
}

// Digests groups the projects matching f by assigned person.
func (s *DashboardService) Digests(f domain.ProjectFilter) ([]domain.PersonDigest, error) {
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	return dataprocessing.PersonDigests(dataprocessing.Filter(st.Projects, f)), nil
}

// ReferenceTime is the "now" the current data was normalized against.
func (s *DashboardService) ReferenceTime() (time.Time, bool) {
	st := s.state.Load()
	if st == nil {
		return time.Time{}, false
	}
	return st.Now, true
}

// LastRefresh returns the refresh that produced the current data.
func (s *DashboardService) LastRefresh() (domain.RefreshInfo, bool) {
	st := s.state.Load()
	if st == nil {
		return domain.RefreshInfo{}, false
	}
	return st.Info, true
}

// Status reports the last refresh outcome.
func (s *DashboardService) Status() RefreshStatus {
	status := RefreshStatus{Interval: s.interval.String()}
	if info, ok := s.LastRefresh(); ok {
		status.Last = &info
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		at := s.lastErrAt
		status.LastError = s.lastErr.Error()
		status.LastErrorAt = &at
	}
	status.ConsecutiveFailures = s.failures
	return status
}
