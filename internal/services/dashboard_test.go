package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"projectpulse/internal/dataprocessing"
	"projectpulse/internal/sheet"
	"projectpulse/internal/shared/testutil"
	"projectpulse/internal/store"
	"projectpulse/pkg/contracts/domain"
)

var refNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

// stubSource serves a fixed table or error. When release is set, Fetch
// blocks until it is closed.
type stubSource struct {
	mu      sync.Mutex
	rows    [][]string
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return sheet.NewTable(s.rows)
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newTestService(t *testing.T, src *stubSource, opts DashboardOptions) *DashboardService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	opts.Source = src
	opts.Normalizer = dataprocessing.NewNormalizer(dataprocessing.NormalizerConfig{})
	opts.Clock = fixedClock
	opts.Logger = logger

	svc, err := NewDashboardService(opts)
	require.NoError(t, err)
	return svc
}

func TestNewDashboardService_RequiresSource(t *testing.T) {
	_, err := NewDashboardService(DashboardOptions{})
	assert.Error(t, err)

	_, err = NewDashboardService(DashboardOptions{Source: &stubSource{}})
	assert.Error(t, err)
}

func TestDashboardService_NotReady(t *testing.T) {
	svc := newTestService(t, &stubSource{rows: testutil.ProjectSheetRows()}, DashboardOptions{})

	assert.False(t, svc.Ready())

	_, err := svc.Projects(domain.ProjectFilter{})
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = svc.Summary(domain.ProjectFilter{})
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = svc.Project("0")
	assert.ErrorIs(t, err, ErrNotReady)

	_, ok := svc.LastRefresh()
	assert.False(t, ok)
}

func TestDashboardService_RefreshNow(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("RefreshCompleted", mock.AnythingOfType("domain.RefreshInfo"), domain.DashboardKPIs{
		ActiveProjects:   2,
		TotalBilling:     16000,
		CriticalProjects: 1,
	}).Once()

	snapshots := store.NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"), nil)
	svc := newTestService(t, &stubSource{rows: testutil.ProjectSheetRows()}, DashboardOptions{
		Store:    snapshots,
		Notifier: notifier,
	})

	info, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stub", info.Source)
	assert.Equal(t, 3, info.RowCount)
	assert.NotEmpty(t, info.ID)
	notifier.AssertExpectations(t)

	projects, err := svc.Projects(domain.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "Ana García", projects[0].Person)

	p, err := svc.Project("1")
	require.NoError(t, err)
	assert.Equal(t, "Beta Foods", p.Client)
	assert.True(t, p.IsCritical)

	_, err = svc.Project("42")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	last, ok := svc.LastRefresh()
	require.True(t, ok)
	assert.Equal(t, info.ID, last.ID)

	ref, ok := svc.ReferenceTime()
	require.True(t, ok)
	assert.True(t, ref.Equal(refNow))

	snap, err := snapshots.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info.ID, snap.Info.ID)
}

func TestDashboardService_SummaryAndDigestsHonorFilter(t *testing.T) {
	svc := newTestService(t, &stubSource{rows: testutil.ProjectSheetRows()}, DashboardOptions{})
	_, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)

	summary, err := svc.Summary(domain.ProjectFilter{Client: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProjectCount)
	assert.Equal(t, 12000.0, summary.KPIs.TotalBilling)
	assert.True(t, summary.GeneratedAt.Equal(refNow))

	digests, err := svc.Digests(domain.ProjectFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, digests, 1)
	assert.Equal(t, "Luis Pérez", digests[0].Person)
}

func TestDashboardService_FailedRefreshKeepsPreviousData(t *testing.T) {
	notifier := &MockNotifier{}
	notifier.On("RefreshCompleted", mock.Anything, mock.Anything).Once()
	notifier.On("RefreshFailed", mock.Anything).Once()

	src := &stubSource{rows: testutil.ProjectSheetRows()}
	svc := newTestService(t, src, DashboardOptions{Notifier: notifier})

	first, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)

	boom := errors.New("quota exceeded")
	src.fail(boom)

	_, err = svc.RefreshNow(context.Background())
	require.ErrorIs(t, err, boom)

	projects, err := svc.Projects(domain.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 3)

	last, _ := svc.LastRefresh()
	assert.Equal(t, first.ID, last.ID)

	status := svc.Status()
	assert.Equal(t, 1, status.ConsecutiveFailures)
	assert.Contains(t, status.LastError, "quota exceeded")
	require.NotNil(t, status.Last)
	notifier.AssertExpectations(t)
}

func TestDashboardService_ConcurrentRefreshesCoalesce(t *testing.T) {
	src := &stubSource{rows: testutil.ProjectSheetRows(), release: make(chan struct{})}
	svc := newTestService(t, src, DashboardOptions{})

	const callers = 5
	var started, finished sync.WaitGroup
	ids := make([]string, callers)
	for i := 0; i < callers; i++ {
		started.Add(1)
		finished.Add(1)
		go func(i int) {
			defer finished.Done()
			started.Done()
			info, err := svc.RefreshNow(context.Background())
			assert.NoError(t, err)
			ids[i] = info.ID
		}(i)
	}

	started.Wait()
	assert.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	finished.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestDashboardService_CallerCancelDoesNotAbortRefresh(t *testing.T) {
	src := &stubSource{rows: testutil.ProjectSheetRows(), release: make(chan struct{})}
	svc := newTestService(t, src, DashboardOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.RefreshNow(ctx)
		errCh <- err
	}()

	assert.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	close(src.release)
	assert.Eventually(t, svc.Ready, time.Second, 5*time.Millisecond)
}

func TestDashboardService_Restore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snapshots := store.NewFileStore(path, nil)

	svc := newTestService(t, &stubSource{}, DashboardOptions{Store: snapshots})
	assert.ErrorIs(t, svc.Restore(context.Background()), ErrNoSnapshot)

	table, err := sheet.NewTable(testutil.ProjectSheetRows())
	require.NoError(t, err)
	require.NoError(t, snapshots.Save(context.Background(), store.NewSnapshot(table, domain.RefreshInfo{
		ID:          "saved",
		Source:      "sheets",
		CompletedAt: refNow.Add(-time.Hour),
	})))

	require.NoError(t, svc.Restore(context.Background()))
	assert.True(t, svc.Ready())

	info, ok := svc.LastRefresh()
	require.True(t, ok)
	assert.Equal(t, "saved", info.ID)
	assert.True(t, info.Restored)
	assert.Equal(t, 3, info.RowCount)

	p, err := svc.Project("1")
	require.NoError(t, err)
	assert.True(t, p.IsCritical)
}

func TestDashboardService_RestoreNeverOverridesLiveData(t *testing.T) {
	snapshots := store.NewFileStore(filepath.Join(t.TempDir(), "snapshot.json"), nil)
	table, err := sheet.NewTable(testutil.ProjectSheetRows()[:2])
	require.NoError(t, err)
	require.NoError(t, snapshots.Save(context.Background(), store.NewSnapshot(table, domain.RefreshInfo{ID: "old"})))

	svc := newTestService(t, &stubSource{rows: testutil.ProjectSheetRows()}, DashboardOptions{Store: snapshots})
	live, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.Restore(context.Background()))

	info, _ := svc.LastRefresh()
	assert.Equal(t, live.ID, info.ID)
	assert.False(t, info.Restored)
}

func TestDashboardService_StartRefreshesOnInterval(t *testing.T) {
	src := &stubSource{rows: testutil.ProjectSheetRows()}
	svc := newTestService(t, src, DashboardOptions{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)
	svc.Start(ctx)

	assert.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, svc.Ready())

	cancel()
	select {
	case <-svc.Done():
	case <-time.After(time.Second):
		t.Fatal("refresh loop did not stop")
	}
}

func TestDashboardService_StartManualOnly(t *testing.T) {
	src := &stubSource{rows: testutil.ProjectSheetRows()}
	svc := newTestService(t, src, DashboardOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx)

	assert.Eventually(t, svc.Ready, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), src.calls.Load())

	cancel()
	<-svc.Done()
}
