package snapshotter_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/navikt/nada-tablesync/pkg/syncers/snapshotter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaderMock struct {
	leader bool
	err    error
}

func (l *leaderMock) IsLeader(_ context.Context) (bool, error) {
	return l.leader, l.err
}

type snapshotServiceMock struct {
	service.SnapshotService

	mu     sync.Mutex
	fail   map[string]error
	taken  []string
	runIDs map[string]bool
	kept   []string
}

func (m *snapshotServiceMock) TakeSnapshot(_ context.Context, tableID, runID string) (*service.SnapshotInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runIDs == nil {
		m.runIDs = map[string]bool{}
	}

	m.runIDs[runID] = true

	if err := m.fail[tableID]; err != nil {
		return nil, err
	}

	m.taken = append(m.taken, tableID)

	return &service.SnapshotInfo{TableID: tableID, Object: "snapshots/" + tableID + ".json"}, nil
}

func (m *snapshotServiceMock) PruneSnapshots(_ context.Context, keep []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.kept = keep

	return 1, nil
}

func (m *snapshotServiceMock) Taken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.taken)
}

func newErrs() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tablesync",
		Name:      "errors",
	}, []string{"location"})
}

func TestSnapshotter_RunOnce(t *testing.T) {
	testCases := []struct {
		name      string
		leader    *leaderMock
		fail      map[string]error
		expectErr error
		errText   string
		taken     []string
		errCount  float64
	}{
		{
			name:   "snapshots all tables",
			leader: &leaderMock{leader: true},
			taken:  []string{"tasks", "budget"},
		},
		{
			name:      "not leader",
			leader:    &leaderMock{leader: false},
			expectErr: snapshotter.ErrNotLeader,
		},
		{
			name:     "one table failing",
			leader:   &leaderMock{leader: true},
			fail:     map[string]error{"tasks": errors.New("table gone")},
			errText:  "table tasks: table gone",
			taken:    []string{"budget"},
			errCount: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &snapshotServiceMock{fail: tc.fail}
			errs := newErrs()

			s := snapshotter.New(m, tc.leader, []string{"tasks", "budget"}, time.Minute, errs, zerolog.Nop())

			err := s.RunOnce(context.Background())

			switch {
			case tc.expectErr != nil:
				require.ErrorIs(t, err, tc.expectErr)
			case tc.errText != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errText)
			default:
				require.NoError(t, err)
			}

			assert.Equal(t, tc.taken, m.Taken())
			assert.Equal(t, tc.errCount, testutil.ToFloat64(errs.WithLabelValues("snapshotter.snapshot")))

			if tc.expectErr == nil {
				assert.Len(t, m.runIDs, 1)
				assert.Equal(t, []string{"tasks", "budget"}, m.kept)
			}
		})
	}
}

func TestSnapshotter_Run(t *testing.T) {
	m := &snapshotServiceMock{}

	s := snapshotter.New(m, &leaderMock{leader: true}, []string{"tasks"}, time.Minute, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx, 0, 50*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(m.Taken()) >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
