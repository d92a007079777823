package snapshotter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/navikt/nada-tablesync/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var ErrNotLeader = fmt.Errorf("not leader")

type Leader interface {
	IsLeader(ctx context.Context) (bool, error)
}

type Snapshotter struct {
	service  service.SnapshotService
	leader   Leader
	tableIDs []string
	deadline time.Duration
	errs     *prometheus.CounterVec
	log      zerolog.Logger
}

func New(
	service service.SnapshotService,
	leader Leader,
	tableIDs []string,
	deadline time.Duration,
	errs *prometheus.CounterVec,
	log zerolog.Logger,
) *Snapshotter {
	return &Snapshotter{
		service:  service,
		leader:   leader,
		tableIDs: tableIDs,
		deadline: deadline,
		errs:     errs,
		log:      log,
	}
}

func (s *Snapshotter) Run(ctx context.Context, startupDelay, frequency time.Duration) {
	s.log.Info().Dur("update_frequency", frequency).Strs("tables", s.tableIDs).Msg("starting snapshotter")

	ticker := time.NewTicker(frequency)
	defer ticker.Stop()

	select {
	case <-ctx.Done():
		return
	case <-time.After(startupDelay):
	}

	s.log.Info().Msg("running initial snapshot")
	s.runAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			s.runAndLog(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Snapshotter) runAndLog(ctx context.Context) {
	err := s.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, ErrNotLeader) {
			s.log.Info().Msg("not leader, skipping snapshot")
			return
		}

		s.log.Error().Err(err).Msg("taking snapshots")

		return
	}

	s.log.Info().Msg("snapshots stored")
}

// RunOnce snapshots every configured table and prunes snapshots of tables no
// longer configured. A failing table does not stop the others.
func (s *Snapshotter) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	isLeader, err := s.leader.IsLeader(ctx)
	if err != nil {
		s.countError("leader")

		return fmt.Errorf("checking leader status: %w", err)
	}

	if !isLeader {
		return ErrNotLeader
	}

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()

	var failed []error

	for _, id := range s.tableIDs {
		info, err := s.service.TakeSnapshot(ctx, id, runID)
		if err != nil {
			s.countError("snapshot")
			log.Error().Err(err).Str("table", id).Msg("taking snapshot")

			failed = append(failed, fmt.Errorf("table %s: %w", id, err))

			continue
		}

		log.Debug().Str("object", info.Object).Int64("size", info.Size).Msg("snapshot written")
	}

	n, err := s.service.PruneSnapshots(ctx, s.tableIDs)
	if err != nil {
		s.countError("prune")

		failed = append(failed, fmt.Errorf("pruning snapshots: %w", err))
	}

	if n > 0 {
		log.Info().Int("deleted", n).Msg("pruned snapshots")
	}

	return errors.Join(failed...)
}

func (s *Snapshotter) countError(location string) {
	if s.errs != nil {
		s.errs.WithLabelValues("snapshotter." + location).Inc()
	}
}
