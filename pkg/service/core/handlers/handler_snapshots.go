package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/navikt/nada-tablesync/pkg/service"
)

type SnapshotsHandler struct {
	snapshotService service.SnapshotService
}

func (h *SnapshotsHandler) ListSnapshots(ctx context.Context, _ *http.Request, _ any) ([]service.SnapshotInfo, error) {
	return h.snapshotService.ListSnapshots(ctx)
}

func (h *SnapshotsHandler) GetSnapshot(ctx context.Context, _ *http.Request, _ any) (*service.Snapshot, error) {
	return h.snapshotService.GetSnapshot(ctx, chi.URLParamFromCtx(ctx, "id"))
}

func (h *SnapshotsHandler) TakeSnapshot(ctx context.Context, _ *http.Request, _ any) (*service.SnapshotInfo, error) {
	return h.snapshotService.TakeSnapshot(ctx, chi.URLParamFromCtx(ctx, "id"), uuid.New().String())
}

func NewSnapshotsHandler(s service.SnapshotService) *SnapshotsHandler {
	return &SnapshotsHandler{snapshotService: s}
}
