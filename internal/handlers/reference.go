package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bensuskins/harvest-planner/internal/ingest"
	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/repository"
	"github.com/bensuskins/harvest-planner/internal/services"
)

const maxImportBytes = 32 << 20

type ReferenceHandler struct {
	referenceRepo repository.ReferenceRepository
	references    *services.ReferenceCache
	boardService  *services.BoardService
	colors        *planner.ColorRegistry
}

func NewReferenceHandler(
	referenceRepo repository.ReferenceRepository,
	references *services.ReferenceCache,
	boardService *services.BoardService,
	colors *planner.ColorRegistry,
) *ReferenceHandler {
	return &ReferenceHandler{
		referenceRepo: referenceRepo,
		references:    references,
		boardService:  boardService,
		colors:        colors,
	}
}

func (handler *ReferenceHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := ingest.Decode(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reference payload"})
		return
	}
	data, report := ingest.Normalize(payload)

	if err := handler.referenceRepo.Import(ctx, data); err != nil {
		slog.Error("importing reference data", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to import reference data"})
		return
	}

	snapshot, err := handler.references.Refresh(ctx)
	if err != nil {
		slog.Error("refreshing reference data", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reload reference data"})
		return
	}
	handler.boardService.Invalidate()

	if report.Skipped() > 0 {
		slog.Info("skipped malformed reference records", "count", report.Skipped())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":     snapshot.Version,
		"blocks":      len(data.Blocks),
		"contractors": len(data.Contractors),
		"commodities": len(data.Commodities),
		"pools":       len(data.Pools),
		"skipped":     report,
	})
}

func (handler *ReferenceHandler) Colors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, handler.colors.Snapshot())
}
