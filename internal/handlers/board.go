package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/services"
)

type BoardHandler struct {
	boardService *services.BoardService
}

func NewBoardHandler(boardService *services.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

type moveBody struct {
	WeekStart string `json:"week_start"`
	planner.MoveRequest
}

func (handler *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	weekStart, err := handler.boardService.WeekStart(r.URL.Query().Get("week_start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week_start must be YYYY-MM-DD"})
		return
	}

	view, err := handler.boardService.Board(ctx, weekStart)
	if err != nil {
		slog.Error("loading board", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load board"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Move applies a drag and waits for it to be persisted. If the client goes
// away first, the optimistic board is returned marked pending.
func (handler *BoardHandler) Move(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body moveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid move"})
		return
	}
	weekStart, err := handler.boardService.WeekStart(body.WeekStart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week_start must be YYYY-MM-DD"})
		return
	}

	command, board, err := handler.boardService.Move(ctx, weekStart, body.MoveRequest)
	switch {
	case errors.Is(err, planner.ErrStaleMove), errors.Is(err, planner.ErrMoveInFlight):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
			"board": handler.boardService.View(board),
		})
		return
	case err != nil:
		slog.Error("moving plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to move plan"})
		return
	}

	select {
	case <-command.Done():
	case <-ctx.Done():
		view := handler.boardService.View(board)
		view.Pending = true
		writeJSON(w, http.StatusAccepted, view)
		return
	}

	if command.State() == planner.MoveStateRolledBack {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error": command.Message(),
			"board": handler.boardService.View(board),
		})
		return
	}
	writeJSON(w, http.StatusOK, handler.boardService.View(board))
}
