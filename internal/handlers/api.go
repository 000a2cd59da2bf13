package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/repository"
	"github.com/bensuskins/harvest-planner/internal/services"
	"github.com/go-chi/chi/v5"
)

type APIHandler struct {
	planRepo     repository.PlanRepository
	boardService *services.BoardService
}

func NewAPIHandler(planRepo repository.PlanRepository, boardService *services.BoardService) *APIHandler {
	return &APIHandler{
		planRepo:     planRepo,
		boardService: boardService,
	}
}

// planBody is a plan as clients send it: the date is a day key rather than
// an instant.
type planBody struct {
	Date string `json:"date"`
	models.Plan
}

type planPatchBody struct {
	Date *string `json:"date"`
	models.PlanPatch
}

func (handler *APIHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	calendar := handler.boardService.Calendar()
	filter := repository.PlanFilter{}

	if from := r.URL.Query().Get("from"); from != "" {
		day, err := calendar.ParseDayKey(from)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from must be YYYY-MM-DD"})
			return
		}
		filter.From = day
	}
	if to := r.URL.Query().Get("to"); to != "" {
		day, err := calendar.ParseDayKey(to)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "to must be YYYY-MM-DD"})
			return
		}
		filter.To = day.AddDate(0, 0, 1)
	}

	plans, err := handler.planRepo.FindAll(ctx, filter)
	if err != nil {
		slog.Error("listing plans", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load plans"})
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (handler *APIHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plan, err := handler.planRepo.FindByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (handler *APIHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body planBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan"})
		return
	}
	date, err := handler.boardService.Calendar().ParseDayKey(body.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	plan := body.Plan
	plan.ID = ""
	plan.Date = date

	created, err := handler.planRepo.Create(ctx, plan)
	if err != nil {
		slog.Error("creating plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plan"})
		return
	}
	handler.boardService.Invalidate()
	writeJSON(w, http.StatusCreated, created)
}

func (handler *APIHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var body planPatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan update"})
		return
	}

	patch := body.PlanPatch
	patch.Date = nil
	if body.Date != nil {
		date, err := handler.boardService.Calendar().ParseDayKey(*body.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
		patch.Date = &date
	}
	if patch.IsEmpty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to update"})
		return
	}

	if err := handler.planRepo.UpdatePartial(ctx, id, patch); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
			return
		}
		slog.Error("updating plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update plan"})
		return
	}
	handler.boardService.Invalidate()

	updated, err := handler.planRepo.FindByID(ctx, id)
	if err != nil {
		slog.Error("reloading plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load plan"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (handler *APIHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := handler.planRepo.Delete(ctx, id); err != nil {
		slog.Error("deleting plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete plan"})
		return
	}
	handler.boardService.Invalidate()

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
