package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/repository"
)

const missingPlanTitle = "Harvest plan no longer exists"

// PlanPersister writes move results through the plan repository.
type PlanPersister struct {
	planRepo repository.PlanRepository
}

func NewPlanPersister(planRepo repository.PlanRepository) *PlanPersister {
	return &PlanPersister{planRepo: planRepo}
}

func (persister *PlanPersister) Update(ctx context.Context, planID string, patch models.PlanPatch) error {
	err := persister.planRepo.UpdatePartial(ctx, planID, patch)
	if errors.Is(err, sql.ErrNoRows) {
		return &planner.PersistError{Title: missingPlanTitle, Err: err}
	}
	return err
}

// LogNotifier reports failed moves to the structured log.
func LogNotifier() planner.Notifier {
	return planner.NotifierFunc(func(ctx context.Context, failure planner.MoveFailure) {
		request := failure.Command.Request
		slog.ErrorContext(ctx, "moving harvest plan",
			"plan_id", request.PlanID,
			"from", request.SourceDay,
			"to", request.DestDay,
			"message", failure.Message,
			"error", failure.Err,
		)
	})
}
