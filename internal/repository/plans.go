package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/google/uuid"
)

// PlanFilter bounds plans by date. From is inclusive, To is exclusive; zero
// values leave that side open.
type PlanFilter struct {
	From time.Time
	To   time.Time
}

type PlanRepository interface {
	FindByID(ctx context.Context, id string) (models.Plan, error)
	FindAll(ctx context.Context, filter PlanFilter) ([]models.Plan, error)
	Create(ctx context.Context, plan models.Plan) (models.Plan, error)
	UpdatePartial(ctx context.Context, id string, patch models.PlanPatch) error
	Delete(ctx context.Context, id string) error
}

type SQLitePlanRepository struct {
	database *sql.DB
}

func NewPlanRepository(database *sql.DB) *SQLitePlanRepository {
	return &SQLitePlanRepository{database: database}
}

const planColumns = `id, date, planned_quantity, actual_quantity, block_source_database, block_id,
	commodity_index, labor_contractor_id, forklift_contractor_id, hauler_contractor_id,
	pool_id, notes, created_at, updated_at`

// formatInstant is the stored form of a plan date: a UTC RFC 3339 instant.
// Fixed width, so string comparison orders by time.
func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row rowScanner) (models.Plan, error) {
	var plan models.Plan
	var date string
	if err := row.Scan(
		&plan.ID, &date, &plan.PlannedQuantity, &plan.ActualQuantity,
		&plan.BlockSourceDatabase, &plan.BlockID, &plan.CommodityIndex,
		&plan.LaborContractorID, &plan.ForkliftContractorID, &plan.HaulerContractorID,
		&plan.PoolID, &plan.Notes, &plan.CreatedAt, &plan.UpdatedAt,
	); err != nil {
		return models.Plan{}, err
	}

	parsed, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return models.Plan{}, fmt.Errorf("parsing plan date %q: %w", date, err)
	}
	plan.Date = parsed
	return plan, nil
}

func (repository *SQLitePlanRepository) FindByID(ctx context.Context, id string) (models.Plan, error) {
	row := repository.database.QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM harvest_plans WHERE id = ?", id,
	)
	plan, err := scanPlan(row)
	if err != nil {
		return models.Plan{}, fmt.Errorf("finding plan by id: %w", err)
	}
	return plan, nil
}

func (repository *SQLitePlanRepository) FindAll(ctx context.Context, filter PlanFilter) ([]models.Plan, error) {
	query := "SELECT " + planColumns + " FROM harvest_plans WHERE 1=1"

	var args []interface{}

	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, formatInstant(filter.From))
	}
	if !filter.To.IsZero() {
		query += " AND date < ?"
		args = append(args, formatInstant(filter.To))
	}

	query += " ORDER BY date ASC, created_at ASC"

	rows, err := repository.database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (repository *SQLitePlanRepository) Create(ctx context.Context, plan models.Plan) (models.Plan, error) {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	_, err := repository.database.ExecContext(ctx,
		`INSERT INTO harvest_plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, formatInstant(plan.Date), plan.PlannedQuantity, plan.ActualQuantity,
		plan.BlockSourceDatabase, plan.BlockID, plan.CommodityIndex,
		plan.LaborContractorID, plan.ForkliftContractorID, plan.HaulerContractorID,
		plan.PoolID, plan.Notes, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return models.Plan{}, fmt.Errorf("creating plan: %w", err)
	}

	plan.Date = plan.Date.UTC().Truncate(time.Second)
	return plan, nil
}

// UpdatePartial writes only the non-nil fields of patch. A missing plan is
// reported as sql.ErrNoRows.
func (repository *SQLitePlanRepository) UpdatePartial(ctx context.Context, id string, patch models.PlanPatch) error {
	var assignments []string
	var args []interface{}

	set := func(column string, value interface{}) {
		assignments = append(assignments, column+" = ?")
		args = append(args, value)
	}

	if patch.Date != nil {
		set("date", formatInstant(*patch.Date))
	}
	if patch.PlannedQuantity != nil {
		set("planned_quantity", *patch.PlannedQuantity)
	}
	if patch.ActualQuantity != nil {
		set("actual_quantity", *patch.ActualQuantity)
	}
	if patch.LaborContractorID != nil {
		set("labor_contractor_id", *patch.LaborContractorID)
	}
	if patch.ForkliftContractorID != nil {
		set("forklift_contractor_id", *patch.ForkliftContractorID)
	}
	if patch.HaulerContractorID != nil {
		set("hauler_contractor_id", *patch.HaulerContractorID)
	}
	if patch.PoolID != nil {
		set("pool_id", *patch.PoolID)
	}
	if patch.Notes != nil {
		set("notes", *patch.Notes)
	}
	set("updated_at", time.Now())

	args = append(args, id)
	result, err := repository.database.ExecContext(ctx,
		"UPDATE harvest_plans SET "+strings.Join(assignments, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating plan: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated plan: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updating plan %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

func (repository *SQLitePlanRepository) Delete(ctx context.Context, id string) error {
	_, err := repository.database.ExecContext(ctx, "DELETE FROM harvest_plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}
	return nil
}
