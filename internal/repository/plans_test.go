package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/repository"
	"github.com/bensuskins/harvest-planner/internal/testutil"
)

var pacific = time.FixedZone("PDT", -7*60*60)

func localMidnight(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, pacific)
}

func createTestPlan(t *testing.T, repo *repository.SQLitePlanRepository, date time.Time, block string) models.Plan {
	t.Helper()
	created, err := repo.Create(context.Background(), models.Plan{
		Date:                date,
		PlannedQuantity:     10,
		BlockSourceDatabase: "cobblestone",
		BlockID:             block,
	})
	if err != nil {
		t.Fatalf("creating plan: %v", err)
	}
	return created
}

func TestPlanRepository_CreateAndFindByID(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	planRepo := repository.NewPlanRepository(db)
	ctx := context.Background()

	labor := int64(7)
	actual := 12.5
	created, err := planRepo.Create(ctx, models.Plan{
		Date:                localMidnight(2024, time.June, 10),
		PlannedQuantity:     40,
		ActualQuantity:      &actual,
		BlockSourceDatabase: "cobblestone",
		BlockID:             "12",
		CommodityIndex:      "3",
		LaborContractorID:   &labor,
		Notes:               "east rows first",
	})
	if err != nil {
		t.Fatalf("creating plan: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if created.Date.Location() != time.UTC || !created.Date.Equal(localMidnight(2024, time.June, 10)) {
		t.Errorf("expected created date normalized to UTC, got %s", created.Date)
	}

	found, err := planRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding plan: %v", err)
	}
	if !found.Date.Equal(localMidnight(2024, time.June, 10)) {
		t.Errorf("expected local midnight instant, got %s", found.Date)
	}
	if found.Date.Location() != time.UTC {
		t.Errorf("expected date read back in UTC, got %s", found.Date.Location())
	}
	if found.PlannedQuantity != 40 {
		t.Errorf("expected planned quantity 40, got %v", found.PlannedQuantity)
	}
	if found.ActualQuantity == nil || *found.ActualQuantity != 12.5 {
		t.Errorf("expected actual quantity 12.5, got %v", found.ActualQuantity)
	}
	if found.LaborContractorID == nil || *found.LaborContractorID != 7 {
		t.Errorf("expected labor contractor 7, got %v", found.LaborContractorID)
	}
	if found.HaulerContractorID != nil || found.PoolID != nil {
		t.Error("expected unset references to stay nil")
	}
	if found.BlockID != "12" || found.CommodityIndex != "3" || found.Notes != "east rows first" {
		t.Errorf("unexpected plan fields: %+v", found)
	}
}

func TestPlanRepository_FindAllByWeek(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	planRepo := repository.NewPlanRepository(db)
	ctx := context.Background()

	createTestPlan(t, planRepo, localMidnight(2024, time.June, 9), "before")
	createTestPlan(t, planRepo, localMidnight(2024, time.June, 10), "monday")
	createTestPlan(t, planRepo, localMidnight(2024, time.June, 16), "sunday")
	createTestPlan(t, planRepo, localMidnight(2024, time.June, 17), "after")

	plans, err := planRepo.FindAll(ctx, repository.PlanFilter{
		From: localMidnight(2024, time.June, 10),
		To:   localMidnight(2024, time.June, 17),
	})
	if err != nil {
		t.Fatalf("finding plans: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans in the week, got %d", len(plans))
	}
	if plans[0].BlockID != "monday" || plans[1].BlockID != "sunday" {
		t.Errorf("expected monday then sunday, got %s then %s", plans[0].BlockID, plans[1].BlockID)
	}

	all, err := planRepo.FindAll(ctx, repository.PlanFilter{})
	if err != nil {
		t.Fatalf("finding all plans: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 plans without a filter, got %d", len(all))
	}
}

func TestPlanRepository_CreateTruncatesToSeconds(t *testing.T) {
	planRepo := repository.NewPlanRepository(testutil.NewTestDatabase(t))
	ctx := context.Background()

	date := time.Date(2024, time.June, 10, 7, 30, 15, 999, time.FixedZone("PDT", -7*60*60))
	created, err := planRepo.Create(ctx, models.Plan{Date: date, BlockSourceDatabase: "cobblestone", BlockID: "1"})
	if err != nil {
		t.Fatalf("creating plan: %v", err)
	}

	expected := time.Date(2024, time.June, 10, 14, 30, 15, 0, time.UTC)
	if !created.Date.Equal(expected) || created.Date.Location() != time.UTC || created.Date.Nanosecond() != 0 {
		t.Errorf("expected %s, got %s", expected, created.Date)
	}

	found, err := planRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding plan: %v", err)
	}
	if !found.Date.Equal(created.Date) {
		t.Errorf("expected stored date %s to match created date %s", found.Date, created.Date)
	}
}

func TestPlanRepository_UpdatePartialDateOnly(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	planRepo := repository.NewPlanRepository(db)
	ctx := context.Background()

	created := createTestPlan(t, planRepo, localMidnight(2024, time.June, 10), "12")
	newDate := localMidnight(2024, time.June, 11)

	if err := planRepo.UpdatePartial(ctx, created.ID, models.PlanPatch{Date: &newDate}); err != nil {
		t.Fatalf("updating plan: %v", err)
	}

	found, err := planRepo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("finding plan: %v", err)
	}
	if !found.Date.Equal(newDate) {
		t.Errorf("expected date %s, got %s", newDate, found.Date)
	}
	if found.PlannedQuantity != 10 || found.BlockID != "12" {
		t.Errorf("expected other fields untouched, got %+v", found)
	}
}

func TestPlanRepository_UpdatePartialMissingPlan(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	planRepo := repository.NewPlanRepository(db)
	notes := "gone"

	err := planRepo.UpdatePartial(context.Background(), "does-not-exist", models.PlanPatch{Notes: &notes})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPlanRepository_Delete(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	planRepo := repository.NewPlanRepository(db)
	ctx := context.Background()

	created := createTestPlan(t, planRepo, localMidnight(2024, time.June, 10), "12")

	if err := planRepo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("deleting plan: %v", err)
	}
	if _, err := planRepo.FindByID(ctx, created.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows after delete, got %v", err)
	}
}
