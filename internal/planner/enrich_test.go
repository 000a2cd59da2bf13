package planner_test

import (
	"testing"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/planner"
)

func TestEnrich_ResolvesAllReferences(t *testing.T) {
	source := plan(t, "p1", "2024-06-10", "1", 10)
	source.LaborContractorID = int64Ptr(7)
	source.ForkliftContractorID = int64Ptr(8)
	source.HaulerContractorID = int64Ptr(9)
	source.PoolID = int64Ptr(4)

	enriched := planner.Enrich(source, testIndex())

	expected := planner.Card{
		BlockName:          "A",
		GrowerName:         "Hillside Farms",
		CommodityName:      "Gala",
		LaborContractor:    "Valley Picking",
		ForkliftContractor: "Lift Co",
		HaulerContractor:   "Roadrunner Hauling",
		PoolName:           "Organic Pool",
	}
	if enriched.Card != expected {
		t.Errorf("expected card %+v, got %+v", expected, enriched.Card)
	}
	if enriched.Block == nil || enriched.HaulerContractor == nil || enriched.Pool == nil {
		t.Error("expected resolved reference records")
	}
}

func TestEnrich_UnknownReferencesFallBack(t *testing.T) {
	source := models.Plan{
		ID:                  "p1",
		BlockSourceDatabase: "cobblestone",
		BlockID:             "999",
		LaborContractorID:   int64Ptr(123),
	}

	enriched := planner.Enrich(source, testIndex())

	if enriched.Card.BlockName != "999" {
		t.Errorf("expected raw block id as name, got '%s'", enriched.Card.BlockName)
	}
	if enriched.Card.GrowerName != "" || enriched.Card.CommodityName != "" {
		t.Errorf("expected empty grower and commodity, got %+v", enriched.Card)
	}
	if enriched.Block != nil || enriched.LaborContractor != nil {
		t.Error("expected unresolved references to be nil")
	}
}

func TestEnrich_CommodityFromPlanWhenBlockUnknown(t *testing.T) {
	source := models.Plan{ID: "p1", BlockSourceDatabase: "cobblestone", BlockID: "999", CommodityIndex: "30"}

	enriched := planner.Enrich(source, testIndex())

	if enriched.Card.CommodityName != "Fuji" {
		t.Errorf("expected plan commodity 'Fuji', got '%s'", enriched.Card.CommodityName)
	}
}

func TestEnrich_BlockCommodityTakesPrecedence(t *testing.T) {
	source := plan(t, "p1", "2024-06-10", "2", 5)
	source.CommodityIndex = "30"

	enriched := planner.Enrich(source, testIndex())

	if enriched.Card.CommodityName != "Honeycrisp" {
		t.Errorf("expected block commodity 'Honeycrisp', got '%s'", enriched.Card.CommodityName)
	}
}

func TestEnrich_DoesNotMutateInput(t *testing.T) {
	source := plan(t, "p1", "2024-06-10", "1", 10)
	before := source

	enriched := planner.Enrich(source, testIndex())
	enriched.Plan.Notes = "changed"

	if source != before {
		t.Error("expected input plan to be unchanged")
	}
}
