package planner_test

import (
	"testing"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/planner"
)

var utcCalendar = planner.NewCalendar(time.UTC)

func day(t *testing.T, key string) time.Time {
	t.Helper()
	parsed, err := utcCalendar.ParseDayKey(key)
	if err != nil {
		t.Fatalf("parsing day %s: %v", key, err)
	}
	return parsed
}

func int64Ptr(value int64) *int64 {
	return &value
}

func testReference() models.ReferenceData {
	return models.ReferenceData{
		Blocks: []models.Block{
			{Key: models.BlockKey{Source: "cobblestone", Index: "1"}, Name: "A", GrowerName: "Hillside Farms", CommodityIndex: "10"},
			{Key: models.BlockKey{Source: "cobblestone", Index: "2"}, Name: "B", GrowerName: "River Ranch", CommodityIndex: "20"},
			{Key: models.BlockKey{Source: "cobblestone", Index: "3"}, Name: "C", GrowerName: "Hillside Farms", CommodityIndex: "10"},
		},
		Contractors: []models.Contractor{
			{ID: 7, Name: "Valley Picking", ProvidesPicking: true},
			{ID: 8, Name: "Lift Co", ProvidesForklift: true},
			{ID: 9, Name: "Roadrunner Hauling", ProvidesHauling: true},
		},
		Commodities: []models.Commodity{
			{Index: "10", Name: "Gala", SourceDatabase: "cobblestone"},
			{Index: "20", Name: "Honeycrisp", SourceDatabase: "cobblestone"},
			{Index: "30", Name: "Fuji"},
		},
		Pools: []models.Pool{
			{ID: 4, Name: "Organic Pool"},
		},
	}
}

func testIndex() *planner.ReferenceIndex {
	return planner.BuildIndex(testReference(), planner.IndexOptions{DefaultSource: "cobblestone"})
}

func plan(t *testing.T, id, date, block string, quantity float64) models.Plan {
	t.Helper()
	return models.Plan{
		ID:                  id,
		Date:                day(t, date),
		PlannedQuantity:     quantity,
		BlockSourceDatabase: "cobblestone",
		BlockID:             block,
	}
}

func planIDs(bucket []planner.EnrichedPlan) []string {
	ids := make([]string, 0, len(bucket))
	for _, entry := range bucket {
		ids = append(ids, entry.Plan.ID)
	}
	return ids
}
