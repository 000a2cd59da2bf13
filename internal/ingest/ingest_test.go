package ingest_test

import (
	"strings"
	"testing"

	"github.com/bensuskins/harvest-planner/internal/ingest"
	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/google/go-cmp/cmp"
)

const mixedPayload = `{
	"BLOCKS": [
		{"SOURCE_DATABASE": "cobblestone", "GABLOCKIDX": 12.0, "NAME": " North 12 ", "GROWER_NAME": "Hillside Farms", "CMTYIDX": 3},
		{"source_database": "legacy", "block_index": "7", "name": "South 7"},
		{"source_database": "", "block_index": "9", "name": "Orphan"}
	],
	"contractors": [
		{"ID": "42", "NAME": "Valley Picking", "PROVIDES_PICKING": "Y", "PROVIDES_HAULING": "N"},
		{"id": 8, "name": "Lift Co", "provides_forklift": true},
		{"id": "n/a", "name": "Broken"},
		{"id": 0, "name": "Zero"}
	],
	"Commodities": [
		{"CMTYIDX": 3, "INVOICE_COMMODITY": "Gala", "SOURCE_DATABASE": "cobblestone"},
		{"index": "", "name": "Nameless"}
	],
	"pools": [
		{"POOLIDX": 4, "DESCRIPTION": "Organic Pool"}
	],
	"ignored": []
}`

func TestNormalize_MixedCaseExport(t *testing.T) {
	payload, err := ingest.Decode(strings.NewReader(mixedPayload))
	if err != nil {
		t.Fatalf("decoding payload: %v", err)
	}

	data, report := ingest.Normalize(payload)

	expectedBlocks := []models.Block{
		{Key: models.BlockKey{Source: "cobblestone", Index: "12"}, Name: "North 12", GrowerName: "Hillside Farms", CommodityIndex: "3"},
		{Key: models.BlockKey{Source: "legacy", Index: "7"}, Name: "South 7"},
	}
	if diff := cmp.Diff(expectedBlocks, data.Blocks); diff != "" {
		t.Errorf("unexpected blocks (-want +got):\n%s", diff)
	}

	expectedContractors := []models.Contractor{
		{ID: 42, Name: "Valley Picking", ProvidesPicking: true},
		{ID: 8, Name: "Lift Co", ProvidesForklift: true},
	}
	if diff := cmp.Diff(expectedContractors, data.Contractors); diff != "" {
		t.Errorf("unexpected contractors (-want +got):\n%s", diff)
	}

	expectedCommodities := []models.Commodity{{Index: "3", Name: "Gala", SourceDatabase: "cobblestone"}}
	if diff := cmp.Diff(expectedCommodities, data.Commodities); diff != "" {
		t.Errorf("unexpected commodities (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]models.Pool{{ID: 4, Name: "Organic Pool"}}, data.Pools); diff != "" {
		t.Errorf("unexpected pools (-want +got):\n%s", diff)
	}

	expectedReport := ingest.Report{SkippedBlocks: 1, SkippedContractors: 2, SkippedCommodities: 1}
	if report != expectedReport {
		t.Errorf("expected report %+v, got %+v", expectedReport, report)
	}
	if report.Skipped() != 4 {
		t.Errorf("expected 4 skipped records, got %d", report.Skipped())
	}
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	if _, err := ingest.Decode(strings.NewReader(`{"blocks": [`)); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestRecord_ID(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int64
		wantOK bool
	}{
		{"float", 12.0, 12, true},
		{"string", " 15 ", 15, true},
		{"integer", int64(3), 3, true},
		{"negative", -1.0, 0, false},
		{"text", "abc", 0, false},
		{"null", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ingest.Record{"ID": tt.value}.ID("id")
			if id != tt.want || ok != tt.wantOK {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.wantOK, id, ok)
			}
		})
	}
}

func TestRecord_AliasOrder(t *testing.T) {
	record := ingest.Record{"block_name": "Second", "NAME": "First"}

	if name := record.String("name", "block_name"); name != "First" {
		t.Errorf("expected first alias to win, got '%s'", name)
	}
	if name := record.String("missing"); name != "" {
		t.Errorf("expected empty string for missing key, got '%s'", name)
	}
}

func TestRecord_CaseCollisions(t *testing.T) {
	record := ingest.Record{"Name": "Title", "NAME": "Upper", "name": "Exact"}
	if name := record.String("name"); name != "Exact" {
		t.Errorf("expected exact key to win, got '%s'", name)
	}

	for i := 0; i < 20; i++ {
		folded := ingest.Record{"Name": "Title", "NAME": "Upper"}
		if name := folded.String("name"); name != "Upper" {
			t.Fatalf("expected first key in sorted order to win, got '%s'", name)
		}
	}
}

func TestRecord_Bool(t *testing.T) {
	record := ingest.Record{"a": "yes", "b": "N", "c": 1.0, "d": "true", "e": ""}

	for key, expected := range map[string]bool{"a": true, "b": false, "c": true, "d": true, "e": false, "f": false} {
		if got := record.Bool(key); got != expected {
			t.Errorf("%s: expected %v, got %v", key, expected, got)
		}
	}
}
