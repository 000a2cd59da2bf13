// Package ingest turns loosely typed reference exports into models. Exports
// disagree on key casing and on whether ids are numbers or strings, so every
// field is looked up by a list of aliases and coerced.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/spf13/cast"
)

// Record is one raw object from an export.
type Record map[string]interface{}

// Payload holds the raw arrays of one reference import.
type Payload struct {
	Blocks      []Record
	Contractors []Record
	Commodities []Record
	Pools       []Record
}

// Report counts the records dropped during normalization.
type Report struct {
	SkippedBlocks      int `json:"skipped_blocks"`
	SkippedContractors int `json:"skipped_contractors"`
	SkippedCommodities int `json:"skipped_commodities"`
	SkippedPools       int `json:"skipped_pools"`
}

func (report Report) Skipped() int {
	return report.SkippedBlocks + report.SkippedContractors + report.SkippedCommodities + report.SkippedPools
}

// Decode reads a JSON object whose keys name the reference arrays. Unknown
// keys are ignored.
func Decode(reader io.Reader) (Payload, error) {
	var raw map[string][]Record
	if err := json.NewDecoder(reader).Decode(&raw); err != nil {
		return Payload{}, fmt.Errorf("decoding reference payload: %w", err)
	}

	var payload Payload
	for key, records := range raw {
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "blocks":
			payload.Blocks = append(payload.Blocks, records...)
		case "contractors":
			payload.Contractors = append(payload.Contractors, records...)
		case "commodities":
			payload.Commodities = append(payload.Commodities, records...)
		case "pools":
			payload.Pools = append(payload.Pools, records...)
		}
	}
	return payload, nil
}

var (
	blockSourceKeys    = []string{"source_database", "sourcedatabase", "source"}
	blockIndexKeys     = []string{"gablockidx", "block_index", "blockidx", "block_id"}
	blockNameKeys      = []string{"name", "block_name", "blockname"}
	growerNameKeys     = []string{"grower_name", "growername", "grower"}
	commodityIndexKeys = []string{"commodity_index", "cmtyidx", "commodityidx", "commodity_id"}
	varietyIndexKeys   = []string{"variety_index", "varietyidx", "variety_id"}

	contractorIDKeys = []string{"id", "contractor_id", "contractorid"}
	pickingKeys      = []string{"provides_picking", "picking"}
	haulingKeys      = []string{"provides_hauling", "hauling"}
	forkliftKeys     = []string{"provides_forklift", "forklift"}
	contactNameKeys  = []string{"contact_name", "contactname", "contact"}
	phoneKeys        = []string{"phone", "phone_number"}
	emailKeys        = []string{"email", "email_address"}

	commodityKeys     = []string{"commodity_index", "cmtyidx", "index", "id"}
	commodityNameKeys = []string{"name", "invoice_commodity", "commodity"}

	poolIDKeys   = []string{"id", "pool_id", "poolidx"}
	poolNameKeys = []string{"name", "pool_name", "description"}
)

// Normalize converts a payload to models. Records without a usable key are
// skipped and counted in the report.
func Normalize(payload Payload) (models.ReferenceData, Report) {
	var data models.ReferenceData
	var report Report

	for _, record := range payload.Blocks {
		block := models.Block{
			Key: models.BlockKey{
				Source: record.String(blockSourceKeys...),
				Index:  record.String(blockIndexKeys...),
			},
			Name:           record.String(blockNameKeys...),
			GrowerName:     record.String(growerNameKeys...),
			CommodityIndex: record.String(commodityIndexKeys...),
			VarietyIndex:   record.String(varietyIndexKeys...),
		}
		if !block.Key.IsComplete() {
			slog.Debug("skipping block without key", "source", block.Key.Source, "index", block.Key.Index)
			report.SkippedBlocks++
			continue
		}
		data.Blocks = append(data.Blocks, block)
	}

	for _, record := range payload.Contractors {
		id, ok := record.ID(contractorIDKeys...)
		if !ok {
			slog.Debug("skipping contractor without id", "name", record.String("name"))
			report.SkippedContractors++
			continue
		}
		data.Contractors = append(data.Contractors, models.Contractor{
			ID:               id,
			Name:             record.String("name", "contractor_name"),
			ProvidesPicking:  record.Bool(pickingKeys...),
			ProvidesHauling:  record.Bool(haulingKeys...),
			ProvidesForklift: record.Bool(forkliftKeys...),
			ContactName:      record.String(contactNameKeys...),
			Phone:            record.String(phoneKeys...),
			Email:            record.String(emailKeys...),
		})
	}

	for _, record := range payload.Commodities {
		commodity := models.Commodity{
			Index:          record.String(commodityKeys...),
			Name:           record.String(commodityNameKeys...),
			SourceDatabase: record.String(blockSourceKeys...),
		}
		if commodity.Index == "" {
			slog.Debug("skipping commodity without index", "name", commodity.Name)
			report.SkippedCommodities++
			continue
		}
		data.Commodities = append(data.Commodities, commodity)
	}

	for _, record := range payload.Pools {
		id, ok := record.ID(poolIDKeys...)
		if !ok {
			slog.Debug("skipping pool without id", "name", record.String(poolNameKeys...))
			report.SkippedPools++
			continue
		}
		data.Pools = append(data.Pools, models.Pool{ID: id, Name: record.String(poolNameKeys...)})
	}

	return data, report
}

// lookup returns the value of the first alias present, matching keys
// case-insensitively. An exact match wins; otherwise keys are tried in sorted
// order.
func (record Record) lookup(aliases ...string) (interface{}, bool) {
	var keys []string
	for _, alias := range aliases {
		if value, ok := record[alias]; ok && value != nil {
			return value, true
		}
		if keys == nil {
			keys = make([]string, 0, len(record))
			for key := range record {
				keys = append(keys, key)
			}
			slices.Sort(keys)
		}
		for _, key := range keys {
			if value := record[key]; value != nil && strings.EqualFold(key, alias) {
				return value, true
			}
		}
	}
	return nil, false
}

// String returns the trimmed text form of the first alias present, or "".
// Integral numbers lose their fraction, so 12.0 reads as "12".
func (record Record) String(aliases ...string) string {
	value, ok := record.lookup(aliases...)
	if !ok {
		return ""
	}
	text, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// ID returns a positive integer id. Numeric strings and integral floats are
// accepted.
func (record Record) ID(aliases ...string) (int64, bool) {
	value, ok := record.lookup(aliases...)
	if !ok {
		return 0, false
	}
	if text, isText := value.(string); isText {
		value = strings.TrimSpace(text)
	}
	id, err := cast.ToInt64E(value)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Bool reads flags exported as booleans, numbers, or Y/N strings.
func (record Record) Bool(aliases ...string) bool {
	value, ok := record.lookup(aliases...)
	if !ok {
		return false
	}
	if text, isText := value.(string); isText {
		switch strings.ToUpper(strings.TrimSpace(text)) {
		case "Y", "YES":
			return true
		case "N", "NO", "":
			return false
		}
	}
	if flag, err := cast.ToBoolE(value); err == nil {
		return flag
	}
	return cast.ToFloat64(value) != 0
}
