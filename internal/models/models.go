package models

import "time"

type Plan struct {
	ID                   string    `json:"id"`
	Date                 time.Time `json:"date"`
	PlannedQuantity      float64   `json:"planned_quantity"`
	ActualQuantity       *float64  `json:"actual_quantity"`
	BlockSourceDatabase  string    `json:"block_source_database"`
	BlockID              string    `json:"block_id"`
	CommodityIndex       string    `json:"commodity_index,omitempty"`
	LaborContractorID    *int64    `json:"labor_contractor_id"`
	ForkliftContractorID *int64    `json:"forklift_contractor_id"`
	HaulerContractorID   *int64    `json:"hauler_contractor_id"`
	PoolID               *int64    `json:"pool_id"`
	Notes                string    `json:"notes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// PlanPatch is a partial plan update. Nil fields are left untouched.
type PlanPatch struct {
	Date                 *time.Time `json:"date,omitempty"`
	PlannedQuantity      *float64   `json:"planned_quantity,omitempty"`
	ActualQuantity       *float64   `json:"actual_quantity,omitempty"`
	LaborContractorID    *int64     `json:"labor_contractor_id,omitempty"`
	ForkliftContractorID *int64     `json:"forklift_contractor_id,omitempty"`
	HaulerContractorID   *int64     `json:"hauler_contractor_id,omitempty"`
	PoolID               *int64     `json:"pool_id,omitempty"`
	Notes                *string    `json:"notes,omitempty"`
}

func (patch PlanPatch) IsEmpty() bool {
	return patch.Date == nil &&
		patch.PlannedQuantity == nil &&
		patch.ActualQuantity == nil &&
		patch.LaborContractorID == nil &&
		patch.ForkliftContractorID == nil &&
		patch.HaulerContractorID == nil &&
		patch.PoolID == nil &&
		patch.Notes == nil
}

// BlockKey identifies a grower block. The same index can repeat across
// source databases, so both halves are required.
type BlockKey struct {
	Source string `json:"source_database"`
	Index  string `json:"block_index"`
}

func (key BlockKey) IsComplete() bool {
	return key.Source != "" && key.Index != ""
}

type Block struct {
	Key            BlockKey `json:"key"`
	Name           string   `json:"name"`
	GrowerName     string   `json:"grower_name"`
	CommodityIndex string   `json:"commodity_index"`
	VarietyIndex   string   `json:"variety_index"`
}

type Contractor struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ProvidesPicking  bool   `json:"provides_picking"`
	ProvidesHauling  bool   `json:"provides_hauling"`
	ProvidesForklift bool   `json:"provides_forklift"`
	ContactName      string `json:"contact_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
}

type Commodity struct {
	Index          string `json:"index"`
	Name           string `json:"name"`
	SourceDatabase string `json:"source_database"`
}

type Pool struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceData is one snapshot of the reference datasets a board is built
// against.
type ReferenceData struct {
	Blocks      []Block      `json:"blocks"`
	Contractors []Contractor `json:"contractors"`
	Commodities []Commodity  `json:"commodities"`
	Pools       []Pool       `json:"pools"`
}
