package planner

import "github.com/bensuskins/harvest-planner/internal/models"

// Card is the display projection of a plan. Unknown references leave their
// fields empty; an unknown block shows its raw id.
type Card struct {
	BlockName          string `json:"block_name"`
	GrowerName         string `json:"grower_name"`
	CommodityName      string `json:"commodity_name"`
	LaborContractor    string `json:"labor_contractor"`
	ForkliftContractor string `json:"forklift_contractor"`
	HaulerContractor   string `json:"hauler_contractor"`
	PoolName           string `json:"pool_name"`
}

// EnrichedPlan wraps a copy of a plan with the reference facts it joins to.
type EnrichedPlan struct {
	Plan               models.Plan        `json:"plan"`
	Card               Card               `json:"card"`
	Block              *models.Block      `json:"-"`
	LaborContractor    *models.Contractor `json:"-"`
	ForkliftContractor *models.Contractor `json:"-"`
	HaulerContractor   *models.Contractor `json:"-"`
	Pool               *models.Pool       `json:"-"`
}

// Enrich joins plan against index. It does not modify plan and never fails.
func Enrich(plan models.Plan, index *ReferenceIndex) EnrichedPlan {
	enriched := EnrichedPlan{Plan: plan}

	commodityIndex := plan.CommodityIndex
	if block, ok := index.Block(models.BlockKey{Source: plan.BlockSourceDatabase, Index: plan.BlockID}); ok {
		enriched.Block = &block
		enriched.Card.BlockName = block.Name
		enriched.Card.GrowerName = block.GrowerName
		if NormalizeIndex(block.CommodityIndex) != "" {
			commodityIndex = block.CommodityIndex
		}
	} else {
		enriched.Card.BlockName = plan.BlockID
	}
	enriched.Card.CommodityName = index.CommodityName(commodityIndex)

	enriched.LaborContractor = lookupContractor(index, plan.LaborContractorID)
	enriched.ForkliftContractor = lookupContractor(index, plan.ForkliftContractorID)
	enriched.HaulerContractor = lookupContractor(index, plan.HaulerContractorID)
	enriched.Card.LaborContractor = contractorName(enriched.LaborContractor)
	enriched.Card.ForkliftContractor = contractorName(enriched.ForkliftContractor)
	enriched.Card.HaulerContractor = contractorName(enriched.HaulerContractor)

	if plan.PoolID != nil {
		if pool, ok := index.Pool(*plan.PoolID); ok {
			enriched.Pool = &pool
			enriched.Card.PoolName = pool.Name
		}
	}

	return enriched
}

func lookupContractor(index *ReferenceIndex, id *int64) *models.Contractor {
	if id == nil {
		return nil
	}
	contractor, ok := index.Contractor(*id)
	if !ok {
		return nil
	}
	return &contractor
}

func contractorName(contractor *models.Contractor) string {
	if contractor == nil {
		return ""
	}
	return contractor.Name
}
