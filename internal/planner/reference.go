package planner

import (
	"strconv"
	"strings"

	"github.com/bensuskins/harvest-planner/internal/models"
)

type IndexOptions struct {
	// DefaultSource is the only commodity source database that participates,
	// unless IncludeAllSources is set. Commodities without a source always do.
	DefaultSource     string
	IncludeAllSources bool
}

// ReferenceIndex is a read-only lookup snapshot over one ReferenceData value.
type ReferenceIndex struct {
	blocks        map[models.BlockKey]models.Block
	contractors   map[int64]models.Contractor
	commodityName map[string]string
	pools         map[int64]models.Pool
}

// BuildIndex never fails; entries with incomplete keys are left out.
func BuildIndex(data models.ReferenceData, options IndexOptions) *ReferenceIndex {
	index := &ReferenceIndex{
		blocks:        make(map[models.BlockKey]models.Block, len(data.Blocks)),
		contractors:   make(map[int64]models.Contractor, len(data.Contractors)),
		commodityName: make(map[string]string, len(data.Commodities)),
		pools:         make(map[int64]models.Pool, len(data.Pools)),
	}

	for _, block := range data.Blocks {
		key := normalizeBlockKey(block.Key)
		if !key.IsComplete() {
			continue
		}
		block.Key = key
		index.blocks[key] = block
	}

	for _, contractor := range data.Contractors {
		if contractor.ID <= 0 {
			continue
		}
		index.contractors[contractor.ID] = contractor
	}

	defaultSource := strings.TrimSpace(options.DefaultSource)
	for _, commodity := range data.Commodities {
		source := strings.TrimSpace(commodity.SourceDatabase)
		if !options.IncludeAllSources && source != "" && !strings.EqualFold(source, defaultSource) {
			continue
		}
		key := NormalizeIndex(commodity.Index)
		if key == "" {
			continue
		}
		index.commodityName[key] = commodity.Name
	}

	for _, pool := range data.Pools {
		if pool.ID <= 0 {
			continue
		}
		index.pools[pool.ID] = pool
	}

	return index
}

func (index *ReferenceIndex) Block(key models.BlockKey) (models.Block, bool) {
	if index == nil {
		return models.Block{}, false
	}
	block, ok := index.blocks[normalizeBlockKey(key)]
	return block, ok
}

func (index *ReferenceIndex) Contractor(id int64) (models.Contractor, bool) {
	if index == nil {
		return models.Contractor{}, false
	}
	contractor, ok := index.contractors[id]
	return contractor, ok
}

// CommodityName returns "" for unknown indexes.
func (index *ReferenceIndex) CommodityName(commodityIndex string) string {
	if index == nil {
		return ""
	}
	return index.commodityName[NormalizeIndex(commodityIndex)]
}

func (index *ReferenceIndex) Pool(id int64) (models.Pool, bool) {
	if index == nil {
		return models.Pool{}, false
	}
	pool, ok := index.pools[id]
	return pool, ok
}

// CommodityNames lists every indexed commodity display name, used to seed the
// color registry.
func (index *ReferenceIndex) CommodityNames() []string {
	if index == nil {
		return nil
	}
	names := make([]string, 0, len(index.commodityName))
	for _, name := range index.commodityName {
		names = append(names, name)
	}
	return names
}

// NormalizeIndex trims an index and reduces integral decimals ("12.0") to
// their integer form so numeric and string sources join.
func NormalizeIndex(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if number, err := strconv.ParseFloat(trimmed, 64); err == nil && number == float64(int64(number)) {
		return strconv.FormatInt(int64(number), 10)
	}
	return trimmed
}

func normalizeBlockKey(key models.BlockKey) models.BlockKey {
	return models.BlockKey{
		Source: strings.TrimSpace(key.Source),
		Index:  NormalizeIndex(key.Index),
	}
}
