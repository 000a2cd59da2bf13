package planner

import (
	"cmp"
	"slices"

	"github.com/bensuskins/harvest-planner/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Buckets maps a day key to that day's ordered cards.
type Buckets map[string][]EnrichedPlan

// Clone copies every bucket slice so the result can be mutated freely.
func (buckets Buckets) Clone() Buckets {
	clone := make(Buckets, len(buckets))
	for day, plans := range buckets {
		clone[day] = slices.Clone(plans)
	}
	return clone
}

// Schedule partitions plans into one bucket per day key. Plans dated outside
// days are dropped. Each bucket is ordered by commodity name, then by planned
// quantity descending; equal entries keep their input order.
func Schedule(plans []models.Plan, days []string, index *ReferenceIndex, calendar Calendar) Buckets {
	buckets := make(Buckets, len(days))
	for _, day := range days {
		buckets[day] = []EnrichedPlan{}
	}

	for _, plan := range plans {
		day := calendar.DayKey(plan.Date)
		bucket, ok := buckets[day]
		if !ok {
			continue
		}
		buckets[day] = append(bucket, Enrich(plan, index))
	}

	// Collators keep internal buffers and are not safe to share.
	collator := collate.New(language.English, collate.IgnoreCase)
	for _, bucket := range buckets {
		SortBucket(bucket, collator)
	}
	return buckets
}

func SortBucket(bucket []EnrichedPlan, collator *collate.Collator) {
	slices.SortStableFunc(bucket, func(a, b EnrichedPlan) int {
		if order := collator.CompareString(a.Card.CommodityName, b.Card.CommodityName); order != 0 {
			return order
		}
		return cmp.Compare(b.Plan.PlannedQuantity, a.Plan.PlannedQuantity)
	})
}
