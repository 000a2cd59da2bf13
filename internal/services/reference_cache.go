package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bensuskins/harvest-planner/internal/models"
	"github.com/bensuskins/harvest-planner/internal/planner"
	"github.com/bensuskins/harvest-planner/internal/repository"
	"golang.org/x/sync/errgroup"
)

// ReferenceSnapshot is one loaded generation of reference data. Version
// changes only when the data is reloaded.
type ReferenceSnapshot struct {
	Data    models.ReferenceData
	Index   *planner.ReferenceIndex
	Version uint64
}

// ReferenceCache keeps the reference datasets in memory for cacheTTL and
// re-initializes the commodity colors whenever it reloads.
type ReferenceCache struct {
	referenceRepo repository.ReferenceRepository
	options       planner.IndexOptions
	colors        *planner.ColorRegistry
	cacheTTL      time.Duration
	now           func() time.Time

	mu        sync.Mutex
	snapshot  ReferenceSnapshot
	fetchedAt time.Time
	loaded    bool
}

func NewReferenceCache(
	referenceRepo repository.ReferenceRepository,
	options planner.IndexOptions,
	colors *planner.ColorRegistry,
	cacheTTL time.Duration,
) *ReferenceCache {
	return &ReferenceCache{
		referenceRepo: referenceRepo,
		options:       options,
		colors:        colors,
		cacheTTL:      cacheTTL,
		now:           time.Now,
	}
}

// Get returns the cached snapshot, reloading it once the TTL has passed. A
// failed reload keeps serving the previous snapshot.
func (cache *ReferenceCache) Get(ctx context.Context) (ReferenceSnapshot, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if cache.loaded && (cache.cacheTTL <= 0 || cache.now().Sub(cache.fetchedAt) < cache.cacheTTL) {
		return cache.snapshot, nil
	}

	if err := cache.refreshLocked(ctx); err != nil {
		if !cache.loaded {
			return ReferenceSnapshot{}, err
		}
		slog.Warn("refreshing reference data, serving cached copy", "error", err)
	}
	return cache.snapshot, nil
}

// Refresh reloads the reference data regardless of its age.
func (cache *ReferenceCache) Refresh(ctx context.Context) (ReferenceSnapshot, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if err := cache.refreshLocked(ctx); err != nil {
		return ReferenceSnapshot{}, err
	}
	return cache.snapshot, nil
}

func (cache *ReferenceCache) refreshLocked(ctx context.Context) error {
	data, err := cache.load(ctx)
	if err != nil {
		return err
	}

	index := planner.BuildIndex(data, cache.options)
	if cache.colors != nil {
		cache.colors.Initialize(index.CommodityNames())
	}

	cache.snapshot = ReferenceSnapshot{
		Data:    data,
		Index:   index,
		Version: cache.snapshot.Version + 1,
	}
	cache.fetchedAt = cache.now()
	cache.loaded = true

	slog.Info("loaded reference data",
		"version", cache.snapshot.Version,
		"blocks", len(data.Blocks),
		"contractors", len(data.Contractors),
		"commodities", len(data.Commodities),
		"pools", len(data.Pools),
	)
	return nil
}

func (cache *ReferenceCache) load(ctx context.Context) (models.ReferenceData, error) {
	var data models.ReferenceData

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		blocks, err := cache.referenceRepo.FindBlocks(groupCtx)
		if err != nil {
			return err
		}
		data.Blocks = blocks
		return nil
	})
	group.Go(func() error {
		contractors, err := cache.referenceRepo.FindContractors(groupCtx)
		if err != nil {
			return err
		}
		data.Contractors = contractors
		return nil
	})
	group.Go(func() error {
		commodities, err := cache.referenceRepo.FindCommodities(groupCtx)
		if err != nil {
			return err
		}
		data.Commodities = commodities
		return nil
	})
	group.Go(func() error {
		pools, err := cache.referenceRepo.FindPools(groupCtx)
		if err != nil {
			return err
		}
		data.Pools = pools
		return nil
	})

	if err := group.Wait(); err != nil {
		return models.ReferenceData{}, fmt.Errorf("loading reference data: %w", err)
	}
	return data, nil
}
