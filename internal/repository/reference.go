package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bensuskins/harvest-planner/internal/models"
)

type ReferenceRepository interface {
	FindBlocks(ctx context.Context) ([]models.Block, error)
	FindContractors(ctx context.Context) ([]models.Contractor, error)
	FindCommodities(ctx context.Context) ([]models.Commodity, error)
	FindPools(ctx context.Context) ([]models.Pool, error)
	Import(ctx context.Context, data models.ReferenceData) error
}

type SQLiteReferenceRepository struct {
	database *sql.DB
}

func NewReferenceRepository(database *sql.DB) *SQLiteReferenceRepository {
	return &SQLiteReferenceRepository{database: database}
}

func (repository *SQLiteReferenceRepository) FindBlocks(ctx context.Context) ([]models.Block, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT source_database, block_index, name, grower_name, commodity_index, variety_index
		FROM blocks ORDER BY source_database, block_index`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.Block
	for rows.Next() {
		var block models.Block
		if err := rows.Scan(
			&block.Key.Source, &block.Key.Index, &block.Name,
			&block.GrowerName, &block.CommodityIndex, &block.VarietyIndex,
		); err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func (repository *SQLiteReferenceRepository) FindContractors(ctx context.Context) ([]models.Contractor, error) {
	rows, err := repository.database.QueryContext(ctx,
		`SELECT id, name, provides_picking, provides_hauling, provides_forklift, contact_name, phone, email
		FROM contractors ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("finding contractors: %w", err)
	}
	defer rows.Close()

	var contractors []models.Contractor
	for rows.Next() {
		var contractor models.Contractor
		if err := rows.Scan(
			&contractor.ID, &contractor.Name, &contractor.ProvidesPicking,
			&contractor.ProvidesHauling, &contractor.ProvidesForklift,
			&contractor.ContactName, &contractor.Phone, &contractor.Email,
		); err != nil {
			return nil, fmt.Errorf("scanning contractor: %w", err)
		}
		contractors = append(contractors, contractor)
	}
	return contractors, rows.Err()
}

func (repository *SQLiteReferenceRepository) FindCommodities(ctx context.Context) ([]models.Commodity, error) {
	rows, err := repository.database.QueryContext(ctx,
		"SELECT commodity_index, name, source_database FROM commodities ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("finding commodities: %w", err)
	}
	defer rows.Close()

	var commodities []models.Commodity
	for rows.Next() {
		var commodity models.Commodity
		if err := rows.Scan(&commodity.Index, &commodity.Name, &commodity.SourceDatabase); err != nil {
			return nil, fmt.Errorf("scanning commodity: %w", err)
		}
		commodities = append(commodities, commodity)
	}
	return commodities, rows.Err()
}

func (repository *SQLiteReferenceRepository) FindPools(ctx context.Context) ([]models.Pool, error) {
	rows, err := repository.database.QueryContext(ctx, "SELECT id, name FROM pools ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("finding pools: %w", err)
	}
	defer rows.Close()

	var pools []models.Pool
	for rows.Next() {
		var pool models.Pool
		if err := rows.Scan(&pool.ID, &pool.Name); err != nil {
			return nil, fmt.Errorf("scanning pool: %w", err)
		}
		pools = append(pools, pool)
	}
	return pools, rows.Err()
}

// Import upserts every entry of data in a single transaction.
func (repository *SQLiteReferenceRepository) Import(ctx context.Context, data models.ReferenceData) error {
	transaction, err := repository.database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reference import: %w", err)
	}
	defer transaction.Rollback()

	for _, block := range data.Blocks {
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO blocks (source_database, block_index, name, grower_name, commodity_index, variety_index)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (source_database, block_index) DO UPDATE SET
				name = excluded.name,
				grower_name = excluded.grower_name,
				commodity_index = excluded.commodity_index,
				variety_index = excluded.variety_index`,
			block.Key.Source, block.Key.Index, block.Name,
			block.GrowerName, block.CommodityIndex, block.VarietyIndex,
		); err != nil {
			return fmt.Errorf("upserting block %s/%s: %w", block.Key.Source, block.Key.Index, err)
		}
	}

	for _, contractor := range data.Contractors {
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO contractors (id, name, provides_picking, provides_hauling, provides_forklift, contact_name, phone, email)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				provides_picking = excluded.provides_picking,
				provides_hauling = excluded.provides_hauling,
				provides_forklift = excluded.provides_forklift,
				contact_name = excluded.contact_name,
				phone = excluded.phone,
				email = excluded.email`,
			contractor.ID, contractor.Name, contractor.ProvidesPicking, contractor.ProvidesHauling,
			contractor.ProvidesForklift, contractor.ContactName, contractor.Phone, contractor.Email,
		); err != nil {
			return fmt.Errorf("upserting contractor %d: %w", contractor.ID, err)
		}
	}

	for _, commodity := range data.Commodities {
		if _, err := transaction.ExecContext(ctx,
			`INSERT INTO commodities (source_database, commodity_index, name)
			VALUES (?, ?, ?)
			ON CONFLICT (source_database, commodity_index) DO UPDATE SET name = excluded.name`,
			commodity.SourceDatabase, commodity.Index, commodity.Name,
		); err != nil {
			return fmt.Errorf("upserting commodity %s: %w", commodity.Index, err)
		}
	}

	for _, pool := range data.Pools {
		if _, err := transaction.ExecContext(ctx,
			"INSERT INTO pools (id, name) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET name = excluded.name",
			pool.ID, pool.Name,
		); err != nil {
			return fmt.Errorf("upserting pool %d: %w", pool.ID, err)
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing reference import: %w", err)
	}
	return nil
}
