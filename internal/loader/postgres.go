package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/mtm-engine/internal/contracts"
)

// Querier is the subset of *pgxpool.Pool the source needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the input tables. Numeric cells are stored as text so
// malformed upstream values reach the validation stage instead of failing
// the insert.
const Schema = `
CREATE SCHEMA IF NOT EXISTS mtm;

CREATE TABLE IF NOT EXISTS mtm.contracts (
	contract_id TEXT NOT NULL,
	base_index  TEXT NOT NULL,
	tenor       TEXT,
	quantity    TEXT,
	unit        TEXT,
	moisture    TEXT,
	typical_fe  TEXT,
	cost        TEXT,
	discount    TEXT
);

CREATE TABLE IF NOT EXISTS mtm.prices (
	index_name TEXT NOT NULL,
	price_date TEXT NOT NULL,
	tenor      TEXT,
	price      TEXT
);

CREATE INDEX IF NOT EXISTS idx_mtm_prices_index ON mtm.prices (index_name);
`

// PostgresSource implements contracts.ContractSource and contracts.PriceSource
// ⭐ SSOT: DB 입력 테이블 조회는 여기서만
type PostgresSource struct {
	db Querier
}

// NewPostgresSource creates a source over a pool
func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// EnsureSchema creates the input tables when they do not exist
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Contracts returns every contract row in insertion order
func (s *PostgresSource) Contracts(ctx context.Context) ([]contracts.ContractRow, error) {
	query := `
		SELECT contract_id, base_index,
		       COALESCE(tenor, ''), COALESCE(quantity, ''), COALESCE(unit, ''),
		       COALESCE(moisture, ''), COALESCE(typical_fe, ''),
		       COALESCE(cost, ''), COALESCE(discount, '')
		FROM mtm.contracts
		ORDER BY ctid
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	defer rows.Close()

	var out []contracts.ContractRow
	for rows.Next() {
		var c contracts.ContractRow
		if err := rows.Scan(
			&c.ContractID, &c.BaseIndex, &c.Tenor, &c.Quantity, &c.Unit,
			&c.Moisture, &c.TypicalFe, &c.Cost, &c.Discount,
		); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Prices returns every price row
func (s *PostgresSource) Prices(ctx context.Context) ([]contracts.PriceRow, error) {
	return s.PricesFor(ctx)
}

// PricesFor returns price rows restricted to the given indices (all when none given)
func (s *PostgresSource) PricesFor(ctx context.Context, indices ...string) ([]contracts.PriceRow, error) {
	query := `
		SELECT index_name, price_date, COALESCE(tenor, ''), COALESCE(price, '')
		FROM mtm.prices
		WHERE cardinality($1::text[]) = 0 OR index_name = ANY($1)
		ORDER BY ctid
	`

	if indices == nil {
		indices = []string{}
	}

	rows, err := s.db.Query(ctx, query, indices)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var out []contracts.PriceRow
	for rows.Next() {
		var p contracts.PriceRow
		if err := rows.Scan(&p.Index, &p.Date, &p.Tenor, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ImportPair inserts both tables inside one transaction (used by `mtm db import`)
func (s *PostgresSource) ImportPair(ctx context.Context, pair *Pair) error {
	batch := &pgx.Batch{}
	for _, c := range pair.Contracts {
		batch.Queue(`
			INSERT INTO mtm.contracts
				(contract_id, base_index, tenor, quantity, unit, moisture, typical_fe, cost, discount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ContractID, c.BaseIndex, c.Tenor, c.Quantity, c.Unit,
			c.Moisture, c.TypicalFe, c.Cost, c.Discount,
		)
	}
	for _, p := range pair.Prices {
		batch.Queue(`
			INSERT INTO mtm.prices (index_name, price_date, tenor, price)
			VALUES ($1, $2, $3, $4)`,
			p.Index, p.Date, p.Tenor, p.Price,
		)
	}

	tx, ok := s.db.(txBeginner)
	if !ok {
		return fmt.Errorf("import: source does not support transactions")
	}
	return pgx.BeginFunc(ctx, tx, func(t pgx.Tx) error {
		if _, err := t.Exec(ctx, `TRUNCATE mtm.contracts, mtm.prices`); err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
		return t.SendBatch(ctx, batch).Close()
	})
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
