// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"rms-insight-workers/internal/common/config"
	"rms-insight-workers/internal/common/errors"
)

// WarehouseTables are the rate warehouse tables the insight loader reads.
var WarehouseTables = []string{"channel_parity", "market_demand", "ota_rank", "parity_score", "rate_positioning"}

// PostgresClient wraps the rate warehouse connection pool.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(fmt.Errorf("open postgres: %w", err))
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("postgres ping: %w", err))
	}
	return nil
}

// CheckWarehouse fails when any of WarehouseTables is absent from the
// connection's current schema.
func (c *PostgresClient) CheckWarehouse(ctx context.Context) error {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ANY($1)
	`, pq.Array(WarehouseTables))
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("list warehouse tables: %w", err))
	}
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan table name: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list warehouse tables: %w", err)
	}

	var missing []string
	for _, table := range WarehouseTables {
		if !found[table] {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("warehouse tables missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Ready pings the pool and checks the warehouse schema.
func (c *PostgresClient) Ready(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return err
	}
	return c.CheckWarehouse(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
