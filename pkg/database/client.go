// Package database provides the read-only client for the relational
// evidence store. The service owns no schema there: it consumes several
// fixed, case-sensitive views and never writes. All access goes through a
// pgx connection pool with acquire-use-release on every path.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client wraps the pgx pool for the evidence store.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient connects to the evidence store and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool}, nil
}

// Pool exposes the underlying pool for typed queries (catalog search).
func (c *Client) Pool() *pgxpool.Pool { return c.pool }

// Close releases the pool.
func (c *Client) Close() {
	c.pool.Close()
}

// QueryRows runs a read query and renders every value as a string keyed by
// its column name. The stringly shape is deliberate: results are consumed
// as evidence text by a language model, not by typed code.
func (c *Client) QueryRows(ctx context.Context, sql string) ([]map[string]string, error) {
	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	return collectStringRows(rows)
}

// collectStringRows drains pgx rows into string maps.
func collectStringRows(rows pgx.Rows) ([]map[string]string, error) {
	fields := rows.FieldDescriptions()
	var out []map[string]string

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		record := make(map[string]string, len(fields))
		for i, fd := range fields {
			if values[i] == nil {
				record[string(fd.Name)] = ""
				continue
			}
			record[string(fd.Name)] = fmt.Sprint(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}
