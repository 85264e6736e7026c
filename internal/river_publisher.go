package internal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// riverPublisher inserts one job row per delivery event into a River job
// table, so an existing River worker fleet can pick deliveries up without
// this service speaking the River protocol itself.
type riverPublisher struct {
	db  *sql.DB
	cfg RiverConfig
}

func newRiverPublisher(cfg RiverConfig) (*riverPublisher, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("river dsn is required")
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &riverPublisher{db: db, cfg: cfg}, nil
}

// Publish inserts the delivery event as a new job row.
func (p *riverPublisher) Publish(ctx context.Context, topic string, event DeliveryEvent) error {
	args, err := json.Marshal(event)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(map[string]string{
		"provider": event.Provider,
		"event":    event.Event,
		"outcome":  event.Outcome,
		"topic":    topic,
	})
	if err != nil {
		return err
	}

	table := strings.TrimSpace(p.cfg.Table)
	if table == "" {
		table = "river_job"
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (args, kind, max_attempts, metadata, priority, queue, scheduled_at, tags)
VALUES ($1, $2, $3, $4, $5, $6, now(), $7)`,
		table,
	)

	_, err = p.db.ExecContext(
		ctx,
		query,
		string(args),
		p.cfg.Kind,
		p.cfg.MaxAttempts,
		string(metadata),
		p.cfg.Priority,
		p.cfg.Queue,
		pq.Array(p.cfg.Tags),
	)
	return err
}

// Close closes the underlying database connection.
func (p *riverPublisher) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
