package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/backyonatan-alt/lookout/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS alerts (
			id          UUID PRIMARY KEY,
			event_id    TEXT NOT NULL,
			kind        TEXT NOT NULL,
			message     TEXT NOT NULL,
			defense     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);
	`
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *Postgres) SaveAlert(ctx context.Context, rec model.AlertRecord) error {
	_, err := p.db.ExecContext(ctx,
		"INSERT INTO alerts (id, event_id, kind, message, defense, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		rec.ID, rec.EventID, string(rec.Kind), rec.Message, rec.Defense, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert %s: %w", rec.EventID, err)
	}
	return nil
}

func (p *Postgres) RecentAlerts(ctx context.Context, limit int) ([]model.AlertRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT id, event_id, kind, message, defense, created_at FROM alerts ORDER BY created_at DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []model.AlertRecord
	for rows.Next() {
		var rec model.AlertRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.EventID, &kind, &rec.Message, &rec.Defense, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		rec.Kind = model.ThreatKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}
