package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"terrarium_control/internal/models"
)

type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite { return &HistorySQLite{db: db} }

const (
	insertHistorySQL = `
		INSERT INTO sensor_history (taken_at, basking_c, basking2_c, cool_c, humidity_pct, uv1, uv1_on, uv2, uv2_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	pruneHistorySQL = `DELETE FROM sensor_history WHERE taken_at < ?`
)

// Insert appends one reading. A zero TakenAt is stamped with the current time.
func (r *HistorySQLite) Insert(ctx context.Context, s models.SensorReading) error {
	at := s.TakenAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertHistorySQL,
		at.UTC().Format(sqliteTimeLayout),
		s.BaskingTempC,
		s.Basking2TempC,
		s.CoolZoneTempC,
		s.HumidityPct,
		s.UV1,
		s.UV1On,
		s.UV2,
		s.UV2On,
	)
	if err != nil {
		return fmt.Errorf("insert sensor_history: %w", err)
	}
	return nil
}

// List returns readings in [from, to] ordered by time. A zero bound is open; limit <= 0 means no limit.
func (r *HistorySQLite) List(ctx context.Context, from, to time.Time, limit int) ([]models.HistoryPoint, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "taken_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "taken_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}

	q := `SELECT id, taken_at, basking_c, basking2_c, cool_c, humidity_pct, uv1, uv1_on, uv2, uv2_on FROM sensor_history`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY taken_at ASC"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.HistoryPoint, 0, 64)
	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.ID, &p.TakenAt, &p.BaskingTempC, &p.Basking2TempC, &p.CoolZoneTempC,
			&p.HumidityPct, &p.UV1, &p.UV1On, &p.UV2, &p.UV2On); err != nil {
			return nil, err
		}
		p.TakenAt = p.TakenAt.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune deletes readings older than before and reports how many were removed.
func (r *HistorySQLite) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneHistorySQL, before.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("prune sensor_history: %w", err)
	}
	return res.RowsAffected()
}
