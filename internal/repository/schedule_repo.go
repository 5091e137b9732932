package repository

import (
	"context"
	"database/sql"
	"fmt"

	"terrarium_control/internal/models"
)

type ScheduleSQLite struct {
	db *sql.DB
}

func NewScheduleSQLite(db *sql.DB) *ScheduleSQLite {
	return &ScheduleSQLite{db: db}
}

const (
	selectWeeksSQL = `
		SELECT week, uv1_start, uv1_end, uv2_start, uv2_end, heat_start, heat_end,
		       led_r, led_g, led_b, led_ww, led_cw
		FROM week_schedule ORDER BY week ASC
	`

	upsertWeekSQL = `
		INSERT INTO week_schedule (week, uv1_start, uv1_end, uv2_start, uv2_end, heat_start, heat_end,
		                           led_r, led_g, led_b, led_ww, led_cw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(week) DO UPDATE SET
			uv1_start=excluded.uv1_start,
			uv1_end=excluded.uv1_end,
			uv2_start=excluded.uv2_start,
			uv2_end=excluded.uv2_end,
			heat_start=excluded.heat_start,
			heat_end=excluded.heat_end,
			led_r=excluded.led_r,
			led_g=excluded.led_g,
			led_b=excluded.led_b,
			led_ww=excluded.led_ww,
			led_cw=excluded.led_cw
	`
)

func weekArgs(s models.WeekSchedule) []any {
	return []any{
		s.Week,
		s.UV1.Start.String(), s.UV1.End.String(),
		s.UV2.Start.String(), s.UV2.End.String(),
		s.Heat.Start.String(), s.Heat.End.String(),
		s.LEDTarget.R, s.LEDTarget.G, s.LEDTarget.B, s.LEDTarget.WW, s.LEDTarget.CW,
	}
}

// LoadWeeks returns every stored week in order. Rows are not validated here.
func (r *ScheduleSQLite) LoadWeeks(ctx context.Context) ([]models.WeekSchedule, error) {
	rows, err := r.db.QueryContext(ctx, selectWeeksSQL)
	if err != nil {
		return nil, fmt.Errorf("select week_schedule: %w", err)
	}
	defer rows.Close()

	out := make([]models.WeekSchedule, 0, models.LastWeek)
	for rows.Next() {
		var (
			s     models.WeekSchedule
			times [6]string
		)
		if err := rows.Scan(&s.Week,
			&times[0], &times[1], &times[2], &times[3], &times[4], &times[5],
			&s.LEDTarget.R, &s.LEDTarget.G, &s.LEDTarget.B, &s.LEDTarget.WW, &s.LEDTarget.CW,
		); err != nil {
			return nil, err
		}
		dst := [6]*models.TimeOfDay{&s.UV1.Start, &s.UV1.End, &s.UV2.Start, &s.UV2.End, &s.Heat.Start, &s.Heat.End}
		for i, txt := range times {
			t, err := models.ParseTimeOfDay(txt)
			if err != nil {
				return nil, fmt.Errorf("week %d: %w", s.Week, err)
			}
			*dst[i] = t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveWeek upserts one week.
func (r *ScheduleSQLite) SaveWeek(ctx context.Context, s models.WeekSchedule) error {
	if _, err := r.db.ExecContext(ctx, upsertWeekSQL, weekArgs(s)...); err != nil {
		return fmt.Errorf("upsert week %d: %w", s.Week, err)
	}
	return nil
}

// SeedWeeks writes every week in one transaction.
func (r *ScheduleSQLite) SeedWeeks(ctx context.Context, weeks []models.WeekSchedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range weeks {
		if _, err := tx.ExecContext(ctx, upsertWeekSQL, weekArgs(s)...); err != nil {
			return fmt.Errorf("seed week %d: %w", s.Week, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
