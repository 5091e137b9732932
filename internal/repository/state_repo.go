package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"terrarium_control/internal/models"
)

type LEDStateSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewLEDStateSQLite(db *sql.DB) *LEDStateSQLite {
	return &LEDStateSQLite{db: db, now: time.Now}
}

const (
	ledStateRowID = 1

	insertOrUpdateLEDStateSQL = `
		INSERT INTO led_settings (id, power, mode, r, g, b, ww, cw, season_weight, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			power=excluded.power,
			mode=excluded.mode,
			r=excluded.r,
			g=excluded.g,
			b=excluded.b,
			ww=excluded.ww,
			cw=excluded.cw,
			season_weight=excluded.season_weight,
			updated_at=excluded.updated_at
	`

	selectLEDStateSQL = `
		SELECT power, mode, r, g, b, ww, cw, season_weight
		FROM led_settings WHERE id=?
	`
)

// SaveLEDState updates or inserts the led_settings row (id always 1).
// The computed output is not persisted.
func (r *LEDStateSQLite) SaveLEDState(ctx context.Context, st models.LEDState) error {
	c := st.ManualColor
	_, err := r.db.ExecContext(ctx, insertOrUpdateLEDStateSQL,
		ledStateRowID,
		st.Power,
		st.Mode.String(),
		c.R, c.G, c.B, c.WW, c.CW,
		st.SeasonWeight,
		r.now().UTC().Format(sqliteTimeLayout),
	)
	return err
}

// LoadLEDState returns found=false when nothing was saved yet.
func (r *LEDStateSQLite) LoadLEDState(ctx context.Context) (models.LEDState, bool, error) {
	row := r.db.QueryRowContext(ctx, selectLEDStateSQL, ledStateRowID)

	var (
		st   models.LEDState
		mode string
		c    = &st.ManualColor
	)
	if err := row.Scan(&st.Power, &mode, &c.R, &c.G, &c.B, &c.WW, &c.CW, &st.SeasonWeight); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LEDState{}, false, nil
		}
		return models.LEDState{}, false, err
	}

	m, err := models.ParseMode(mode)
	if err != nil {
		return models.LEDState{}, false, err
	}
	st.Mode = m
	return st, true, nil
}
