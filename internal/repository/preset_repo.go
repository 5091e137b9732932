package repository

import (
	"context"
	"database/sql"
	"fmt"

	"terrarium_control/internal/models"
)

type PresetSQLite struct {
	db *sql.DB
}

func NewPresetSQLite(db *sql.DB) *PresetSQLite {
	return &PresetSQLite{db: db}
}

const (
	selectPresetsSQL = `SELECT name, r, g, b, ww, cw FROM light_presets`

	upsertPresetSQL = `
		INSERT INTO light_presets (name, r, g, b, ww, cw)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			r=excluded.r, g=excluded.g, b=excluded.b, ww=excluded.ww, cw=excluded.cw
	`
)

// Preset row names.
const (
	presetMorning = "morning"
	presetNoon    = "noon"
	presetEvening = "evening"
)

// LoadPresets returns found=false when the table is empty. A table with only some of the three
// presets is an error.
func (r *PresetSQLite) LoadPresets(ctx context.Context) (models.Presets, bool, error) {
	rows, err := r.db.QueryContext(ctx, selectPresetsSQL)
	if err != nil {
		return models.Presets{}, false, fmt.Errorf("select light_presets: %w", err)
	}
	defer rows.Close()

	var p models.Presets
	seen := map[string]bool{}
	for rows.Next() {
		var (
			name string
			c    models.RGBWW
		)
		if err := rows.Scan(&name, &c.R, &c.G, &c.B, &c.WW, &c.CW); err != nil {
			return models.Presets{}, false, err
		}
		switch name {
		case presetMorning:
			p.Morning = c
		case presetNoon:
			p.Noon = c
		case presetEvening:
			p.Evening = c
		default:
			return models.Presets{}, false, fmt.Errorf("unknown preset %q", name)
		}
		seen[name] = true
	}
	if err := rows.Err(); err != nil {
		return models.Presets{}, false, err
	}

	switch len(seen) {
	case 0:
		return models.Presets{}, false, nil
	case 3:
		return p, true, nil
	default:
		return models.Presets{}, false, fmt.Errorf("light_presets is incomplete: %d of 3 presets stored", len(seen))
	}
}

// SavePresets replaces all three presets in one transaction.
func (r *PresetSQLite) SavePresets(ctx context.Context, p models.Presets) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin presets transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range []struct {
		name string
		c    models.RGBWW
	}{
		{presetMorning, p.Morning},
		{presetNoon, p.Noon},
		{presetEvening, p.Evening},
	} {
		if _, err := tx.ExecContext(ctx, upsertPresetSQL, row.name, row.c.R, row.c.G, row.c.B, row.c.WW, row.c.CW); err != nil {
			return fmt.Errorf("upsert preset %s: %w", row.name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit presets transaction: %w", err)
	}
	return nil
}
