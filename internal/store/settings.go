package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/OualouaneKhadija/face-detection-haarcascade/internal/settings"
)

// Settings table keys.
const (
	keyScaleFactor  = "scale_factor"
	keyMinNeighbors = "min_neighbors"
	keyBoxColor     = "box_color"
	keyBoxThickness = "box_thickness"
)

// SettingsStore persists detection settings in the settings table.
type SettingsStore struct {
	db *sql.DB
}

// Settings returns the settings persistence interface.
func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{db: s.db}
}

// Load reads persisted settings. Missing or unparseable keys keep
// their default value, so a fresh database yields settings.Default().
func (ss *SettingsStore) Load() (settings.Settings, error) {
	out := settings.Default()

	rows, err := ss.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return out, fmt.Errorf("failed to read settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return out, err
		}

		switch key {
		case keyScaleFactor:
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				out.ScaleFactor = v
			}
		case keyMinNeighbors:
			if v, err := strconv.Atoi(value); err == nil {
				out.MinNeighbors = v
			}
		case keyBoxColor:
			if c, err := settings.ParseHexColor(value); err == nil {
				out.BoxColor = c
			}
		case keyBoxThickness:
			if v, err := strconv.Atoi(value); err == nil {
				out.BoxThickness = v
			}
		}
	}

	if err := rows.Err(); err != nil {
		return out, err
	}

	// Persisted values may predate validation; fall back rather than
	// hand the pipeline an unusable configuration.
	if err := out.Validate(); err != nil {
		return settings.Default(), nil
	}

	return out, nil
}

// Save writes the given settings, replacing any existing values.
func (ss *SettingsStore) Save(s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	pairs := map[string]string{
		keyScaleFactor:  strconv.FormatFloat(s.ScaleFactor, 'f', -1, 64),
		keyMinNeighbors: strconv.Itoa(s.MinNeighbors),
		keyBoxColor:     settings.FormatHexColor(s.BoxColor),
		keyBoxThickness: strconv.Itoa(s.BoxThickness),
	}

	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range pairs {
		_, err := tx.Exec(
			"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		)
		if err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}
