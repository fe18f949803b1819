package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys persisted across restarts.
const (
	KeySensitivity = "sensitivity"
	KeyAlarmDelay  = "alarm_delay_seconds"
)

// ErrNotFound is returned when a setting key has no stored value.
var ErrNotFound = errors.New("setting not found")

// GetSetting returns the stored value for key.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set setting %q: %w", key, err)
	}
	return nil
}

// GetSettingInt returns the stored value for key parsed as an integer.
func (s *Store) GetSettingInt(key string) (int, error) {
	value, err := s.GetSetting(key)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return n, nil
}

// SetSettingInt stores an integer value under key.
func (s *Store) SetSettingInt(key string, value int) error {
	return s.SetSetting(key, strconv.Itoa(value))
}
