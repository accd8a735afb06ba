package store

import (
	"context"
	"database/sql"
	"fmt"

	"luna-voice-backend/internal/db"
	"luna-voice-backend/internal/types"
)

// DatabaseAlarmStore persists alarms in PostgreSQL.
type DatabaseAlarmStore struct {
	db *db.DB
}

func NewDatabaseAlarmStore(database *db.DB) *DatabaseAlarmStore {
	return &DatabaseAlarmStore{db: database}
}

func (s *DatabaseAlarmStore) Create(ctx context.Context, a types.Alarm) (types.Alarm, error) {
	if a.DeviceID == "" || a.FireAt <= 0 {
		return types.Alarm{}, fmt.Errorf("deviceId and fireAt are required")
	}
	query := `
		INSERT INTO alarms (device_id, fire_at, city, message, fired)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id
	`
	if err := s.db.QueryRowContext(ctx, query, a.DeviceID, a.FireAt, a.City, a.Message).Scan(&a.ID); err != nil {
		return types.Alarm{}, fmt.Errorf("failed to create alarm: %w", err)
	}
	a.Fired = false
	return a, nil
}

func (s *DatabaseAlarmStore) List(ctx context.Context, deviceID string) ([]types.Alarm, error) {
	query := `
		SELECT id, device_id, fire_at, city, message, fired
		FROM alarms
		WHERE ($1 = '' OR device_id = $1)
		ORDER BY fire_at
	`
	return s.queryAlarms(ctx, query, deviceID)
}

func (s *DatabaseAlarmStore) Due(ctx context.Context, deviceID string, now int64) ([]types.Alarm, error) {
	query := `
		SELECT id, device_id, fire_at, city, message, fired
		FROM alarms
		WHERE fired = FALSE AND fire_at <= $2 AND ($1 = '' OR device_id = $1)
		ORDER BY fire_at
	`
	return s.queryAlarms(ctx, query, deviceID, now)
}

func (s *DatabaseAlarmStore) MarkFired(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alarms SET fired = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alarm fired: %w", err)
	}
	return requireRow(res, id)
}

func (s *DatabaseAlarmStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alarm: %w", err)
	}
	return requireRow(res, id)
}

func (s *DatabaseAlarmStore) queryAlarms(ctx context.Context, query string, args ...any) ([]types.Alarm, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	out := make([]types.Alarm, 0)
	for rows.Next() {
		var a types.Alarm
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.FireAt, &a.City, &a.Message, &a.Fired); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alarm %d not found", id)
	}
	return nil
}
