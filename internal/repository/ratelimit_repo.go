package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nardeboun-backend/models"
)

// RateLimitRepo - otp_rate_limits windows keyed by (phone, device)
type RateLimitRepo interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
	Get(ctx context.Context, phone, deviceID string) (*models.RateLimitWindow, error)
	Insert(ctx context.Context, w *models.RateLimitWindow) error
	Reset(ctx context.Context, phone, deviceID string, now time.Time) error
	SetCount(ctx context.Context, phone, deviceID string, count int, at time.Time) error
}

type rateLimitRepo struct {
	db *sql.DB
}

func NewRateLimitRepo(db *sql.DB) RateLimitRepo {
	return &rateLimitRepo{db: db}
}

func (r *rateLimitRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_rate_limits WHERE window_start_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("purge rate limits: %w", err)
	}
	return nil
}

func (r *rateLimitRepo) Get(ctx context.Context, phone, deviceID string) (*models.RateLimitWindow, error) {
	var w models.RateLimitWindow
	err := r.db.QueryRowContext(ctx, `
		SELECT phone_number, device_id, attempt_count, window_start_at, last_attempt_at
		FROM otp_rate_limits
		WHERE phone_number = $1 AND device_id = $2
	`, phone, deviceID).Scan(&w.PhoneNumber, &w.DeviceID, &w.AttemptCount, &w.WindowStartAt, &w.LastAttemptAt)
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

// Insert returns ErrConflict when a concurrent request created the row first
func (r *rateLimitRepo) Insert(ctx context.Context, w *models.RateLimitWindow) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_rate_limits (phone_number, device_id, attempt_count, window_start_at, last_attempt_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number, device_id) DO NOTHING
	`, w.PhoneNumber, w.DeviceID, w.AttemptCount, w.WindowStartAt, w.LastAttemptAt)
	if err != nil {
		return fmt.Errorf("insert rate limit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// Reset starts a fresh window with one attempt
func (r *rateLimitRepo) Reset(ctx context.Context, phone, deviceID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_rate_limits
		SET attempt_count = 1, window_start_at = $3, last_attempt_at = $3
		WHERE phone_number = $1 AND device_id = $2
	`, phone, deviceID, now)
	if err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

func (r *rateLimitRepo) SetCount(ctx context.Context, phone, deviceID string, count int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otp_rate_limits
		SET attempt_count = $3, last_attempt_at = $4
		WHERE phone_number = $1 AND device_id = $2
	`, phone, deviceID, count, at)
	if err != nil {
		return fmt.Errorf("update rate limit: %w", err)
	}
	return nil
}
