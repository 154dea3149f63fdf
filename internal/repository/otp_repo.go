package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nardeboun-backend/models"

	"github.com/lib/pq"
)

// OtpRepo - one active code per phone
type OtpRepo interface {
	Upsert(ctx context.Context, phone, code string, expiresAt, createdAt time.Time) error
	FindValid(ctx context.Context, phones []string, code string, now time.Time) (*models.OtpCode, error)
	DeleteMatching(ctx context.Context, phones []string, code string) (int64, error)
}

type otpRepo struct {
	db *sql.DB
}

func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

// Upsert overwrites any previous code for the phone
func (r *otpRepo) Upsert(ctx context.Context, phone, code string, expiresAt, createdAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otp_codes (phone_number, otp_code, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (phone_number)
		DO UPDATE SET otp_code = EXCLUDED.otp_code,
		              expires_at = EXCLUDED.expires_at,
		              created_at = EXCLUDED.created_at
	`, phone, code, expiresAt, createdAt)
	if err != nil {
		return fmt.Errorf("upsert otp: %w", err)
	}
	return nil
}

// FindValid returns the newest unexpired row matching any alias and the code
func (r *otpRepo) FindValid(ctx context.Context, phones []string, code string, now time.Time) (*models.OtpCode, error) {
	var o models.OtpCode
	err := r.db.QueryRowContext(ctx, `
		SELECT id, phone_number, otp_code, expires_at, created_at
		FROM otp_codes
		WHERE phone_number = ANY($1) AND otp_code = $2 AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`, pq.Array(phones), code, now).Scan(&o.ID, &o.PhoneNumber, &o.OTPCode, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// DeleteMatching consumes every row for the aliases with this code
func (r *otpRepo) DeleteMatching(ctx context.Context, phones []string, code string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM otp_codes WHERE phone_number = ANY($1) AND otp_code = $2
	`, pq.Array(phones), code)
	if err != nil {
		return 0, fmt.Errorf("delete otp: %w", err)
	}
	return res.RowsAffected()
}
