package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"nardeboun-backend/models"
)

// BanRepo - user_bans access
type BanRepo interface {
	FindActive(ctx context.Context, phone, deviceID string) (*models.Ban, error)
	Deactivate(ctx context.Context, id int64, at time.Time) error
	Create(ctx context.Context, ban *models.Ban) error
}

type banRepo struct {
	db *sql.DB
}

func NewBanRepo(db *sql.DB) BanRepo {
	return &banRepo{db: db}
}

const banColumns = `id, user_id, phone_number, device_id, ban_type, reason, banned_by, banned_at,
	banned_until, is_permanent, is_active, ip_address, additional_data, updated_at`

func scanBan(row interface{ Scan(...interface{}) error }) (*models.Ban, error) {
	var b models.Ban
	err := row.Scan(&b.ID, &b.UserID, &b.PhoneNumber, &b.DeviceID, &b.BanType, &b.Reason, &b.BannedBy, &b.BannedAt,
		&b.BannedUntil, &b.IsPermanent, &b.IsActive, &b.IPAddress, &b.AdditionalData, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// FindActive returns the lowest-id active ban matching phone OR device
func (r *banRepo) FindActive(ctx context.Context, phone, deviceID string) (*models.Ban, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+banColumns+`
		FROM user_bans
		WHERE is_active = TRUE AND (phone_number = $1 OR device_id = $2)
		ORDER BY id
		LIMIT 1
	`, phone, deviceID)
	b, err := scanBan(row)
	if err != nil {
		return nil, translate(err)
	}
	return b, nil
}

// Deactivate flips is_active off; permanent bans are never touched
func (r *banRepo) Deactivate(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_bans SET is_active = FALSE, updated_at = $2
		WHERE id = $1 AND is_permanent = FALSE
	`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate ban %d: %w", id, err)
	}
	return nil
}

// Create inserts the ban and fills its id
func (r *banRepo) Create(ctx context.Context, b *models.Ban) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_bans (user_id, phone_number, device_id, ban_type, reason, banned_by, banned_at,
			banned_until, is_permanent, is_active, ip_address, additional_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, b.UserID, b.PhoneNumber, b.DeviceID, b.BanType, b.Reason, b.BannedBy, b.BannedAt,
		b.BannedUntil, b.IsPermanent, b.IsActive, b.IPAddress, b.AdditionalData).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert ban: %w", err)
	}
	return nil
}
