package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Ban types
const (
	BanTypeManual    = "manual_admin"
	BanTypeRateLimit = "rate_limit"

	DefaultBanReason = "مسدود شده توسط ادمین"
)

// JSONB - PostgreSQL JSONB column
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return errors.New("type assertion to []byte failed")
}

// Ban - user_bans row. At least one of UserID, PhoneNumber, DeviceID is set.
type Ban struct {
	ID             int64      `json:"id"`
	UserID         *string    `json:"user_id"`
	PhoneNumber    *string    `json:"phone_number"`
	DeviceID       *string    `json:"device_id"`
	BanType        string     `json:"ban_type"`
	Reason         string     `json:"reason"`
	BannedBy       string     `json:"banned_by"`
	BannedAt       time.Time  `json:"banned_at"`
	BannedUntil    *time.Time `json:"banned_until"`
	IsPermanent    bool       `json:"is_permanent"`
	IsActive       bool       `json:"is_active"`
	IPAddress      *string    `json:"ip_address"`
	AdditionalData JSONB      `json:"additional_data"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// IsBlocking - permanent, or still before banned_until
func (b *Ban) IsBlocking(now time.Time) bool {
	if b.IsPermanent {
		return true
	}
	return b.BannedUntil != nil && now.Before(*b.BannedUntil)
}

// CreateBanRequest - POST create-ban
type CreateBanRequest struct {
	UserID         string   `json:"user_id" validate:"omitempty,uuid"`
	PhoneNumber    string   `json:"phone_number"`
	DeviceID       string   `json:"device_id"`
	BanType        string   `json:"ban_type"`
	Reason         string   `json:"reason"`
	BannedBy       string   `json:"banned_by" validate:"required"`
	DurationHours  *float64 `json:"duration_hours" validate:"omitempty,gte=0"`
	IPAddress      string   `json:"ip_address"`
	AdditionalData JSONB    `json:"additional_data"`
}

// BanResponse - create-ban success body
type BanResponse struct {
	Success bool `json:"success"`
	Ban     *Ban `json:"ban"`
}
