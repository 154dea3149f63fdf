package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"nardeboun-backend/models"

	"github.com/lib/pq"
)

// ProfileRepo - profiles keyed by user_id, looked up by phone aliases
type ProfileRepo interface {
	FindByPhones(ctx context.Context, phones []string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	UpdateByPhones(ctx context.Context, phones []string, fields map[string]interface{}) (*models.Profile, error)
}

type profileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) ProfileRepo {
	return &profileRepo{db: db}
}

const profileColumns = `user_id, phone_number, first_name, last_name, grade, track, field_of_study,
	province, city, school_name, gender, birth_date, avatar_url, user_role, registration_stage,
	step1_completed_at, step2_completed_at, last_stage_update, ban_until, update_count_window_start,
	updates_in_window, last_update_date, updates_today_count, created_at, updated_at`

// writableProfileColumns guards the dynamic SET clause
var writableProfileColumns = map[string]bool{
	"registration_stage":        true,
	"step1_completed_at":        true,
	"step2_completed_at":        true,
	"last_stage_update":         true,
	"ban_until":                 true,
	"update_count_window_start": true,
	"updates_in_window":         true,
	"last_update_date":          true,
	"updates_today_count":       true,
	"updated_at":                true,
}

func scanProfile(row interface{ Scan(...interface{}) error }) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.PhoneNumber, &p.FirstName, &p.LastName, &p.Grade, &p.Track, &p.FieldOfStudy,
		&p.Province, &p.City, &p.SchoolName, &p.Gender, &p.BirthDate, &p.AvatarURL, &p.UserRole, &p.RegistrationStage,
		&p.Step1CompletedAt, &p.Step2CompletedAt, &p.LastStageUpdate, &p.BanUntil, &p.UpdateCountWindowStart,
		&p.UpdatesInWindow, &p.LastUpdateDate, &p.UpdatesTodayCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByPhones returns the most recently created profile for any alias
func (r *profileRepo) FindByPhones(ctx context.Context, phones []string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE phone_number = ANY($1)
		ORDER BY created_at DESC
		LIMIT 1
	`, pq.Array(phones))
	p, err := scanProfile(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (r *profileRepo) Create(ctx context.Context, p *models.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, phone_number, user_role, registration_stage, last_stage_update, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.UserID, p.PhoneNumber, p.UserRole, p.RegistrationStage, p.LastStageUpdate, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// UpdateByPhones applies fields to every alias row and returns the first.
// Keys must be payload fields or governor bookkeeping columns.
func (r *profileRepo) UpdateByPhones(ctx context.Context, phones []string, fields map[string]interface{}) (*models.Profile, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("update profile: no fields")
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !writableProfileColumns[k] && !models.ProfileFields[k] {
			return nil, fmt.Errorf("update profile: column %q not writable", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, pq.Array(phones))
	for i, k := range keys {
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(k), i+2))
		args = append(args, fields[k])
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE profiles SET `+strings.Join(sets, ", ")+`
		WHERE phone_number = ANY($1)
		RETURNING `+profileColumns, args...)
	p, err := scanProfile(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
