package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/phone"

	"go.uber.org/zap"
)

// Profile update governor policy
const (
	MaxProfileUpdatesPerWindow = 40
	ProfileUpdateWindow        = time.Hour
	ProfileUpdateBan           = time.Hour

	StepUpdate = "update"
)

// ProfileService - registration steps and the update governor
type ProfileService struct {
	repo    repository.ProfileRepo
	metrics *metrics.Metrics
	now     Clock
}

func NewProfileService(repo repository.ProfileRepo, m *metrics.Metrics, now Clock) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{repo: repo, metrics: m, now: now}
}

// Update applies payload plus step bookkeeping to every alias row
func (s *ProfileService) Update(ctx context.Context, req *models.UpdateProfileRequest) (*models.Profile, error) {
	if strings.TrimSpace(req.Phone) == "" || req.Step == "" || req.Payload == nil {
		return nil, apperror.NewValidationError("پارامترهای لازم ناقص است")
	}

	unknown := make([]string, 0)
	for k := range req.Payload {
		if !models.ProfileFields[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperror.NewValidationError(fmt.Sprintf("فیلدهای نامعتبر: %s", strings.Join(unknown, ", ")))
	}

	aliases := phone.Aliases(req.Phone)
	now := s.now()

	fields := make(map[string]interface{}, len(req.Payload)+6)
	for k, v := range req.Payload {
		fields[k] = v
	}
	fields["last_stage_update"] = now

	switch req.Step {
	case models.StageStep1:
		fields["registration_stage"] = models.StageStep2
		fields["step1_completed_at"] = now
	case models.StageStep2:
		fields["registration_stage"] = models.StageCompleted
		fields["step2_completed_at"] = now
	case models.StageCompleted:
		fields["registration_stage"] = models.StageCompleted
	case StepUpdate:
		if err := s.govern(ctx, aliases, fields, req.DevMode, now); err != nil {
			return nil, err
		}
	default:
		return nil, apperror.NewValidationError("step باید یکی از step1، step2، completed یا update باشد")
	}

	profile, err := s.repo.UpdateByPhones(ctx, aliases, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewNotFoundError("پروفایل یافت نشد")
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("update profile", err)
	}

	logger.Info("profile updated",
		zap.String("user_id", profile.UserID),
		zap.String("step", req.Step))
	return profile, nil
}

// govern applies the hourly update window and fills the bookkeeping fields.
// On overflow the ban is persisted before the 429 is returned.
func (s *ProfileService) govern(ctx context.Context, aliases []string, fields map[string]interface{}, devMode bool, now time.Time) error {
	current, err := s.repo.FindByPhones(ctx, aliases)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFoundError("پروفایل برای بررسی محدودیت یافت نشد")
	}
	if err != nil {
		return apperror.NewDatabaseError("read profile", err)
	}

	if current.BanUntil != nil && current.BanUntil.After(now) {
		remaining := int(math.Ceil(float64(current.BanUntil.Sub(now).Milliseconds()) / 60000))
		s.metrics.IncRateLimited("profile_update")
		return apperror.NewRateLimitError(fmt.Sprintf(
			"شما به حد مجاز %d بار تغییر رسیده‌اید. %d دقیقه دیگر می‌توانید دوباره تلاش کنید.",
			MaxProfileUpdatesPerWindow, remaining))
	}

	if !devMode {
		windowExpired := current.UpdateCountWindowStart == nil ||
			now.Sub(*current.UpdateCountWindowStart) > ProfileUpdateWindow

		if windowExpired {
			fields["update_count_window_start"] = now
			fields["updates_in_window"] = 1
			fields["ban_until"] = nil
		} else {
			newCount := current.UpdatesInWindow + 1
			if newCount >= MaxProfileUpdatesPerWindow {
				banUntil := now.Add(ProfileUpdateBan)
				_, err := s.repo.UpdateByPhones(ctx, aliases, map[string]interface{}{
					"ban_until":         banUntil,
					"updates_in_window": newCount,
				})
				if err != nil {
					logger.Error("failed to persist profile update ban",
						zap.String("user_id", current.UserID), zap.Error(err))
				}
				s.metrics.IncRateLimited("profile_update")
				return apperror.NewRateLimitError(fmt.Sprintf(
					"شما %d بار پایه تحصیلی را تغییر داده‌اید. برای 1 ساعت نمی‌توانید تغییر دهید.",
					MaxProfileUpdatesPerWindow))
			}
			fields["updates_in_window"] = newCount
		}
	}

	today := now.UTC().Format("2006-01-02")
	if current.LastUpdateDate != nil && *current.LastUpdateDate == today {
		fields["updates_today_count"] = current.UpdatesTodayCount + 1
	} else {
		fields["last_update_date"] = today
		fields["updates_today_count"] = 1
	}
	return nil
}
