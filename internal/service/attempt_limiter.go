package service

import (
	"context"
	"errors"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/phone"

	"go.uber.org/zap"
)

// OTP issuance policy
const (
	MaxOTPAttempts    = 5
	OTPAttemptWindow  = time.Hour
	RateLimitBanHours = 3

	rateLimitBanReason = "بیش از 5 درخواست OTP در 1 ساعت"
	systemBannedBy     = "system"
)

// AttemptLimiter - fixed window per (phone, device) that escalates to a ban on overflow.
// The read and the write are separate statements; concurrent requests for one key may miscount.
type AttemptLimiter struct {
	repo    repository.RateLimitRepo
	bans    repository.BanRepo
	metrics *metrics.Metrics
	now     Clock
}

func NewAttemptLimiter(repo repository.RateLimitRepo, bans repository.BanRepo, m *metrics.Metrics, now Clock) *AttemptLimiter {
	if now == nil {
		now = time.Now
	}
	return &AttemptLimiter{repo: repo, bans: bans, metrics: m, now: now}
}

// Check records one attempt and returns a 429 AppError when the window overflows
func (l *AttemptLimiter) Check(ctx context.Context, normalizedPhone, deviceID, ipAddress string) error {
	now := l.now()

	if err := l.repo.PurgeOlderThan(ctx, now.Add(-OTPAttemptWindow)); err != nil {
		logger.Warn("rate limit purge failed", zap.Error(err))
	}

	window, err := l.repo.Get(ctx, normalizedPhone, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		err = l.repo.Insert(ctx, &models.RateLimitWindow{
			PhoneNumber:   normalizedPhone,
			DeviceID:      deviceID,
			AttemptCount:  1,
			WindowStartAt: now,
			LastAttemptAt: now,
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return apperror.NewDatabaseError("insert rate limit", err)
		}
		// lost the insert race; count against the winner's row
		window, err = l.repo.Get(ctx, normalizedPhone, deviceID)
	}
	if err != nil {
		return apperror.NewDatabaseError("read rate limit", err)
	}

	if now.Sub(window.WindowStartAt) > OTPAttemptWindow {
		if err := l.repo.Reset(ctx, normalizedPhone, deviceID, now); err != nil {
			return apperror.NewDatabaseError("reset rate limit", err)
		}
		return nil
	}

	newCount := window.AttemptCount + 1
	if newCount > MaxOTPAttempts {
		l.escalate(ctx, normalizedPhone, deviceID, ipAddress, newCount, now)
		l.metrics.IncRateLimited("otp_issue")
		return apperror.NewRateLimitError("تعداد تلاش بیش از حد مجاز است. شما تا 3 ساعت دیگر مسدود هستید.")
	}

	if err := l.repo.SetCount(ctx, normalizedPhone, deviceID, newCount, now); err != nil {
		return apperror.NewDatabaseError("update rate limit", err)
	}
	return nil
}

// escalate creates the rate_limit ban. The request is denied whether or not the insert succeeds.
func (l *AttemptLimiter) escalate(ctx context.Context, normalizedPhone, deviceID, ipAddress string, attempts int, now time.Time) {
	until := now.Add(RateLimitBanHours * time.Hour)
	ban := &models.Ban{
		PhoneNumber:    &normalizedPhone,
		DeviceID:       &deviceID,
		BanType:        models.BanTypeRateLimit,
		Reason:         rateLimitBanReason,
		BannedBy:       systemBannedBy,
		BannedAt:       now,
		BannedUntil:    &until,
		IsActive:       true,
		AdditionalData: models.JSONB{"attempts": attempts},
	}
	if ipAddress != "" {
		ban.IPAddress = &ipAddress
	}

	if err := l.bans.Create(ctx, ban); err != nil {
		logger.Error("failed to create rate limit ban",
			zap.String("phone", phone.Mask(normalizedPhone)),
			zap.Error(err))
		return
	}
	l.metrics.IncBanCreated(models.BanTypeRateLimit)
	logger.Warn("rate limit exceeded, ban created",
		zap.String("phone", phone.Mask(normalizedPhone)),
		zap.Int("attempts", attempts),
		zap.Int64("ban_id", ban.ID))
}
