package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/phone"
	"nardeboun-backend/pkg/validator"

	"go.uber.org/zap"
)

const defaultViolation = "تخلف"

// BanService - ban registry: gate checks, lazy expiry and creation
type BanService struct {
	repo    repository.BanRepo
	metrics *metrics.Metrics
	now     Clock
}

func NewBanService(repo repository.BanRepo, m *metrics.Metrics, now Clock) *BanService {
	if now == nil {
		now = time.Now
	}
	return &BanService{repo: repo, metrics: m, now: now}
}

// FindActive returns the authoritative active ban for phone or device, or nil
func (s *BanService) FindActive(ctx context.Context, normalizedPhone, deviceID string) (*models.Ban, error) {
	ban, err := s.repo.FindActive(ctx, normalizedPhone, deviceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("find active ban", err)
	}
	return ban, nil
}

// ExpireIfStale deactivates an active ban that no longer blocks
func (s *BanService) ExpireIfStale(ctx context.Context, ban *models.Ban) error {
	now := s.now()
	if ban == nil || !ban.IsActive || ban.IsBlocking(now) {
		return nil
	}
	if err := s.repo.Deactivate(ctx, ban.ID, now); err != nil {
		return err
	}
	ban.IsActive = false
	return nil
}

// CheckIssuance is the gate in front of OTP issuance: 403 while a blocking ban exists.
// A stale ban is deactivated on the way; a failure there is logged and the request proceeds.
func (s *BanService) CheckIssuance(ctx context.Context, normalizedPhone, deviceID string) error {
	ban, err := s.FindActive(ctx, normalizedPhone, deviceID)
	if err != nil || ban == nil {
		return err
	}

	now := s.now()
	if ban.IsBlocking(now) {
		logger.Info("blocked by active ban",
			zap.Int64("ban_id", ban.ID),
			zap.String("phone", phone.Mask(normalizedPhone)))
		return apperror.NewForbiddenError(BanMessage(ban, now))
	}

	if err := s.ExpireIfStale(ctx, ban); err != nil {
		logger.Warn("failed to deactivate expired ban", zap.Int64("ban_id", ban.ID), zap.Error(err))
	}
	return nil
}

// BanMessage renders the user-facing reason with the remaining hours and minutes
func BanMessage(ban *models.Ban, now time.Time) string {
	if ban.IsPermanent {
		return "حساب شما به صورت دائم مسدود شده است. لطفاً با پشتیبانی تماس بگیرید."
	}
	if ban.BannedUntil == nil {
		return "حساب شما مسدود شده است."
	}

	remainingMs := ban.BannedUntil.Sub(now).Milliseconds()
	hours := remainingMs / 3600000
	minutes := (remainingMs % 3600000) / 60000

	reason := ban.Reason
	if reason == "" {
		reason = defaultViolation
	}
	return fmt.Sprintf("شما تا %d ساعت و %d دقیقه دیگر مسدود هستید. دلیل: %s", hours, minutes, reason)
}

// Create stores an admin (or other) ban. No duration means permanent.
func (s *BanService) Create(ctx context.Context, req *models.CreateBanRequest) (*models.Ban, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.DeviceID = strings.TrimSpace(req.DeviceID)

	if req.UserID == "" && req.PhoneNumber == "" && req.DeviceID == "" {
		return nil, apperror.NewValidationError("حداقل یکی از شناسه‌ها الزامی است")
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	ban := &models.Ban{
		BanType:        req.BanType,
		Reason:         req.Reason,
		BannedBy:       req.BannedBy,
		BannedAt:       now,
		IsActive:       true,
		AdditionalData: req.AdditionalData,
	}
	if ban.BanType == "" {
		ban.BanType = models.BanTypeManual
	}
	if ban.Reason == "" {
		ban.Reason = models.DefaultBanReason
	}
	if req.UserID != "" {
		ban.UserID = &req.UserID
	}
	if req.PhoneNumber != "" {
		normalized := phone.Normalize(req.PhoneNumber)
		ban.PhoneNumber = &normalized
	}
	if req.DeviceID != "" {
		ban.DeviceID = &req.DeviceID
	}
	if req.IPAddress != "" {
		ban.IPAddress = &req.IPAddress
	}

	// a zero duration means permanent
	if req.DurationHours != nil && *req.DurationHours > 0 {
		until := now.Add(time.Duration(*req.DurationHours * float64(time.Hour)))
		ban.BannedUntil = &until
	} else {
		ban.IsPermanent = true
	}

	if err := s.repo.Create(ctx, ban); err != nil {
		return nil, apperror.NewDatabaseError("create ban", err)
	}
	s.metrics.IncBanCreated(ban.BanType)

	logger.Info("ban created",
		zap.Int64("ban_id", ban.ID),
		zap.String("ban_type", ban.BanType),
		zap.Bool("permanent", ban.IsPermanent),
		zap.String("banned_by", ban.BannedBy))
	return ban, nil
}
