package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/phone"
	"nardeboun-backend/pkg/ratelimit"
	"nardeboun-backend/pkg/sms"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OTPValidity = time.Minute
	DevOTPCode  = "0000"
)

// OTPConfig - issuance switches
type OTPConfig struct {
	// EchoCode returns the code in every send-otp response, not only in dev mode
	EchoCode bool
}

// OTPService - issue and verify one-time codes
type OTPService struct {
	otps     repository.OtpRepo
	profiles repository.ProfileRepo
	bans     *BanService
	attempts *AttemptLimiter
	verify   ratelimit.Limiter
	sms      sms.SMSService
	metrics  *metrics.Metrics
	cfg      OTPConfig
	now      Clock
}

func NewOTPService(
	otps repository.OtpRepo,
	profiles repository.ProfileRepo,
	bans *BanService,
	attempts *AttemptLimiter,
	verifyLimiter ratelimit.Limiter,
	smsService sms.SMSService,
	m *metrics.Metrics,
	cfg OTPConfig,
	now Clock,
) *OTPService {
	if now == nil {
		now = time.Now
	}
	return &OTPService{
		otps:     otps,
		profiles: profiles,
		bans:     bans,
		attempts: attempts,
		verify:   verifyLimiter,
		sms:      smsService,
		metrics:  m,
		cfg:      cfg,
		now:      now,
	}
}

// generateCode returns a uniform 4-digit code in [1000, 9999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}

// Issue runs ban gate, attempt limiter, ledger upsert and SMS dispatch
func (s *OTPService) Issue(ctx context.Context, req *models.SendOTPRequest, ipAddress string) (*models.SendOTPResponse, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, apperror.NewValidationError("شماره تلفن الزامی است")
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		return nil, apperror.NewValidationError("Device ID is required")
	}

	normalized := phone.Normalize(req.Phone)
	log := logger.With(zap.String("phone", phone.Mask(normalized)))

	if err := s.bans.CheckIssuance(ctx, normalized, req.DeviceID); err != nil {
		return nil, err
	}
	if err := s.attempts.Check(ctx, normalized, req.DeviceID, ipAddress); err != nil {
		return nil, err
	}

	code := DevOTPCode
	if !req.DevMode {
		var err error
		if code, err = generateCode(); err != nil {
			return nil, apperror.NewInternalError("failed to generate code", err)
		}
	}

	now := s.now()
	if err := s.otps.Upsert(ctx, normalized, code, now.Add(OTPValidity), now); err != nil {
		return nil, apperror.NewDatabaseError("store otp", err)
	}

	resp := &models.SendOTPResponse{
		Success: true,
		DevMode: req.DevMode,
	}

	if req.DevMode {
		log.Debug("dev mode otp issued", zap.String("code", code))
		resp.Message = "کد تأیید پیش‌فرض برای حالت توسعه ارسال شد"
	} else {
		minutes := int(OTPValidity / time.Minute)
		if err := s.sms.SendOTP(ctx, normalized, code, minutes); err != nil {
			return nil, apperror.NewUpstreamError("sms", err)
		}
		resp.Message = fmt.Sprintf("کد تأیید با موفقیت ارسال شد. این کد تا %d دقیقه معتبر است.", minutes)
	}

	if req.DevMode || s.cfg.EchoCode {
		resp.Code = code
	}

	s.metrics.IncOTPIssued()
	log.Info("otp issued", zap.Bool("dev_mode", req.DevMode))
	return resp, nil
}

// Verify consumes a valid code and returns the existing or newly created profile
func (s *OTPService) Verify(ctx context.Context, req *models.VerifyOTPRequest) (*models.Profile, error) {
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.OTP) == "" {
		return nil, apperror.NewValidationError("شماره تلفن و کد OTP الزامی است")
	}

	aliases := phone.Aliases(req.Phone)
	normalized := aliases[0]
	code := strings.TrimSpace(req.OTP)
	log := logger.With(zap.String("phone", phone.Mask(normalized)))

	if s.verify != nil {
		allowed, err := s.verify.Allow(ctx, normalized)
		if err != nil {
			log.Warn("verify throttle unavailable", zap.Error(err))
		} else if !allowed {
			s.metrics.IncOTPVerification("throttled")
			s.metrics.IncRateLimited("otp_verify")
			return nil, apperror.NewRateLimitError("تعداد تلاش‌های تأیید بیش از حد مجاز است. لطفاً بعداً تلاش کنید.")
		}
	}

	now := s.now()
	if _, err := s.otps.FindValid(ctx, aliases, code, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncOTPVerification("invalid")
			return nil, apperror.NewInvalidOTPError()
		}
		return nil, apperror.NewDatabaseError("find otp", err)
	}

	// only the caller whose DELETE removed the row may log in
	consumed, err := s.otps.DeleteMatching(ctx, aliases, code)
	if err != nil {
		return nil, apperror.NewDatabaseError("consume otp", err)
	}
	if consumed == 0 {
		s.metrics.IncOTPVerification("invalid")
		return nil, apperror.NewInvalidOTPError()
	}
	if s.verify != nil {
		if err := s.verify.Reset(ctx, normalized); err != nil {
			log.Warn("failed to reset verify throttle", zap.Error(err))
		}
	}

	profile, err := s.profiles.FindByPhones(ctx, aliases)
	if err == nil {
		s.metrics.IncOTPVerification("success")
		log.Info("otp verified", zap.String("user_id", profile.UserID))
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewDatabaseError("read profile", err)
	}

	profile = &models.Profile{
		UserID:            uuid.NewString(),
		PhoneNumber:       normalized,
		UserRole:          models.RoleStudent,
		RegistrationStage: models.StageStep1,
		LastStageUpdate:   &now,
		CreatedAt:         now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperror.NewDatabaseError("create profile", err)
	}

	s.metrics.IncOTPVerification("success")
	log.Info("otp verified, profile created", zap.String("user_id", profile.UserID))
	return profile, nil
}
