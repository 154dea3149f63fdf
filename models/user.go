package models

import "time"

// Registration stages
const (
	StageStep1     = "step1"
	StageStep2     = "step2"
	StageCompleted = "completed"

	RoleStudent = "student"
)

// Profile - profiles row; phone_number is the alternate key
type Profile struct {
	UserID            string     `json:"user_id"`
	PhoneNumber       string     `json:"phone_number"`
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	Grade             *string    `json:"grade"`
	Track             *string    `json:"track"`
	FieldOfStudy      *string    `json:"field_of_study"`
	Province          *string    `json:"province"`
	City              *string    `json:"city"`
	SchoolName        *string    `json:"school_name"`
	Gender            *string    `json:"gender"`
	BirthDate         *string    `json:"birth_date"`
	AvatarURL         *string    `json:"avatar_url"`
	UserRole          string     `json:"user_role"`
	RegistrationStage string     `json:"registration_stage"`
	Step1CompletedAt  *time.Time `json:"step1_completed_at"`
	Step2CompletedAt  *time.Time `json:"step2_completed_at"`
	LastStageUpdate   *time.Time `json:"last_stage_update"`

	// update governor
	BanUntil               *time.Time `json:"ban_until"`
	UpdateCountWindowStart *time.Time `json:"update_count_window_start"`
	UpdatesInWindow        int        `json:"updates_in_window"`
	LastUpdateDate         *string    `json:"last_update_date"`
	UpdatesTodayCount      int        `json:"updates_today_count"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ProfileFields - payload keys a client may change through update-profile
var ProfileFields = map[string]bool{
	"first_name":     true,
	"last_name":      true,
	"grade":          true,
	"track":          true,
	"field_of_study": true,
	"province":       true,
	"city":           true,
	"school_name":    true,
	"gender":         true,
	"birth_date":     true,
	"avatar_url":     true,
}

// SendOTPRequest - POST send-otp
type SendOTPRequest struct {
	Phone    string `json:"phone"`
	DeviceID string `json:"device_id"`
	DevMode  bool   `json:"devMode"`
}

// SendOTPResponse - code is only present when echoing is enabled
type SendOTPResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	DevMode bool   `json:"devMode"`
}

// VerifyOTPRequest - POST verify-otp
type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// UserResponse - verify-otp and update-profile success body
type UserResponse struct {
	Success bool     `json:"success"`
	User    *Profile `json:"user"`
}

// UpdateProfileRequest - POST update-profile
type UpdateProfileRequest struct {
	Phone   string                 `json:"phone"`
	Step    string                 `json:"step"`
	Payload map[string]interface{} `json:"payload"`
	DevMode bool                   `json:"devMode"`
}

// OtpCode - otp_codes row, one per phone
type OtpCode struct {
	ID          int64     `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	OTPCode     string    `json:"otp_code"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// RateLimitWindow - otp_rate_limits row keyed by (phone_number, device_id)
type RateLimitWindow struct {
	PhoneNumber   string    `json:"phone_number"`
	DeviceID      string    `json:"device_id"`
	AttemptCount  int       `json:"attempt_count"`
	WindowStartAt time.Time `json:"window_start_at"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}
