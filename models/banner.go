package models

import "time"

// Banner - home screen banner
type Banner struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	ImageURL    string    `json:"image_url"`
	LinkURL     *string   `json:"link_url"`
	Position    int       `json:"position"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateBannerRequest - POST create-banner
type CreateBannerRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	ImageURL    string  `json:"image_url" validate:"required"`
	LinkURL     *string `json:"link_url"`
	Position    int     `json:"position" validate:"required,gt=0"`
	IsActive    *bool   `json:"is_active"`
	GradeID     *int64  `json:"grade_id"`
}

// BannerCreatedResponse - create-banner success body
type BannerCreatedResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	BannerID int64  `json:"banner_id"`
}
