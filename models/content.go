package models

import "time"

// Lesson video styles
const (
	StyleNote   = "note"
	StyleBook   = "book"
	StyleSample = "sample"

	ContentPublished = "published"
)

// CreateContentRequest - POST create-content
type CreateContentRequest struct {
	Branch         string   `json:"branch" validate:"required"`
	Grade          string   `json:"grade" validate:"required"`
	Track          *string  `json:"track"`
	Subject        string   `json:"subject" validate:"required"`
	SubjectSlug    string   `json:"subject_slug" validate:"required"`
	ChapterOrder   int      `json:"chapter_order" validate:"gte=1"`
	ChapterTitle   string   `json:"chapter_title" validate:"required"`
	LessonOrder    int      `json:"lesson_order" validate:"gte=1"`
	LessonTitle    string   `json:"lesson_title" validate:"required"`
	TeacherName    string   `json:"teacher_name" validate:"required"`
	Style          string   `json:"style"`
	AparatURL      string   `json:"aparat_url"`
	DurationSec    int      `json:"duration_sec" validate:"gte=0"`
	Tags           []string `json:"tags"`
	PrereqLessonID *int64   `json:"prereq_lesson_id"`
	Active         *bool    `json:"active"`
	ContentStatus  string   `json:"content_status" validate:"omitempty,oneof=draft published archived"`
	EmbedHTML      *string  `json:"embed_html"`
	AllowLandscape *bool    `json:"allow_landscape"`
	NotePDFURL     *string  `json:"note_pdf_url"`
	ExercisePDFURL *string  `json:"exercise_pdf_url"`
}

// ContentIDs - ids resolved or created by the cascade
type ContentIDs struct {
	BranchID       int64  `json:"branch_id"`
	GradeID        int64  `json:"grade_id"`
	TrackID        *int64 `json:"track_id"`
	SubjectID      int64  `json:"subject_id"`
	SubjectOfferID int64  `json:"subject_offer_id"`
	ChapterID      int64  `json:"chapter_id"`
	TeacherID      int64  `json:"teacher_id"`
	LessonVideoID  int64  `json:"lesson_video_id"`
}

// LessonVideo - lesson_videos row; unique on (chapter_id, lesson_order, lesson_title, teacher_id, style)
type LessonVideo struct {
	ID             int64      `json:"id"`
	ChapterID      int64      `json:"chapter_id"`
	ChapterOrder   int        `json:"chapter_order"`
	ChapterTitle   string     `json:"chapter_title"`
	LessonOrder    int        `json:"lesson_order"`
	LessonTitle    string     `json:"lesson_title"`
	TeacherID      int64      `json:"teacher_id"`
	Style          string     `json:"style"`
	AparatURL      string     `json:"aparat_url"`
	DurationSec    int        `json:"duration_sec"`
	Tags           []string   `json:"tags"`
	PrereqLessonID *int64     `json:"prereq_lesson_id"`
	ContentStatus  string     `json:"content_status"`
	Active         bool       `json:"active"`
	EmbedHTML      *string    `json:"embed_html"`
	AllowLandscape bool       `json:"allow_landscape"`
	NotePDFURL     *string    `json:"note_pdf_url"`
	ExercisePDFURL *string    `json:"exercise_pdf_url"`
	ViewCount      int64      `json:"view_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// UpdateContentRequest - POST update-content
type UpdateContentRequest struct {
	LessonVideoID int64          `json:"lesson_video_id" validate:"required,gt=0"`
	Updates       ContentUpdates `json:"updates"`
}

// ContentUpdates - nil fields are left unchanged
type ContentUpdates struct {
	AparatURL      *string   `json:"aparat_url"`
	DurationSec    *int      `json:"duration_sec" validate:"omitempty,gte=0"`
	Tags           *[]string `json:"tags"`
	PrereqLessonID *int64    `json:"prereq_lesson_id"`
	Active         *bool     `json:"active"`
	ContentStatus  *string   `json:"content_status" validate:"omitempty,oneof=draft published archived"`
	Style          *string   `json:"style"`
	TeacherName    *string   `json:"teacher_name"`
	EmbedHTML      *string   `json:"embed_html"`
	AllowLandscape *bool     `json:"allow_landscape"`
	NotePDFURL     *string   `json:"note_pdf_url"`
	ExercisePDFURL *string   `json:"exercise_pdf_url"`
}

// LessonVideoIDRequest - delete-content and increment-view
type LessonVideoIDRequest struct {
	LessonVideoID int64 `json:"lesson_video_id" validate:"required,gt=0"`
}

// ContentResponse - generic {success, message, data} body
type ContentResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ViewCountResponse - increment-view success body
type ViewCountResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ViewCount int64  `json:"view_count"`
}

// ContentChange - websocket event payload
type ContentChange struct {
	Table   string `json:"table"`
	ID      int64  `json:"id,omitempty"`
	GradeID *int64 `json:"grade_id,omitempty"`
	Action  string `json:"action"`
}
