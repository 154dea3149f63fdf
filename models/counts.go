package models

import "time"

// ContentCounts - per grade/track totals cached in content_counts
type ContentCounts struct {
	LessonVideosCount         int `json:"lesson_videos_count"`
	StepByStepPDFsCount       int `json:"step_by_step_pdfs_count"`
	ProvincialSamplePDFsCount int `json:"provincial_sample_pdfs_count"`
	ChaptersCount             int `json:"chapters_count"`
	SubjectsCount             int `json:"subjects_count"`
	LessonsCount              int `json:"lessons_count"`
}

// CheckUpdatesRequest - POST mini_request_check_updates
type CheckUpdatesRequest struct {
	Grade int    `json:"grade" validate:"required,gte=1,lte=12"`
	Track *int64 `json:"track"`
}

// CheckUpdatesResponse - counts for the requested grade/track
type CheckUpdatesResponse struct {
	Success   bool          `json:"success"`
	Grade     int           `json:"grade"`
	Track     *int64        `json:"track"`
	Counts    ContentCounts `json:"counts"`
	Timestamp time.Time     `json:"timestamp"`
}
