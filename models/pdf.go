package models

import "time"

// PDF kinds accepted by update/delete-pdf-content
const (
	PDFKindStepByStep       = "step_by_step"
	PDFKindProvincialSample = "provincial_sample"

	TableStepByStepPDFs       = "step_by_step_pdfs"
	TableProvincialSamplePDFs = "provincial_sample_pdfs"
)

// StepByStepPDF - step_by_step_pdfs row
type StepByStepPDF struct {
	ID         int64     `json:"id"`
	Level      string    `json:"level"`
	GradeID    int64     `json:"grade_id"`
	TrackID    *int64    `json:"track_id"`
	SubjectID  int64     `json:"subject_id"`
	Title      string    `json:"title"`
	PDFURL     string    `json:"pdf_url"`
	FileSizeMB *float64  `json:"file_size_mb"`
	PageCount  *int      `json:"page_count"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProvincialSamplePDF - provincial_sample_pdfs row
type ProvincialSamplePDF struct {
	ID        int64     `json:"id"`
	GradeID   int64     `json:"grade_id"`
	BookID    string    `json:"book_id"`
	PDFTitle  string    `json:"pdf_title"`
	Type      string    `json:"type"`
	Year      *int      `json:"year"`
	Author    string    `json:"author"`
	HasAnswer bool      `json:"has_answer"`
	Size      *float64  `json:"size"`
	PDFURL    string    `json:"pdf_url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateStepByStepPDFRequest - POST create-step-by-step-pdf
type CreateStepByStepPDFRequest struct {
	Branch      string   `json:"branch" validate:"required"`
	GradeName   string   `json:"grade_name" validate:"required"`
	GradeID     int64    `json:"grade_id" validate:"required,gt=0"`
	TrackID     *int64   `json:"track_id"`
	SubjectName string   `json:"subject_name" validate:"required"`
	SubjectID   int64    `json:"subject_id" validate:"required,gt=0"`
	Level       string   `json:"level" validate:"required,edu_level"`
	Title       string   `json:"title" validate:"required"`
	PDFURL      string   `json:"pdf_url" validate:"required"`
	FileSizeMB  *float64 `json:"file_size_mb"`
	PageCount   *int     `json:"page_count"`
	Active      *bool    `json:"active"`
}

// CreateProvincialSamplePDFRequest - POST create-provincial-sample-pdf
type CreateProvincialSamplePDFRequest struct {
	GradeID   int64    `json:"grade_id" validate:"required,gt=0"`
	BookID    string   `json:"book_id" validate:"required"`
	PDFTitle  string   `json:"pdf_title" validate:"required"`
	Type      string   `json:"type" validate:"required,exam_type"`
	Year      *int     `json:"year"`
	Author    string   `json:"author" validate:"required"`
	HasAnswer bool     `json:"has_answer"`
	Size      *float64 `json:"size"`
	PDFURL    string   `json:"pdf_url" validate:"required"`
	Active    *bool    `json:"active"`
}

// PDFUpdates - union of editable columns; fields not valid for the kind are ignored
type PDFUpdates struct {
	// both kinds
	GradeID *int64  `json:"grade_id" validate:"omitempty,gt=0"`
	PDFURL  *string `json:"pdf_url"`
	Active  *bool   `json:"active"`

	// step_by_step
	Title      *string  `json:"title"`
	Level      *string  `json:"level" validate:"omitempty,edu_level"`
	FileSizeMB *float64 `json:"file_size_mb"`
	PageCount  *int     `json:"page_count"`

	// provincial_sample
	BookID    *string  `json:"book_id"`
	PDFTitle  *string  `json:"pdf_title"`
	Type      *string  `json:"type" validate:"omitempty,exam_type"`
	Year      *int     `json:"year"`
	Author    *string  `json:"author"`
	HasAnswer *bool    `json:"has_answer"`
	Size      *float64 `json:"size"`
}

// UpdatePDFRequest - POST update-pdf-content
type UpdatePDFRequest struct {
	PDFType string     `json:"pdf_type" validate:"required,pdf_kind"`
	PDFID   int64      `json:"pdf_id" validate:"required,gt=0"`
	Updates PDFUpdates `json:"updates"`
}

// DeletePDFRequest - POST delete-pdf-content
type DeletePDFRequest struct {
	PDFType string `json:"pdf_type" validate:"required,pdf_kind"`
	PDFID   int64  `json:"pdf_id" validate:"required,gt=0"`
}

// StepByStepCreatedResponse - create-step-by-step-pdf success body
type StepByStepCreatedResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    StepByStepCreated `json:"data"`
}

type StepByStepCreated struct {
	StepByStepPDFID int64 `json:"step_by_step_pdf_id"`
	GradeID         int64 `json:"grade_id"`
	SubjectID       int64 `json:"subject_id"`
}

// PDFCreatedResponse - create-provincial-sample-pdf success body
type PDFCreatedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PDFID   int64  `json:"pdf_id"`
}

// PDFUpdatedResponse - update-pdf-content success body
type PDFUpdatedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	PDF     interface{} `json:"pdf"`
}

// PDFDeletedResponse - delete-pdf-content success body
type PDFDeletedResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedPDFID int64  `json:"deleted_pdf_id"`
}

// UploadPDFResponse - upload-pdf success body
type UploadPDFResponse struct {
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}
