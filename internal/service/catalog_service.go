package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/validator"

	"go.uber.org/zap"
)

const (
	tableBanners = "banners"

	pdfNotFound = "PDF یافت نشد"
)

// FileStore - object storage for uploaded PDFs
type FileStore interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) error
	PublicURL(objectPath string) string
}

// UploadInput - one multipart upload
type UploadInput struct {
	Filename    string
	ContentType string
	Type        string
	LessonID    string
	VideoID     string
	Body        io.Reader
}

// CatalogService - banners, PDFs, uploads and content counts
type CatalogService struct {
	entities repository.EntityRepo
	banners  repository.BannerRepo
	pdfs     repository.PDFRepo
	counts   repository.CountsRepo
	changes  repository.ChangeCounter
	files    FileStore
	notifier ChangeNotifier
	now      Clock
}

// CatalogDeps groups the CatalogService collaborators
type CatalogDeps struct {
	Entities repository.EntityRepo
	Banners  repository.BannerRepo
	PDFs     repository.PDFRepo
	Counts   repository.CountsRepo
	Changes  repository.ChangeCounter
	Files    FileStore
	Notifier ChangeNotifier
	Now      Clock
}

func NewCatalogService(d CatalogDeps) *CatalogService {
	s := &CatalogService{
		entities: d.Entities,
		banners:  d.Banners,
		pdfs:     d.PDFs,
		counts:   d.Counts,
		changes:  d.Changes,
		files:    d.Files,
		notifier: d.Notifier,
		now:      d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	return s
}

// afterChange bumps the change counter and notifies listeners
func (s *CatalogService) afterChange(ctx context.Context, table, action string, id int64, gradeID *int64) {
	bumpChangeCount(ctx, s.changes, table, gradeID)
	s.notifier.Publish(models.ContentChange{Table: table, ID: id, GradeID: gradeID, Action: action})
}

// CreateBanner stores a banner; is_active defaults to true
func (s *CatalogService) CreateBanner(ctx context.Context, req *models.CreateBannerRequest) (*models.Banner, error) {
	if req.Title == "" || req.ImageURL == "" || req.Position == 0 {
		return nil, apperror.NewValidationError("عنوان، لینک تصویر و موقعیت نمایش الزامی هستند")
	}
	if err := validator.Validate(req); err != nil {
		return nil, apperror.NewValidationError("موقعیت نمایش باید عدد صحیح مثبت باشد")
	}

	banner := &models.Banner{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		LinkURL:     req.LinkURL,
		Position:    req.Position,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := s.banners.Create(ctx, banner); err != nil {
		return nil, apperror.NewDatabaseError("create banner", err)
	}

	s.afterChange(ctx, tableBanners, "create", banner.ID, req.GradeID)
	logger.Info("banner created", zap.Int64("banner_id", banner.ID), zap.Int("position", banner.Position))
	return banner, nil
}

func (s *CatalogService) requireExists(ctx context.Context, table, field string, id int64) error {
	ok, err := s.entities.Exists(ctx, table, id)
	if err != nil {
		return apperror.NewDatabaseError("check "+table, err)
	}
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("%s %d یافت نشد", field, id))
	}
	return nil
}

// CreateStepByStepPDF checks grade, subject and track, then inserts the PDF
func (s *CatalogService) CreateStepByStepPDF(ctx context.Context, req *models.CreateStepByStepPDFRequest) (*models.StepByStepCreated, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if err := s.requireExists(ctx, tableGrades, "grade_id", req.GradeID); err != nil {
		return nil, err
	}
	if err := s.requireExists(ctx, tableSubjects, "subject_id", req.SubjectID); err != nil {
		return nil, err
	}
	if req.TrackID != nil {
		if err := s.requireExists(ctx, tableTracks, "track_id", *req.TrackID); err != nil {
			return nil, err
		}
	}

	pdf := &models.StepByStepPDF{
		Level:      req.Level,
		GradeID:    req.GradeID,
		TrackID:    req.TrackID,
		SubjectID:  req.SubjectID,
		Title:      req.Title,
		PDFURL:     req.PDFURL,
		FileSizeMB: req.FileSizeMB,
		PageCount:  req.PageCount,
		Active:     req.Active == nil || *req.Active,
	}
	if err := s.pdfs.CreateStepByStep(ctx, pdf); err != nil {
		return nil, apperror.NewDatabaseError("create step-by-step pdf", err)
	}

	gradeID := pdf.GradeID
	s.afterChange(ctx, models.TableStepByStepPDFs, "create", pdf.ID, &gradeID)
	logger.Info("step-by-step pdf created", zap.Int64("pdf_id", pdf.ID), zap.Int64("grade_id", gradeID))

	return &models.StepByStepCreated{
		StepByStepPDFID: pdf.ID,
		GradeID:         pdf.GradeID,
		SubjectID:       pdf.SubjectID,
	}, nil
}

// CreateProvincialSamplePDF inserts an exam sample PDF
func (s *CatalogService) CreateProvincialSamplePDF(ctx context.Context, req *models.CreateProvincialSamplePDFRequest) (int64, error) {
	if err := validator.Validate(req); err != nil {
		return 0, err
	}

	pdf := &models.ProvincialSamplePDF{
		GradeID:   req.GradeID,
		BookID:    req.BookID,
		PDFTitle:  req.PDFTitle,
		Type:      req.Type,
		Year:      req.Year,
		Author:    req.Author,
		HasAnswer: req.HasAnswer,
		Size:      req.Size,
		PDFURL:    req.PDFURL,
		Active:    req.Active == nil || *req.Active,
	}
	if err := s.pdfs.CreateProvincialSample(ctx, pdf); err != nil {
		return 0, apperror.NewDatabaseError("create provincial sample pdf", err)
	}

	gradeID := pdf.GradeID
	s.afterChange(ctx, models.TableProvincialSamplePDFs, "create", pdf.ID, &gradeID)
	logger.Info("provincial sample pdf created", zap.Int64("pdf_id", pdf.ID), zap.Int64("grade_id", gradeID))
	return pdf.ID, nil
}

func pdfTable(kind string) string {
	if kind == models.PDFKindStepByStep {
		return models.TableStepByStepPDFs
	}
	return models.TableProvincialSamplePDFs
}

// pdfColumns picks the editable columns that exist on the kind's table
func pdfColumns(kind string, u models.PDFUpdates) []repository.Column {
	var cols []repository.Column
	add := func(name string, set bool, value interface{}) {
		if set {
			cols = append(cols, repository.Column{Name: name, Value: value})
		}
	}

	add("grade_id", u.GradeID != nil, deref(u.GradeID))
	add("pdf_url", u.PDFURL != nil, deref(u.PDFURL))
	add("active", u.Active != nil, deref(u.Active))

	if kind == models.PDFKindStepByStep {
		add("title", u.Title != nil, deref(u.Title))
		add("level", u.Level != nil, deref(u.Level))
		add("file_size_mb", u.FileSizeMB != nil, deref(u.FileSizeMB))
		add("page_count", u.PageCount != nil, deref(u.PageCount))
		return cols
	}

	add("book_id", u.BookID != nil, deref(u.BookID))
	add("pdf_title", u.PDFTitle != nil, deref(u.PDFTitle))
	add("type", u.Type != nil, deref(u.Type))
	add("year", u.Year != nil, deref(u.Year))
	add("author", u.Author != nil, deref(u.Author))
	add("has_answer", u.HasAnswer != nil, deref(u.HasAnswer))
	add("size", u.Size != nil, deref(u.Size))
	return cols
}

func deref(v interface{}) interface{} {
	switch p := v.(type) {
	case *int64:
		if p != nil {
			return *p
		}
	case *int:
		if p != nil {
			return *p
		}
	case *float64:
		if p != nil {
			return *p
		}
	case *string:
		if p != nil {
			return *p
		}
	case *bool:
		if p != nil {
			return *p
		}
	}
	return nil
}

// UpdatePDF edits either PDF kind; the change counter uses the new grade when it moves
func (s *CatalogService) UpdatePDF(ctx context.Context, req *models.UpdatePDFRequest) (interface{}, error) {
	if req.PDFType == "" || req.PDFID == 0 {
		return nil, apperror.NewValidationError("pdf_type و pdf_id الزامی هستند")
	}
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	table := pdfTable(req.PDFType)
	existingGrade, err := s.pdfs.GradeOf(ctx, table, req.PDFID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewNotFoundError(pdfNotFound)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("read pdf", err)
	}

	cols := pdfColumns(req.PDFType, req.Updates)

	var updated interface{}
	if req.PDFType == models.PDFKindStepByStep {
		updated, err = s.pdfs.UpdateStepByStep(ctx, req.PDFID, cols)
	} else {
		updated, err = s.pdfs.UpdateProvincialSample(ctx, req.PDFID, cols)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewNotFoundError(pdfNotFound)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("update pdf", err)
	}

	gradeID := existingGrade
	if req.Updates.GradeID != nil {
		gradeID = *req.Updates.GradeID
	}
	s.afterChange(ctx, table, "update", req.PDFID, &gradeID)
	logger.Info("pdf updated", zap.String("table", table), zap.Int64("pdf_id", req.PDFID))
	return updated, nil
}

// DeletePDF removes either PDF kind; 404 when absent
func (s *CatalogService) DeletePDF(ctx context.Context, req *models.DeletePDFRequest) error {
	if req.PDFType == "" || req.PDFID == 0 {
		return apperror.NewValidationError("pdf_type و pdf_id الزامی هستند")
	}
	if err := validator.Validate(req); err != nil {
		return err
	}

	table := pdfTable(req.PDFType)
	gradeID, err := s.pdfs.GradeOf(ctx, table, req.PDFID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFoundError(pdfNotFound)
	}
	if err != nil {
		return apperror.NewDatabaseError("read pdf", err)
	}

	err = s.pdfs.Delete(ctx, table, req.PDFID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFoundError(pdfNotFound)
	}
	if err != nil {
		return apperror.NewDatabaseError("delete pdf", err)
	}

	s.afterChange(ctx, table, "delete", req.PDFID, &gradeID)
	logger.Info("pdf deleted", zap.String("table", table), zap.Int64("pdf_id", req.PDFID))
	return nil
}

// CheckUpdates counts the content tree for grade/track and caches the totals
func (s *CatalogService) CheckUpdates(ctx context.Context, req *models.CheckUpdatesRequest) (*models.CheckUpdatesResponse, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperror.NewValidationError("Invalid grade. Must be between 1-12.")
	}

	counts, err := s.counts.Count(ctx, req.Grade, req.Track)
	if err != nil {
		return nil, apperror.NewDatabaseError("count content", err)
	}

	now := s.now()
	if err := s.counts.Upsert(ctx, req.Grade, req.Track, counts, now); err != nil {
		logger.Warn("content counts cache update failed", zap.Int("grade", req.Grade), zap.Error(err))
	}

	return &models.CheckUpdatesResponse{
		Success:   true,
		Grade:     req.Grade,
		Track:     req.Track,
		Counts:    counts,
		Timestamp: now,
	}, nil
}

// isPathSegment - a single object path element that cannot climb out of its folder
func isPathSegment(seg string) bool {
	return !strings.ContainsAny(seg, `/\`) && !strings.Contains(seg, "..")
}

// UploadPDF stores the file under pdfs/{notes|exercises}/{lesson}/{video}/{unix_ms}.{ext}
func (s *CatalogService) UploadPDF(ctx context.Context, in UploadInput) (*models.UploadPDFResponse, error) {
	if in.Body == nil {
		return nil, apperror.NewValidationError("file is required")
	}

	folder := "notes"
	if in.Type == "exercise" {
		folder = "exercises"
	}
	lessonID := in.LessonID
	if lessonID == "" {
		lessonID = "unknown"
	}
	videoID := in.VideoID
	if videoID == "" {
		videoID = "unknown"
	}
	if !isPathSegment(lessonID) || !isPathSegment(videoID) {
		return nil, apperror.NewValidationError("lesson_id and video_id must not contain '/' or '..'")
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(in.Filename), "."))
	if ext == "" {
		ext = "pdf"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}

	objectPath := fmt.Sprintf("pdfs/%s/%s/%s/%d.%s", folder, lessonID, videoID, s.now().UnixMilli(), ext)
	if err := s.files.Upload(ctx, objectPath, in.Body, contentType); err != nil {
		return nil, apperror.NewUpstreamError("storage", err)
	}

	logger.Info("pdf uploaded", zap.String("path", objectPath))
	return &models.UploadPDFResponse{Path: objectPath, PublicURL: s.files.PublicURL(objectPath)}, nil
}
