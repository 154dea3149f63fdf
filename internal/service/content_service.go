package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/validator"

	"go.uber.org/zap"
)

const (
	tableBranches      = "branches"
	tableGrades        = "grades"
	tableTracks        = "tracks"
	tableSubjects      = "subjects"
	tableSubjectOffers = "subject_offers"
	tableChapters      = "chapters"
	tableTeachers      = "teachers"
	tableLessonVideos  = "lesson_videos"

	contentRequiredFields = "فیلدهای الزامی: branch, grade, subject, subject_slug, chapter_title, chapter_order (>= 1), lesson_title, lesson_order (>= 1), teacher_name"
	videoNotFound         = "ویدیو یافت نشد"
)

type col = repository.Column

// ContentService - resolution cascade and lesson video maintenance
type ContentService struct {
	entities repository.EntityRepo
	videos   repository.LessonVideoRepo
	notifier ChangeNotifier
	now      Clock
}

func NewContentService(entities repository.EntityRepo, videos repository.LessonVideoRepo, notifier ChangeNotifier, now Clock) *ContentService {
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ContentService{entities: entities, videos: videos, notifier: notifier, now: now}
}

func (s *ContentService) resolve(ctx context.Context, table string, key, values []repository.Column) (int64, error) {
	id, err := findOrCreate(ctx, s.entities, table, key, values)
	if err != nil {
		return 0, apperror.NewDatabaseError("resolve "+table, err)
	}
	return id, nil
}

func (s *ContentService) resolveTeacher(ctx context.Context, name string) (int64, error) {
	key := []repository.Column{{Name: "name", Value: name}}
	return s.resolve(ctx, tableTeachers, key, key)
}

// Create resolves branch, grade, track, subject, offer, chapter and teacher, then upserts the video
func (s *ContentService) Create(ctx context.Context, req *models.CreateContentRequest) (*models.ContentIDs, error) {
	if err := validator.Validate(req); err != nil {
		return nil, apperror.NewValidationError(contentRequiredFields)
	}

	var ids models.ContentIDs
	var err error

	branchKey := []repository.Column{{Name: "name", Value: req.Branch}}
	if ids.BranchID, err = s.resolve(ctx, tableBranches, branchKey, branchKey); err != nil {
		return nil, err
	}

	gradeKey := []repository.Column{{Name: "branch_id", Value: ids.BranchID}, {Name: "name", Value: req.Grade}}
	if ids.GradeID, err = s.resolve(ctx, tableGrades, gradeKey, gradeKey); err != nil {
		return nil, err
	}

	if req.Track != nil && *req.Track != "" {
		trackKey := []repository.Column{{Name: "name", Value: *req.Track}}
		trackID, err := s.resolve(ctx, tableTracks, trackKey, trackKey)
		if err != nil {
			return nil, err
		}
		ids.TrackID = &trackID
	}

	subjectKey := []repository.Column{{Name: "slug", Value: req.SubjectSlug}}
	subjectValues := []repository.Column{
		{Name: "name", Value: req.Subject},
		{Name: "slug", Value: req.SubjectSlug},
		{Name: "icon_path", Value: fmt.Sprintf("assets/images/icon-darsha/%s.png", req.SubjectSlug)},
		{Name: "book_cover_path", Value: fmt.Sprintf("assets/images/book-covers/%s%s.jpg", req.SubjectSlug, req.Grade)},
	}
	if ids.SubjectID, err = s.resolve(ctx, tableSubjects, subjectKey, subjectValues); err != nil {
		return nil, err
	}

	// a nil track_id matches with IS NULL
	var trackValue interface{}
	if ids.TrackID != nil {
		trackValue = *ids.TrackID
	}
	offerKey := []repository.Column{
		{Name: "subject_id", Value: ids.SubjectID},
		{Name: "grade_id", Value: ids.GradeID},
		{Name: "track_id", Value: trackValue},
	}
	if ids.SubjectOfferID, err = s.resolve(ctx, tableSubjectOffers, offerKey, offerKey); err != nil {
		return nil, err
	}

	chapterKey := []repository.Column{
		{Name: "subject_offer_id", Value: ids.SubjectOfferID},
		{Name: "chapter_order", Value: req.ChapterOrder},
	}
	chapterValues := append(append([]repository.Column{}, chapterKey...),
		col{Name: "title", Value: req.ChapterTitle},
		col{Name: "chapter_image_path", Value: fmt.Sprintf("assets/images/chapter-images/%s%s_ch%d.jpg",
			req.SubjectSlug, req.Grade, req.ChapterOrder)},
	)
	if ids.ChapterID, err = s.resolve(ctx, tableChapters, chapterKey, chapterValues); err != nil {
		return nil, err
	}

	if ids.TeacherID, err = s.resolveTeacher(ctx, req.TeacherName); err != nil {
		return nil, err
	}

	video := &models.LessonVideo{
		ChapterID:      ids.ChapterID,
		ChapterOrder:   req.ChapterOrder,
		ChapterTitle:   req.ChapterTitle,
		LessonOrder:    req.LessonOrder,
		LessonTitle:    req.LessonTitle,
		TeacherID:      ids.TeacherID,
		Style:          validator.NormalizeStyle(req.Style),
		AparatURL:      req.AparatURL,
		DurationSec:    req.DurationSec,
		Tags:           req.Tags,
		PrereqLessonID: req.PrereqLessonID,
		ContentStatus:  req.ContentStatus,
		Active:         req.Active == nil || *req.Active,
		EmbedHTML:      req.EmbedHTML,
		AllowLandscape: req.AllowLandscape == nil || *req.AllowLandscape,
		NotePDFURL:     req.NotePDFURL,
		ExercisePDFURL: req.ExercisePDFURL,
	}
	if video.Tags == nil {
		video.Tags = []string{}
	}
	if video.ContentStatus == "" {
		video.ContentStatus = models.ContentPublished
	}
	if video.EmbedHTML != nil && *video.EmbedHTML == "" {
		video.EmbedHTML = nil
	}

	if ids.LessonVideoID, err = s.videos.Upsert(ctx, video); err != nil {
		return nil, apperror.NewDatabaseError("upsert lesson video", err)
	}

	gradeID := ids.GradeID
	s.notifier.Publish(models.ContentChange{Table: tableLessonVideos, ID: ids.LessonVideoID, GradeID: &gradeID, Action: "upsert"})

	logger.Info("content created",
		zap.Int64("lesson_video_id", ids.LessonVideoID),
		zap.Int64("chapter_id", ids.ChapterID),
		zap.String("style", video.Style))
	return &ids, nil
}

// Update applies the non-nil fields; teacher_name is resolved to a teacher id
func (s *ContentService) Update(ctx context.Context, req *models.UpdateContentRequest) (*models.LessonVideo, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.videos.Get(ctx, req.LessonVideoID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFoundError(videoNotFound)
		}
		return nil, apperror.NewDatabaseError("read lesson video", err)
	}

	u := req.Updates
	fields := []repository.Column{{Name: "updated_at", Value: s.now()}}

	if u.TeacherName != nil && *u.TeacherName != "" {
		teacherID, err := s.resolveTeacher(ctx, *u.TeacherName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, col{Name: "teacher_id", Value: teacherID})
	}
	if u.AparatURL != nil {
		fields = append(fields, col{Name: "aparat_url", Value: *u.AparatURL})
	}
	if u.DurationSec != nil {
		fields = append(fields, col{Name: "duration_sec", Value: *u.DurationSec})
	}
	if u.Tags != nil {
		tags := *u.Tags
		if tags == nil {
			tags = []string{}
		}
		fields = append(fields, col{Name: "tags", Value: tags})
	}
	if u.PrereqLessonID != nil {
		fields = append(fields, col{Name: "prereq_lesson_id", Value: *u.PrereqLessonID})
	}
	if u.Active != nil {
		fields = append(fields, col{Name: "active", Value: *u.Active})
	}
	if u.ContentStatus != nil {
		fields = append(fields, col{Name: "content_status", Value: *u.ContentStatus})
	}
	if u.Style != nil {
		fields = append(fields, col{Name: "style", Value: validator.NormalizeStyle(*u.Style)})
	}
	if u.EmbedHTML != nil {
		fields = append(fields, col{Name: "embed_html", Value: *u.EmbedHTML})
	}
	if u.AllowLandscape != nil {
		fields = append(fields, col{Name: "allow_landscape", Value: *u.AllowLandscape})
	}
	if u.NotePDFURL != nil {
		fields = append(fields, col{Name: "note_pdf_url", Value: *u.NotePDFURL})
	}
	if u.ExercisePDFURL != nil {
		fields = append(fields, col{Name: "exercise_pdf_url", Value: *u.ExercisePDFURL})
	}

	video, err := s.videos.Update(ctx, req.LessonVideoID, fields)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewNotFoundError(videoNotFound)
	}
	if err != nil {
		return nil, apperror.NewDatabaseError("update lesson video", err)
	}

	s.notifier.Publish(models.ContentChange{Table: tableLessonVideos, ID: video.ID, Action: "update"})
	return video, nil
}

// Delete removes a lesson video; 404 when absent
func (s *ContentService) Delete(ctx context.Context, req *models.LessonVideoIDRequest) error {
	if err := validator.Validate(req); err != nil {
		return apperror.NewValidationError("lesson_video_id الزامی است")
	}

	err := s.videos.Delete(ctx, req.LessonVideoID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NewNotFoundError(videoNotFound)
	}
	if err != nil {
		return apperror.NewDatabaseError("delete lesson video", err)
	}

	s.notifier.Publish(models.ContentChange{Table: tableLessonVideos, ID: req.LessonVideoID, Action: "delete"})
	logger.Info("lesson video deleted", zap.Int64("lesson_video_id", req.LessonVideoID))
	return nil
}

// IncrementView bumps the counter of an active video
func (s *ContentService) IncrementView(ctx context.Context, req *models.LessonVideoIDRequest) (int64, error) {
	if err := validator.Validate(req); err != nil {
		return 0, apperror.NewValidationError("lesson_video_id الزامی است")
	}

	count, err := s.videos.IncrementView(ctx, req.LessonVideoID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return 0, apperror.NewNotFoundError("ویدیو یافت نشد یا غیرفعال است")
	}
	if err != nil {
		return 0, apperror.NewDatabaseError("increment view", err)
	}
	return count, nil
}
