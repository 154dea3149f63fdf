package service

import (
	"context"
	"net/http"
	"testing"

	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContent() *models.CreateContentRequest {
	return &models.CreateContentRequest{
		Branch:       "متوسطه دوم",
		Grade:        "10",
		Subject:      "ریاضی",
		SubjectSlug:  "riazi",
		ChapterOrder: 2,
		ChapterTitle: "توان",
		LessonOrder:  1,
		LessonTitle:  "مقدمه",
		TeacherName:  "رضایی",
		Style:        "جزوه",
		AparatURL:    "https://aparat.com/v/abc",
		DurationSec:  600,
	}
}

type contentFixture struct {
	entities *fakeEntityRepo
	videos   *fakeVideoRepo
	notifier *recordingNotifier
	clock    *fakeClock
	svc      *ContentService
}

func newContentFixture() *contentFixture {
	f := &contentFixture{
		entities: newFakeEntityRepo(),
		videos:   newFakeVideoRepo(),
		notifier: &recordingNotifier{},
		clock:    newClock(),
	}
	f.svc = NewContentService(f.entities, f.videos, f.notifier, f.clock.Now)
	return f
}

func TestContentService_CreateCascade(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()

	ids, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)
	assert.Nil(t, ids.TrackID)

	subject := f.entities.row(tableSubjects, ids.SubjectID)
	assert.Equal(t, "assets/images/icon-darsha/riazi.png", subject["icon_path"])
	assert.Equal(t, "assets/images/book-covers/riazi10.jpg", subject["book_cover_path"])

	chapter := f.entities.row(tableChapters, ids.ChapterID)
	assert.Equal(t, "توان", chapter["title"])
	assert.Equal(t, "assets/images/chapter-images/riazi10_ch2.jpg", chapter["chapter_image_path"])
	assert.Equal(t, ids.SubjectOfferID, chapter["subject_offer_id"])

	video := f.videos.videos[ids.LessonVideoID]
	require.NotNil(t, video)
	assert.Equal(t, models.StyleNote, video.Style)
	assert.Equal(t, ids.ChapterID, video.ChapterID)
	assert.Equal(t, ids.TeacherID, video.TeacherID)
	assert.Equal(t, []string{}, video.Tags)
	assert.Equal(t, models.ContentPublished, video.ContentStatus)
	assert.True(t, video.Active)
	assert.True(t, video.AllowLandscape)

	require.Len(t, f.notifier.changes, 1)
	change := f.notifier.changes[0]
	assert.Equal(t, "lesson_videos", change.Table)
	require.NotNil(t, change.GradeID)
	assert.Equal(t, ids.GradeID, *change.GradeID)
}

func TestContentService_CreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()

	first, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for _, table := range []string{tableBranches, tableGrades, tableSubjects, tableSubjectOffers, tableChapters, tableTeachers} {
		assert.Equal(t, 1, f.entities.inserts[table], table)
	}
	assert.Len(t, f.videos.videos, 1)
}

func TestContentService_TrackSeparatesOffers(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()

	plain, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)

	withTrack := sampleContent()
	withTrack.Track = strPtr("ریاضی فیزیک")
	tracked, err := f.svc.Create(ctx, withTrack)
	require.NoError(t, err)

	require.NotNil(t, tracked.TrackID)
	assert.Equal(t, plain.SubjectID, tracked.SubjectID)
	assert.NotEqual(t, plain.SubjectOfferID, tracked.SubjectOfferID)
	assert.NotEqual(t, plain.ChapterID, tracked.ChapterID)
}

func TestContentService_CreateResolvesRacedInsert(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()
	f.entities.conflictOnce[tableGrades] = true

	ids, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)
	assert.NotZero(t, ids.GradeID)
	assert.Len(t, f.entities.tables[tableGrades], 1)
}

func TestContentService_CreateValidation(t *testing.T) {
	f := newContentFixture()
	req := sampleContent()
	req.LessonOrder = 0

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.HasStatus(err, http.StatusBadRequest))
	assert.Equal(t, contentRequiredFields, apperror.FromError(err).Message)
	assert.Empty(t, f.entities.tables)
}

func TestContentService_CreateDatabaseFailure(t *testing.T) {
	f := newContentFixture()
	f.entities.findErr = errBoom

	_, err := f.svc.Create(context.Background(), sampleContent())
	assert.True(t, apperror.HasStatus(err, http.StatusInternalServerError))
}

func TestContentService_Update(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()
	ids, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)

	video, err := f.svc.Update(ctx, &models.UpdateContentRequest{
		LessonVideoID: ids.LessonVideoID,
		Updates: models.ContentUpdates{
			TeacherName: strPtr("احمدی"),
			Style:       strPtr("نمونه سوال"),
			Active:      boolPtr(false),
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, ids.TeacherID, video.TeacherID)
	assert.Equal(t, models.StyleSample, video.Style)
	assert.False(t, video.Active)
	require.NotNil(t, video.UpdatedAt)
	assert.Equal(t, f.clock.Now(), *video.UpdatedAt)
	assert.Len(t, f.entities.tables[tableTeachers], 2)

	_, err = f.svc.Update(ctx, &models.UpdateContentRequest{LessonVideoID: 999})
	assert.True(t, apperror.HasStatus(err, http.StatusNotFound))
}

func TestContentService_DeleteAndViews(t *testing.T) {
	ctx := context.Background()
	f := newContentFixture()
	ids, err := f.svc.Create(ctx, sampleContent())
	require.NoError(t, err)
	req := &models.LessonVideoIDRequest{LessonVideoID: ids.LessonVideoID}

	count, err := f.svc.IncrementView(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = f.svc.IncrementView(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	f.videos.videos[ids.LessonVideoID].Active = false
	_, err = f.svc.IncrementView(ctx, req)
	assert.True(t, apperror.HasStatus(err, http.StatusNotFound))

	require.NoError(t, f.svc.Delete(ctx, req))
	assert.Empty(t, f.videos.videos)
	assert.True(t, apperror.HasStatus(f.svc.Delete(ctx, req), http.StatusNotFound))

	err = f.svc.Delete(ctx, &models.LessonVideoIDRequest{})
	assert.True(t, apperror.HasStatus(err, http.StatusBadRequest))
}
