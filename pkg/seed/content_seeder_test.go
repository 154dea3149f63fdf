package seed

import (
	"context"
	"errors"
	"testing"

	"nardeboun-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCreator struct {
	titles []string
	failOn string
}

func (c *recordingCreator) Create(_ context.Context, req *models.CreateContentRequest) (*models.ContentIDs, error) {
	if req.LessonTitle == c.failOn {
		return nil, errors.New("insert failed")
	}
	c.titles = append(c.titles, req.LessonTitle)
	return &models.ContentIDs{LessonVideoID: int64(len(c.titles))}, nil
}

func TestSeedSampleContent(t *testing.T) {
	creator := &recordingCreator{}

	n, err := SeedSampleContent(context.Background(), creator, SampleLessons)
	require.NoError(t, err)
	assert.Equal(t, len(SampleLessons), n)
	require.Len(t, creator.titles, len(SampleLessons))
	assert.Equal(t, SampleLessons[0].LessonTitle, creator.titles[0])
}

func TestSeedSampleContent_StopsOnError(t *testing.T) {
	creator := &recordingCreator{failOn: SampleLessons[1].LessonTitle}

	n, err := SeedSampleContent(context.Background(), creator, SampleLessons)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), SampleLessons[1].LessonTitle)
}

func TestSampleLessons_AreComplete(t *testing.T) {
	for _, l := range SampleLessons {
		assert.NotEmpty(t, l.Branch)
		assert.NotEmpty(t, l.Grade)
		assert.NotEmpty(t, l.SubjectSlug)
		assert.GreaterOrEqual(t, l.ChapterOrder, 1)
		assert.GreaterOrEqual(t, l.LessonOrder, 1)
		assert.NotEmpty(t, l.TeacherName)
	}
}
