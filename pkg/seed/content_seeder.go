package seed

import (
	"context"
	"fmt"

	"nardeboun-backend/models"
	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
)

// ContentCreator is satisfied by *service.ContentService.
type ContentCreator interface {
	Create(ctx context.Context, req *models.CreateContentRequest) (*models.ContentIDs, error)
}

func strPtr(s string) *string { return &s }

// SampleLessons - a small catalog for local development
var SampleLessons = []models.CreateContentRequest{
	{
		Branch: "متوسط دوم", Grade: "دهم", Track: strPtr("ریاضی فیزیک"),
		Subject: "ریاضی ۱", SubjectSlug: "math-1",
		ChapterOrder: 1, ChapterTitle: "مجموعه، الگو و دنباله",
		LessonOrder: 1, LessonTitle: "مجموعه‌های متناهی و نامتناهی",
		TeacherName: "استاد نمونه", Style: "جزوه", DurationSec: 1260,
		Tags: []string{"مجموعه", "پایه"},
	},
	{
		Branch: "متوسط دوم", Grade: "دهم", Track: strPtr("ریاضی فیزیک"),
		Subject: "ریاضی ۱", SubjectSlug: "math-1",
		ChapterOrder: 1, ChapterTitle: "مجموعه، الگو و دنباله",
		LessonOrder: 2, LessonTitle: "دنباله‌های حسابی",
		TeacherName: "استاد نمونه", DurationSec: 1500,
	},
	{
		Branch: "متوسط اول", Grade: "هفتم",
		Subject: "علوم تجربی", SubjectSlug: "science-7",
		ChapterOrder: 1, ChapterTitle: "تجربه و تفکر",
		LessonOrder: 1, LessonTitle: "اندازه‌گیری در علوم",
		TeacherName: "استاد نمونه", DurationSec: 900,
	},
}

// SeedSampleContent runs each lesson through the creation cascade.
// Every step is find-or-create, so reruns leave the catalog unchanged.
func SeedSampleContent(ctx context.Context, creator ContentCreator, lessons []models.CreateContentRequest) (int, error) {
	for i := range lessons {
		req := lessons[i]
		ids, err := creator.Create(ctx, &req)
		if err != nil {
			return i, fmt.Errorf("seed lesson «%s»: %w", req.LessonTitle, err)
		}
		logger.Debug("sample lesson ready",
			zap.String("lesson", req.LessonTitle),
			zap.Int64("lesson_id", ids.LessonVideoID),
		)
	}
	logger.Info("sample content seeded", zap.Int("lessons", len(lessons)))
	return len(lessons), nil
}
