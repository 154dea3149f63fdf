package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"nardeboun-backend/models"

	"github.com/lib/pq"
)

// LessonVideoRepo - lesson_videos, the leaf of the content hierarchy
type LessonVideoRepo interface {
	Upsert(ctx context.Context, v *models.LessonVideo) (int64, error)
	Get(ctx context.Context, id int64) (*models.LessonVideo, error)
	Update(ctx context.Context, id int64, fields []Column) (*models.LessonVideo, error)
	Delete(ctx context.Context, id int64) error
	IncrementView(ctx context.Context, id int64, at time.Time) (int64, error)
}

type lessonVideoRepo struct {
	db *sql.DB
}

func NewLessonVideoRepo(db *sql.DB) LessonVideoRepo {
	return &lessonVideoRepo{db: db}
}

const lessonVideoColumns = `id, chapter_id, chapter_order, chapter_title, lesson_order, lesson_title, teacher_id,
	style, aparat_url, duration_sec, tags, prereq_lesson_id, content_status, active, embed_html,
	allow_landscape, note_pdf_url, exercise_pdf_url, view_count, created_at, updated_at`

var updatableVideoColumns = map[string]bool{
	"aparat_url":       true,
	"duration_sec":     true,
	"tags":             true,
	"prereq_lesson_id": true,
	"active":           true,
	"content_status":   true,
	"style":            true,
	"teacher_id":       true,
	"embed_html":       true,
	"allow_landscape":  true,
	"note_pdf_url":     true,
	"exercise_pdf_url": true,
	"updated_at":       true,
}

func scanLessonVideo(row interface{ Scan(...interface{}) error }) (*models.LessonVideo, error) {
	var v models.LessonVideo
	err := row.Scan(&v.ID, &v.ChapterID, &v.ChapterOrder, &v.ChapterTitle, &v.LessonOrder, &v.LessonTitle, &v.TeacherID,
		&v.Style, &v.AparatURL, &v.DurationSec, pq.Array(&v.Tags), &v.PrereqLessonID, &v.ContentStatus, &v.Active, &v.EmbedHTML,
		&v.AllowLandscape, &v.NotePDFURL, &v.ExercisePDFURL, &v.ViewCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Upsert overwrites every column except id on the natural key
func (r *lessonVideoRepo) Upsert(ctx context.Context, v *models.LessonVideo) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lesson_videos (chapter_id, chapter_order, chapter_title, lesson_order, lesson_title, teacher_id,
			style, aparat_url, duration_sec, tags, prereq_lesson_id, content_status, active, embed_html,
			allow_landscape, note_pdf_url, exercise_pdf_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (chapter_id, lesson_order, lesson_title, teacher_id, style)
		DO UPDATE SET chapter_order = EXCLUDED.chapter_order,
		              chapter_title = EXCLUDED.chapter_title,
		              aparat_url = EXCLUDED.aparat_url,
		              duration_sec = EXCLUDED.duration_sec,
		              tags = EXCLUDED.tags,
		              prereq_lesson_id = EXCLUDED.prereq_lesson_id,
		              content_status = EXCLUDED.content_status,
		              active = EXCLUDED.active,
		              embed_html = EXCLUDED.embed_html,
		              allow_landscape = EXCLUDED.allow_landscape,
		              note_pdf_url = EXCLUDED.note_pdf_url,
		              exercise_pdf_url = EXCLUDED.exercise_pdf_url,
		              updated_at = NOW()
		RETURNING id
	`, v.ChapterID, v.ChapterOrder, v.ChapterTitle, v.LessonOrder, v.LessonTitle, v.TeacherID,
		v.Style, v.AparatURL, v.DurationSec, pq.Array(v.Tags), v.PrereqLessonID, v.ContentStatus, v.Active, v.EmbedHTML,
		v.AllowLandscape, v.NotePDFURL, v.ExercisePDFURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert lesson video: %w", err)
	}
	return id, nil
}

func (r *lessonVideoRepo) Get(ctx context.Context, id int64) (*models.LessonVideo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lessonVideoColumns+` FROM lesson_videos WHERE id = $1`, id)
	v, err := scanLessonVideo(row)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (r *lessonVideoRepo) Update(ctx context.Context, id int64, fields []Column) (*models.LessonVideo, error) {
	sets := make([]string, 0, len(fields))
	args := []interface{}{id}
	for _, c := range fields {
		if !updatableVideoColumns[c.Name] {
			return nil, fmt.Errorf("update lesson video: column %q not writable", c.Name)
		}
		value := c.Value
		if tags, ok := value.([]string); ok {
			value = pq.Array(tags)
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Name), len(args)))
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE lesson_videos SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING `+lessonVideoColumns, args...)
	v, err := scanLessonVideo(row)
	if err != nil {
		return nil, translate(err)
	}
	return v, nil
}

func (r *lessonVideoRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lesson_videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson video: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// IncrementView bumps view_count on an active video in one statement
func (r *lessonVideoRepo) IncrementView(ctx context.Context, id int64, at time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE lesson_videos SET view_count = view_count + 1, updated_at = $2
		WHERE id = $1 AND active = TRUE
		RETURNING view_count
	`, id, at).Scan(&count)
	if err != nil {
		return 0, translate(err)
	}
	return count, nil
}
