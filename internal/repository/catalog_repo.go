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

// BannerRepo - home screen banners
type BannerRepo interface {
	Create(ctx context.Context, b *models.Banner) error
}

type bannerRepo struct {
	db *sql.DB
}

func NewBannerRepo(db *sql.DB) BannerRepo {
	return &bannerRepo{db: db}
}

func (r *bannerRepo) Create(ctx context.Context, b *models.Banner) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO banners (title, description, image_url, link_url, position, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, b.Title, b.Description, b.ImageURL, b.LinkURL, b.Position, b.IsActive).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

// PDFRepo - step-by-step and provincial sample PDFs
type PDFRepo interface {
	CreateStepByStep(ctx context.Context, p *models.StepByStepPDF) error
	CreateProvincialSample(ctx context.Context, p *models.ProvincialSamplePDF) error
	GradeOf(ctx context.Context, table string, id int64) (int64, error)
	UpdateStepByStep(ctx context.Context, id int64, fields []Column) (*models.StepByStepPDF, error)
	UpdateProvincialSample(ctx context.Context, id int64, fields []Column) (*models.ProvincialSamplePDF, error)
	Delete(ctx context.Context, table string, id int64) error
}

type pdfRepo struct {
	db *sql.DB
}

func NewPDFRepo(db *sql.DB) PDFRepo {
	return &pdfRepo{db: db}
}

const (
	stepByStepColumns       = `id, level, grade_id, track_id, subject_id, title, pdf_url, file_size_mb, page_count, active, created_at`
	provincialSampleColumns = `id, grade_id, book_id, pdf_title, type, year, author, has_answer, size, pdf_url, active, created_at`
)

var pdfTables = map[string]bool{
	models.TableStepByStepPDFs:       true,
	models.TableProvincialSamplePDFs: true,
}

func (r *pdfRepo) CreateStepByStep(ctx context.Context, p *models.StepByStepPDF) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO step_by_step_pdfs (level, grade_id, track_id, subject_id, title, pdf_url, file_size_mb, page_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, p.Level, p.GradeID, p.TrackID, p.SubjectID, p.Title, p.PDFURL, p.FileSizeMB, p.PageCount, p.Active).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert step-by-step pdf: %w", err)
	}
	return nil
}

func (r *pdfRepo) CreateProvincialSample(ctx context.Context, p *models.ProvincialSamplePDF) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO provincial_sample_pdfs (grade_id, book_id, pdf_title, type, year, author, has_answer, size, pdf_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, p.GradeID, p.BookID, p.PDFTitle, p.Type, p.Year, p.Author, p.HasAnswer, p.Size, p.PDFURL, p.Active).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert provincial sample pdf: %w", err)
	}
	return nil
}

// GradeOf returns the grade_id of a PDF row, or ErrNotFound
func (r *pdfRepo) GradeOf(ctx context.Context, table string, id int64) (int64, error) {
	if !pdfTables[table] {
		return 0, fmt.Errorf("unknown pdf table %q", table)
	}
	var gradeID int64
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT grade_id FROM %s WHERE id = $1", pq.QuoteIdentifier(table)), id).Scan(&gradeID)
	if err != nil {
		return 0, translate(err)
	}
	return gradeID, nil
}

func buildSet(fields []Column, firstParam int) (string, []interface{}) {
	sets := make([]string, len(fields))
	args := make([]interface{}, len(fields))
	for i, c := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.Name), firstParam+i)
		args[i] = c.Value
	}
	return strings.Join(sets, ", "), args
}

func (r *pdfRepo) UpdateStepByStep(ctx context.Context, id int64, fields []Column) (*models.StepByStepPDF, error) {
	var query string
	args := []interface{}{id}
	if len(fields) == 0 {
		query = `SELECT ` + stepByStepColumns + ` FROM step_by_step_pdfs WHERE id = $1`
	} else {
		set, setArgs := buildSet(fields, 2)
		query = `UPDATE step_by_step_pdfs SET ` + set + ` WHERE id = $1 RETURNING ` + stepByStepColumns
		args = append(args, setArgs...)
	}

	var p models.StepByStepPDF
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Level, &p.GradeID, &p.TrackID, &p.SubjectID,
		&p.Title, &p.PDFURL, &p.FileSizeMB, &p.PageCount, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *pdfRepo) UpdateProvincialSample(ctx context.Context, id int64, fields []Column) (*models.ProvincialSamplePDF, error) {
	var query string
	args := []interface{}{id}
	if len(fields) == 0 {
		query = `SELECT ` + provincialSampleColumns + ` FROM provincial_sample_pdfs WHERE id = $1`
	} else {
		set, setArgs := buildSet(fields, 2)
		query = `UPDATE provincial_sample_pdfs SET ` + set + ` WHERE id = $1 RETURNING ` + provincialSampleColumns
		args = append(args, setArgs...)
	}

	var p models.ProvincialSamplePDF
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.GradeID, &p.BookID, &p.PDFTitle, &p.Type,
		&p.Year, &p.Author, &p.HasAnswer, &p.Size, &p.PDFURL, &p.Active, &p.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *pdfRepo) Delete(ctx context.Context, table string, id int64) error {
	if !pdfTables[table] {
		return fmt.Errorf("unknown pdf table %q", table)
	}
	res, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", pq.QuoteIdentifier(table)), id)
	if err != nil {
		return fmt.Errorf("delete pdf: %w", err)
	}
	return rowsAffectedOrNotFound(res)
}

// ChangeCounter - per table/grade change counters read by clients to invalidate caches
type ChangeCounter interface {
	Increment(ctx context.Context, table string, gradeID *int64) error
}

type changeCounter struct {
	db *sql.DB
}

func NewChangeCounter(db *sql.DB) ChangeCounter {
	return &changeCounter{db: db}
}

func (c *changeCounter) Increment(ctx context.Context, table string, gradeID *int64) error {
	if _, err := c.db.ExecContext(ctx, `SELECT increment_change_count($1, $2)`, table, gradeID); err != nil {
		return fmt.Errorf("increment change count for %s: %w", table, err)
	}
	return nil
}

// CountsRepo - content totals per grade/track
type CountsRepo interface {
	Count(ctx context.Context, grade int, track *int64) (models.ContentCounts, error)
	Upsert(ctx context.Context, grade int, track *int64, counts models.ContentCounts, at time.Time) error
}

type countsRepo struct {
	db *sql.DB
}

func NewCountsRepo(db *sql.DB) CountsRepo {
	return &countsRepo{db: db}
}

// Count aggregates the content tree under the subject offers for grade/track
func (r *countsRepo) Count(ctx context.Context, grade int, track *int64) (models.ContentCounts, error) {
	var c models.ContentCounts
	err := r.db.QueryRowContext(ctx, `
		WITH offers AS (
			SELECT id FROM subject_offers
			WHERE grade_id = $1 AND track_id IS NOT DISTINCT FROM $2
		), chs AS (
			SELECT id FROM chapters WHERE subject_offer_id IN (SELECT id FROM offers)
		)
		SELECT
			(SELECT COUNT(*) FROM offers),
			(SELECT COUNT(*) FROM chs),
			(SELECT COUNT(DISTINCT (chapter_id, lesson_order)) FROM lesson_videos WHERE chapter_id IN (SELECT id FROM chs)),
			(SELECT COUNT(*) FROM lesson_videos WHERE active AND chapter_id IN (SELECT id FROM chs)),
			(SELECT COUNT(*) FROM step_by_step_pdfs WHERE grade_id = $1 AND active),
			(SELECT COUNT(*) FROM provincial_sample_pdfs WHERE grade_id = $1 AND active)
	`, grade, track).Scan(&c.SubjectsCount, &c.ChaptersCount, &c.LessonsCount, &c.LessonVideosCount,
		&c.StepByStepPDFsCount, &c.ProvincialSamplePDFsCount)
	if err != nil {
		return c, fmt.Errorf("count content: %w", err)
	}
	return c, nil
}

func (r *countsRepo) Upsert(ctx context.Context, grade int, track *int64, c models.ContentCounts, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO content_counts (grade, track, lesson_videos_count, step_by_step_pdfs_count,
			provincial_sample_pdfs_count, chapters_count, subjects_count, lessons_count, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (grade, (COALESCE(track, 0)))
		DO UPDATE SET lesson_videos_count = EXCLUDED.lesson_videos_count,
		              step_by_step_pdfs_count = EXCLUDED.step_by_step_pdfs_count,
		              provincial_sample_pdfs_count = EXCLUDED.provincial_sample_pdfs_count,
		              chapters_count = EXCLUDED.chapters_count,
		              subjects_count = EXCLUDED.subjects_count,
		              lessons_count = EXCLUDED.lessons_count,
		              last_updated = EXCLUDED.last_updated
	`, grade, track, c.LessonVideosCount, c.StepByStepPDFsCount, c.ProvincialSamplePDFsCount,
		c.ChaptersCount, c.SubjectsCount, c.LessonsCount, at)
	if err != nil {
		return fmt.Errorf("upsert content counts: %w", err)
	}
	return nil
}
