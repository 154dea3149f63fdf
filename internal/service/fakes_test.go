package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func float64Ptr(f float64) *float64 { return &f }
func boolPtr(v bool) *bool { return &v }

// ---- bans

type fakeBanRepo struct {
	bans          []*models.Ban
	nextID        int64
	createErr     error
	deactivateErr error
}

func (r *fakeBanRepo) FindActive(_ context.Context, phone, deviceID string) (*models.Ban, error) {
	for _, b := range r.bans {
		if !b.IsActive {
			continue
		}
		if (b.PhoneNumber != nil && *b.PhoneNumber == phone) || (b.DeviceID != nil && *b.DeviceID == deviceID) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeBanRepo) Deactivate(_ context.Context, id int64, at time.Time) error {
	if r.deactivateErr != nil {
		return r.deactivateErr
	}
	for _, b := range r.bans {
		if b.ID == id && !b.IsPermanent {
			b.IsActive = false
			b.UpdatedAt = &at
		}
	}
	return nil
}

func (r *fakeBanRepo) Create(_ context.Context, b *models.Ban) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	b.ID = r.nextID
	cp := *b
	r.bans = append(r.bans, &cp)
	return nil
}

func (r *fakeBanRepo) byType(banType string) []*models.Ban {
	var out []*models.Ban
	for _, b := range r.bans {
		if b.BanType == banType {
			out = append(out, b)
		}
	}
	return out
}

// ---- rate limit windows

type fakeRateLimitRepo struct {
	rows      map[string]*models.RateLimitWindow
	insertErr error
}

func newFakeRateLimitRepo() *fakeRateLimitRepo {
	return &fakeRateLimitRepo{rows: make(map[string]*models.RateLimitWindow)}
}

func rlKey(phone, device string) string { return phone + "|" + device }

func (r *fakeRateLimitRepo) PurgeOlderThan(_ context.Context, cutoff time.Time) error {
	for k, w := range r.rows {
		if w.WindowStartAt.Before(cutoff) {
			delete(r.rows, k)
		}
	}
	return nil
}

func (r *fakeRateLimitRepo) Get(_ context.Context, phone, deviceID string) (*models.RateLimitWindow, error) {
	w, ok := r.rows[rlKey(phone, deviceID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeRateLimitRepo) Insert(_ context.Context, w *models.RateLimitWindow) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	k := rlKey(w.PhoneNumber, w.DeviceID)
	if _, ok := r.rows[k]; ok {
		return repository.ErrConflict
	}
	cp := *w
	r.rows[k] = &cp
	return nil
}

func (r *fakeRateLimitRepo) Reset(_ context.Context, phone, deviceID string, now time.Time) error {
	if w, ok := r.rows[rlKey(phone, deviceID)]; ok {
		w.AttemptCount = 1
		w.WindowStartAt = now
		w.LastAttemptAt = now
	}
	return nil
}

func (r *fakeRateLimitRepo) SetCount(_ context.Context, phone, deviceID string, count int, at time.Time) error {
	if w, ok := r.rows[rlKey(phone, deviceID)]; ok {
		w.AttemptCount = count
		w.LastAttemptAt = at
	}
	return nil
}

// ---- otp ledger

type fakeOtpRepo struct {
	rows      map[string]models.OtpCode
	upsertErr error
}

func newFakeOtpRepo() *fakeOtpRepo {
	return &fakeOtpRepo{rows: make(map[string]models.OtpCode)}
}

func (r *fakeOtpRepo) Upsert(_ context.Context, phone, code string, expiresAt, createdAt time.Time) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.rows[phone] = models.OtpCode{PhoneNumber: phone, OTPCode: code, ExpiresAt: expiresAt, CreatedAt: createdAt}
	return nil
}

func (r *fakeOtpRepo) FindValid(_ context.Context, phones []string, code string, now time.Time) (*models.OtpCode, error) {
	var best *models.OtpCode
	for _, p := range phones {
		o, ok := r.rows[p]
		if !ok || o.OTPCode != code || !now.Before(o.ExpiresAt) {
			continue
		}
		if best == nil || o.CreatedAt.After(best.CreatedAt) {
			cp := o
			best = &cp
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *fakeOtpRepo) DeleteMatching(_ context.Context, phones []string, code string) (int64, error) {
	var n int64
	for _, p := range phones {
		if o, ok := r.rows[p]; ok && o.OTPCode == code {
			delete(r.rows, p)
			n++
		}
	}
	return n, nil
}

// ---- profiles

type fakeProfileRepo struct {
	profiles  []*models.Profile
	updateErr error
	updates   []map[string]interface{}
}

func (r *fakeProfileRepo) matching(phones []string) []*models.Profile {
	set := make(map[string]bool, len(phones))
	for _, p := range phones {
		set[p] = true
	}
	var out []*models.Profile
	for _, p := range r.profiles {
		if set[p.PhoneNumber] {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeProfileRepo) FindByPhones(_ context.Context, phones []string) (*models.Profile, error) {
	m := r.matching(phones)
	if len(m) == 0 {
		return nil, repository.ErrNotFound
	}
	cp := *m[0]
	return &cp, nil
}

func (r *fakeProfileRepo) Create(_ context.Context, p *models.Profile) error {
	cp := *p
	r.profiles = append(r.profiles, &cp)
	return nil
}

func timeField(v interface{}) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

func strField(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	return &s
}

func applyProfileField(p *models.Profile, k string, v interface{}) {
	switch k {
	case "first_name":
		p.FirstName = strField(v)
	case "last_name":
		p.LastName = strField(v)
	case "grade":
		p.Grade = strField(v)
	case "track":
		p.Track = strField(v)
	case "field_of_study":
		p.FieldOfStudy = strField(v)
	case "province":
		p.Province = strField(v)
	case "city":
		p.City = strField(v)
	case "school_name":
		p.SchoolName = strField(v)
	case "gender":
		p.Gender = strField(v)
	case "birth_date":
		p.BirthDate = strField(v)
	case "avatar_url":
		p.AvatarURL = strField(v)
	case "registration_stage":
		p.RegistrationStage = v.(string)
	case "step1_completed_at":
		p.Step1CompletedAt = timeField(v)
	case "step2_completed_at":
		p.Step2CompletedAt = timeField(v)
	case "last_stage_update":
		p.LastStageUpdate = timeField(v)
	case "ban_until":
		p.BanUntil = timeField(v)
	case "update_count_window_start":
		p.UpdateCountWindowStart = timeField(v)
	case "updates_in_window":
		p.UpdatesInWindow = v.(int)
	case "last_update_date":
		p.LastUpdateDate = strField(v)
	case "updates_today_count":
		p.UpdatesTodayCount = v.(int)
	default:
		panic("unexpected profile field " + k)
	}
}

func (r *fakeProfileRepo) UpdateByPhones(_ context.Context, phones []string, fields map[string]interface{}) (*models.Profile, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.updates = append(r.updates, fields)
	m := r.matching(phones)
	if len(m) == 0 {
		return nil, repository.ErrNotFound
	}
	for _, p := range m {
		for k, v := range fields {
			applyProfileField(p, k, v)
		}
	}
	cp := *m[0]
	return &cp, nil
}

// ---- content hierarchy

type fakeEntityRepo struct {
	tables map[string][]map[string]interface{}
	nextID int64
	// conflictOnce makes the next insert into the table fail as if a concurrent request won
	conflictOnce map[string]bool
	inserts      map[string]int
	findErr      error
}

func newFakeEntityRepo() *fakeEntityRepo {
	return &fakeEntityRepo{
		tables:       make(map[string][]map[string]interface{}),
		conflictOnce: make(map[string]bool),
		inserts:      make(map[string]int),
	}
}

func (r *fakeEntityRepo) seed(table string, values map[string]interface{}) int64 {
	r.nextID++
	row := map[string]interface{}{"id": r.nextID}
	for k, v := range values {
		row[k] = v
	}
	r.tables[table] = append(r.tables[table], row)
	return r.nextID
}

func (r *fakeEntityRepo) FindID(_ context.Context, table string, key []repository.Column) (int64, error) {
	if r.findErr != nil {
		return 0, r.findErr
	}
	for _, row := range r.tables[table] {
		match := true
		for _, c := range key {
			if fmt.Sprint(row[c.Name]) != fmt.Sprint(c.Value) {
				match = false
				break
			}
		}
		if match {
			return row["id"].(int64), nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *fakeEntityRepo) InsertID(ctx context.Context, table string, values []repository.Column) (int64, error) {
	if r.conflictOnce[table] {
		delete(r.conflictOnce, table)
		m := make(map[string]interface{}, len(values))
		for _, c := range values {
			m[c.Name] = c.Value
		}
		r.seed(table, m)
		return 0, repository.ErrConflict
	}
	r.inserts[table]++
	m := make(map[string]interface{}, len(values))
	for _, c := range values {
		m[c.Name] = c.Value
	}
	return r.seed(table, m), nil
}

func (r *fakeEntityRepo) Exists(_ context.Context, table string, id int64) (bool, error) {
	for _, row := range r.tables[table] {
		if row["id"].(int64) == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntityRepo) row(table string, id int64) map[string]interface{} {
	for _, row := range r.tables[table] {
		if row["id"].(int64) == id {
			return row
		}
	}
	return nil
}

type fakeVideoRepo struct {
	videos map[int64]*models.LessonVideo
	nextID int64
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[int64]*models.LessonVideo)}
}

func (r *fakeVideoRepo) Upsert(_ context.Context, v *models.LessonVideo) (int64, error) {
	for id, existing := range r.videos {
		if existing.ChapterID == v.ChapterID && existing.LessonOrder == v.LessonOrder &&
			existing.LessonTitle == v.LessonTitle && existing.TeacherID == v.TeacherID && existing.Style == v.Style {
			cp := *v
			cp.ID = id
			cp.ViewCount = existing.ViewCount
			r.videos[id] = &cp
			return id, nil
		}
	}
	r.nextID++
	cp := *v
	cp.ID = r.nextID
	r.videos[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeVideoRepo) Get(_ context.Context, id int64) (*models.LessonVideo, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVideoRepo) Update(_ context.Context, id int64, fields []repository.Column) (*models.LessonVideo, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, c := range fields {
		switch c.Name {
		case "aparat_url":
			v.AparatURL = c.Value.(string)
		case "duration_sec":
			v.DurationSec = c.Value.(int)
		case "tags":
			v.Tags = c.Value.([]string)
		case "active":
			v.Active = c.Value.(bool)
		case "content_status":
			v.ContentStatus = c.Value.(string)
		case "style":
			v.Style = c.Value.(string)
		case "teacher_id":
			v.TeacherID = c.Value.(int64)
		case "updated_at":
			t := c.Value.(time.Time)
			v.UpdatedAt = &t
		}
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVideoRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.videos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) IncrementView(_ context.Context, id int64, _ time.Time) (int64, error) {
	v, ok := r.videos[id]
	if !ok || !v.Active {
		return 0, repository.ErrNotFound
	}
	v.ViewCount++
	return v.ViewCount, nil
}

// ---- catalog

type fakeBannerRepo struct {
	banners []models.Banner
	err     error
}

func (r *fakeBannerRepo) Create(_ context.Context, b *models.Banner) error {
	if r.err != nil {
		return r.err
	}
	b.ID = int64(len(r.banners) + 1)
	r.banners = append(r.banners, *b)
	return nil
}

type fakePDFRepo struct {
	steps      map[int64]*models.StepByStepPDF
	provincial map[int64]*models.ProvincialSamplePDF
	nextID     int64
	lastCols   []repository.Column
}

func newFakePDFRepo() *fakePDFRepo {
	return &fakePDFRepo{
		steps:      make(map[int64]*models.StepByStepPDF),
		provincial: make(map[int64]*models.ProvincialSamplePDF),
	}
}

func (r *fakePDFRepo) CreateStepByStep(_ context.Context, p *models.StepByStepPDF) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.steps[p.ID] = &cp
	return nil
}

func (r *fakePDFRepo) CreateProvincialSample(_ context.Context, p *models.ProvincialSamplePDF) error {
	r.nextID++
	p.ID = r.nextID
	cp := *p
	r.provincial[p.ID] = &cp
	return nil
}

func (r *fakePDFRepo) GradeOf(_ context.Context, table string, id int64) (int64, error) {
	switch table {
	case models.TableStepByStepPDFs:
		if p, ok := r.steps[id]; ok {
			return p.GradeID, nil
		}
	case models.TableProvincialSamplePDFs:
		if p, ok := r.provincial[id]; ok {
			return p.GradeID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *fakePDFRepo) UpdateStepByStep(_ context.Context, id int64, cols []repository.Column) (*models.StepByStepPDF, error) {
	r.lastCols = cols
	p, ok := r.steps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, c := range cols {
		switch c.Name {
		case "title":
			p.Title = c.Value.(string)
		case "grade_id":
			p.GradeID = c.Value.(int64)
		case "active":
			p.Active = c.Value.(bool)
		}
	}
	cp := *p
	return &cp, nil
}

func (r *fakePDFRepo) UpdateProvincialSample(_ context.Context, id int64, cols []repository.Column) (*models.ProvincialSamplePDF, error) {
	r.lastCols = cols
	p, ok := r.provincial[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, c := range cols {
		switch c.Name {
		case "pdf_title":
			p.PDFTitle = c.Value.(string)
		case "grade_id":
			p.GradeID = c.Value.(int64)
		}
	}
	cp := *p
	return &cp, nil
}

func (r *fakePDFRepo) Delete(_ context.Context, table string, id int64) error {
	switch table {
	case models.TableStepByStepPDFs:
		if _, ok := r.steps[id]; ok {
			delete(r.steps, id)
			return nil
		}
	case models.TableProvincialSamplePDFs:
		if _, ok := r.provincial[id]; ok {
			delete(r.provincial, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

type changeCall struct {
	table   string
	gradeID *int64
}

type fakeChangeCounter struct {
	calls []changeCall
	err   error
}

func (c *fakeChangeCounter) Increment(_ context.Context, table string, gradeID *int64) error {
	c.calls = append(c.calls, changeCall{table: table, gradeID: gradeID})
	return c.err
}

type fakeCountsRepo struct {
	counts    models.ContentCounts
	upserted  int
	upsertErr error
}

func (r *fakeCountsRepo) Count(context.Context, int, *int64) (models.ContentCounts, error) {
	return r.counts, nil
}

func (r *fakeCountsRepo) Upsert(context.Context, int, *int64, models.ContentCounts, time.Time) error {
	r.upserted++
	return r.upsertErr
}

type recordingNotifier struct {
	changes []models.ContentChange
}

func (n *recordingNotifier) Publish(c models.ContentChange) {
	n.changes = append(n.changes, c)
}

type fakeFileStore struct {
	path        string
	contentType string
	body        string
	err         error
}

func (s *fakeFileStore) Upload(_ context.Context, objectPath string, body io.Reader, contentType string) error {
	if s.err != nil {
		return s.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.path, s.contentType, s.body = objectPath, contentType, string(b)
	return nil
}

func (s *fakeFileStore) PublicURL(objectPath string) string {
	return "https://store.test/storage/v1/object/public/" + objectPath
}

var errBoom = errors.New("boom")
