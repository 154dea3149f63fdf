package handlers

import (
	"context"
	"io"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
)

type memOtps struct{ rows map[string]models.OtpCode }

func (m *memOtps) Upsert(_ context.Context, phone, code string, expiresAt, createdAt time.Time) error {
	m.rows[phone] = models.OtpCode{PhoneNumber: phone, OTPCode: code, ExpiresAt: expiresAt, CreatedAt: createdAt}
	return nil
}

func (m *memOtps) FindValid(_ context.Context, phones []string, code string, now time.Time) (*models.OtpCode, error) {
	for _, p := range phones {
		if o, ok := m.rows[p]; ok && o.OTPCode == code && now.Before(o.ExpiresAt) {
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOtps) DeleteMatching(_ context.Context, phones []string, code string) (int64, error) {
	var n int64
	for _, p := range phones {
		if o, ok := m.rows[p]; ok && o.OTPCode == code {
			delete(m.rows, p)
			n++
		}
	}
	return n, nil
}

type memProfiles struct{ rows []*models.Profile }

func (m *memProfiles) FindByPhones(_ context.Context, phones []string) (*models.Profile, error) {
	for _, p := range m.rows {
		for _, ph := range phones {
			if p.PhoneNumber == ph {
				cp := *p
				return &cp, nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memProfiles) Create(_ context.Context, p *models.Profile) error {
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memProfiles) UpdateByPhones(ctx context.Context, phones []string, _ map[string]interface{}) (*models.Profile, error) {
	return m.FindByPhones(ctx, phones)
}

type memBans struct{ rows []*models.Ban }

func (m *memBans) FindActive(_ context.Context, phone, deviceID string) (*models.Ban, error) {
	for _, b := range m.rows {
		if b.IsActive && ((b.PhoneNumber != nil && *b.PhoneNumber == phone) || (b.DeviceID != nil && *b.DeviceID == deviceID)) {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memBans) Deactivate(context.Context, int64, time.Time) error { return nil }

func (m *memBans) Create(_ context.Context, b *models.Ban) error {
	b.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, b)
	return nil
}

type memWindows struct{ rows map[string]*models.RateLimitWindow }

func (m *memWindows) PurgeOlderThan(context.Context, time.Time) error { return nil }

func (m *memWindows) Get(_ context.Context, phone, deviceID string) (*models.RateLimitWindow, error) {
	if w, ok := m.rows[phone+deviceID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memWindows) Insert(_ context.Context, w *models.RateLimitWindow) error {
	cp := *w
	m.rows[w.PhoneNumber+w.DeviceID] = &cp
	return nil
}

func (m *memWindows) Reset(context.Context, string, string, time.Time) error { return nil }

func (m *memWindows) SetCount(_ context.Context, phone, deviceID string, count int, _ time.Time) error {
	m.rows[phone+deviceID].AttemptCount = count
	return nil
}

type memBanners struct{ rows []models.Banner }

func (m *memBanners) Create(_ context.Context, b *models.Banner) error {
	b.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *b)
	return nil
}

type staticCounts struct{ counts models.ContentCounts }

func (s staticCounts) Count(context.Context, int, *int64) (models.ContentCounts, error) {
	return s.counts, nil
}

func (s staticCounts) Upsert(context.Context, int, *int64, models.ContentCounts, time.Time) error {
	return nil
}

type memFiles struct {
	path string
	body string
}

func (m *memFiles) Upload(_ context.Context, objectPath string, body io.Reader, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.path, m.body = objectPath, string(b)
	return nil
}

func (m *memFiles) PublicURL(objectPath string) string {
	return "https://project.supabase.co/storage/v1/object/public/" + objectPath
}

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }
