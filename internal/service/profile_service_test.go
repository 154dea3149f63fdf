package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"nardeboun-backend/models"
	"nardeboun-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFixture() (*fakeClock, *fakeProfileRepo, *ProfileService) {
	clock := newClock()
	repo := &fakeProfileRepo{profiles: []*models.Profile{{
		UserID:            "22222222-2222-2222-2222-222222222222",
		PhoneNumber:       testPhone,
		UserRole:          models.RoleStudent,
		RegistrationStage: models.StageStep1,
		CreatedAt:         clock.Now().Add(-time.Hour),
	}}}
	return clock, repo, NewProfileService(repo, nil, clock.Now)
}

func TestProfileService_Steps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		step      string
		wantStage string
	}{
		{models.StageStep1, models.StageStep2},
		{models.StageStep2, models.StageCompleted},
		{models.StageCompleted, models.StageCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			clock, _, svc := newProfileFixture()
			profile, err := svc.Update(ctx, &models.UpdateProfileRequest{
				Phone:   "09121234567",
				Step:    tt.step,
				Payload: map[string]interface{}{"first_name": "سارا", "grade": "10"},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStage, profile.RegistrationStage)
			require.NotNil(t, profile.FirstName)
			assert.Equal(t, "سارا", *profile.FirstName)
			require.NotNil(t, profile.LastStageUpdate)
			assert.Equal(t, clock.Now(), *profile.LastStageUpdate)

			switch tt.step {
			case models.StageStep1:
				require.NotNil(t, profile.Step1CompletedAt)
				assert.Nil(t, profile.Step2CompletedAt)
			case models.StageStep2:
				require.NotNil(t, profile.Step2CompletedAt)
			}
		})
	}
}

func TestProfileService_Validation(t *testing.T) {
	ctx := context.Background()
	_, _, svc := newProfileFixture()

	tests := []struct {
		name   string
		req    models.UpdateProfileRequest
		status int
		msg    string
	}{
		{"missing phone", models.UpdateProfileRequest{Step: "step1", Payload: map[string]interface{}{}}, http.StatusBadRequest, "پارامترهای لازم ناقص است"},
		{"missing payload", models.UpdateProfileRequest{Phone: testPhone, Step: "step1"}, http.StatusBadRequest, "پارامترهای لازم ناقص است"},
		{"unknown fields", models.UpdateProfileRequest{Phone: testPhone, Step: "step1", Payload: map[string]interface{}{"user_role": "admin", "ban_until": nil}}, http.StatusBadRequest, "فیلدهای نامعتبر: ban_until, user_role"},
		{"unknown step", models.UpdateProfileRequest{Phone: testPhone, Step: "step9", Payload: map[string]interface{}{}}, http.StatusBadRequest, ""},
		{"no profile", models.UpdateProfileRequest{Phone: "+989350000000", Step: "step1", Payload: map[string]interface{}{}}, http.StatusNotFound, "پروفایل یافت نشد"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Update(ctx, &req)
			require.Error(t, err)
			assert.True(t, apperror.HasStatus(err, tt.status), "got %v", err)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, apperror.FromError(err).Message)
			}
		})
	}
}

func TestProfileService_UpdatesEveryAliasRow(t *testing.T) {
	ctx := context.Background()
	_, repo, svc := newProfileFixture()
	repo.profiles = append(repo.profiles, &models.Profile{
		UserID:      "33333333-3333-3333-3333-333333333333",
		PhoneNumber: "09121234567",
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	_, err := svc.Update(ctx, &models.UpdateProfileRequest{
		Phone: testPhone, Step: models.StageCompleted, Payload: map[string]interface{}{"city": "تهران"},
	})
	require.NoError(t, err)
	for _, p := range repo.profiles {
		require.NotNil(t, p.City)
		assert.Equal(t, "تهران", *p.City)
	}
}

func TestProfileService_Governor(t *testing.T) {
	ctx := context.Background()
	clock, repo, svc := newProfileFixture()
	update := func() error {
		_, err := svc.Update(ctx, &models.UpdateProfileRequest{
			Phone: testPhone, Step: StepUpdate, Payload: map[string]interface{}{"grade": "11"},
		})
		return err
	}
	start := clock.Now()

	for i := 1; i < MaxProfileUpdatesPerWindow; i++ {
		require.NoError(t, update(), "update %d", i)
		clock.Advance(time.Second)
	}
	p := repo.profiles[0]
	assert.Equal(t, MaxProfileUpdatesPerWindow-1, p.UpdatesInWindow)
	require.NotNil(t, p.UpdateCountWindowStart)
	assert.Equal(t, start, *p.UpdateCountWindowStart)
	assert.Equal(t, MaxProfileUpdatesPerWindow-1, p.UpdatesTodayCount)

	err := update()
	require.Error(t, err)
	assert.True(t, apperror.HasStatus(err, http.StatusTooManyRequests))
	assert.Equal(t, "شما 40 بار پایه تحصیلی را تغییر داده‌اید. برای 1 ساعت نمی‌توانید تغییر دهید.", apperror.FromError(err).Message)

	require.NotNil(t, p.BanUntil)
	assert.Equal(t, clock.Now().Add(ProfileUpdateBan), *p.BanUntil)
	assert.Equal(t, MaxProfileUpdatesPerWindow, p.UpdatesInWindow)

	clock.Advance(30 * time.Minute)
	err = update()
	assert.True(t, apperror.HasStatus(err, http.StatusTooManyRequests))
	assert.Equal(t, "شما به حد مجاز 40 بار تغییر رسیده‌اید. 30 دقیقه دیگر می‌توانید دوباره تلاش کنید.", apperror.FromError(err).Message)

	// dev mode does not bypass an active ban
	_, err = svc.Update(ctx, &models.UpdateProfileRequest{
		Phone: testPhone, Step: StepUpdate, Payload: map[string]interface{}{}, DevMode: true,
	})
	assert.True(t, apperror.HasStatus(err, http.StatusTooManyRequests))

	clock.Advance(31 * time.Minute)
	require.NoError(t, update())
	assert.Nil(t, p.BanUntil)
	assert.Equal(t, 1, p.UpdatesInWindow)
	assert.Equal(t, clock.Now(), *p.UpdateCountWindowStart)
}

func TestProfileService_GovernorDevModeSkipsWindow(t *testing.T) {
	ctx := context.Background()
	_, repo, svc := newProfileFixture()

	for i := 0; i < MaxProfileUpdatesPerWindow+5; i++ {
		_, err := svc.Update(ctx, &models.UpdateProfileRequest{
			Phone: testPhone, Step: StepUpdate, Payload: map[string]interface{}{"grade": "12"}, DevMode: true,
		})
		require.NoError(t, err)
	}
	p := repo.profiles[0]
	assert.Zero(t, p.UpdatesInWindow)
	assert.Nil(t, p.BanUntil)
	assert.Equal(t, MaxProfileUpdatesPerWindow+5, p.UpdatesTodayCount)
}

func TestProfileService_DailyCounterRollsOver(t *testing.T) {
	ctx := context.Background()
	clock, repo, svc := newProfileFixture()
	req := &models.UpdateProfileRequest{Phone: testPhone, Step: StepUpdate, Payload: map[string]interface{}{}}

	_, err := svc.Update(ctx, req)
	require.NoError(t, err)
	_, err = svc.Update(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.profiles[0].UpdatesTodayCount)

	clock.Advance(24 * time.Hour)
	_, err = svc.Update(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.profiles[0].UpdatesTodayCount)
	assert.Equal(t, "2025-03-11", *repo.profiles[0].LastUpdateDate)
}

func TestProfileService_GovernorMissingProfile(t *testing.T) {
	_, _, svc := newProfileFixture()
	_, err := svc.Update(context.Background(), &models.UpdateProfileRequest{
		Phone: "+989350000000", Step: StepUpdate, Payload: map[string]interface{}{},
	})
	assert.True(t, apperror.HasStatus(err, http.StatusNotFound))
	assert.Equal(t, "پروفایل برای بررسی محدودیت یافت نشد", apperror.FromError(err).Message)
}
