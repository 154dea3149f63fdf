package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"nardeboun-backend/pkg/database"
)

// SetupTestDB connects to TEST_DATABASE_URL and applies migrations.
// The test is skipped when the variable is unset.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(db, migrationsDir()); err != nil {
		db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// CleanupTestDB truncates every application table and closes db
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"otp_codes", "otp_rate_limits", "user_bans", "profiles",
		"lesson_videos", "chapters", "subject_offers", "subjects", "teachers", "tracks", "grades", "branches",
		"banners", "step_by_step_pdfs", "provincial_sample_pdfs", "change_counts", "content_counts",
	}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			t.Logf("Warning: Failed to truncate table %s: %v", table, err)
		}
	}

	db.Close()
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// RandomPhone returns a +98 mobile number unlikely to collide between tests
func RandomPhone() string {
	return fmt.Sprintf("+98912%07d", rand.Intn(10000000))
}

// GenerateRandomString returns a lowercase alphanumeric string
func GenerateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
