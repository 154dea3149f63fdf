// Package service holds the domain flows: OTP issue/verify with ban and
// rate-limit bookkeeping, the profile update governor, the content
// resolution cascade and catalog CRUD. All time math goes through Clock.
package service

import (
	"context"
	"errors"
	"time"

	"nardeboun-backend/internal/repository"
	"nardeboun-backend/models"
	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
)

// Clock returns the current time
type Clock func() time.Time

// ChangeNotifier receives content mutations, e.g. the websocket hub
type ChangeNotifier interface {
	Publish(change models.ContentChange)
}

type noopNotifier struct{}

func (noopNotifier) Publish(models.ContentChange) {}

// findOrCreate returns the id of the row matching key, inserting values when absent.
// A unique violation on insert means a concurrent request won; the row is re-read.
func findOrCreate(ctx context.Context, repo repository.EntityRepo, table string, key, values []repository.Column) (int64, error) {
	id, err := repo.FindID(ctx, table, key)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, err
	}

	id, err = repo.InsertID(ctx, table, values)
	if errors.Is(err, repository.ErrConflict) {
		return repo.FindID(ctx, table, key)
	}
	return id, err
}

// bumpChangeCount increments the change counter; failures are logged only
func bumpChangeCount(ctx context.Context, counter repository.ChangeCounter, table string, gradeID *int64) {
	if counter == nil {
		return
	}
	if err := counter.Increment(ctx, table, gradeID); err != nil {
		logger.Warn("change count update failed", zap.String("table", table), zap.Error(err))
	}
}
