package repository

import (
	"context"

	"github.com/and161185/diary-sync/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DiaryRepository provides access to synced diary rows.
type DiaryRepository interface {
	// UpsertBatch writes rows keyed by id and returns the number of rows written.
	// With opts.IgnoreDuplicates existing rows are left untouched.
	UpsertBatch(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) (int64, error)

	// DeleteByID removes a single row.
	DeleteByID(ctx context.Context, id string) (int64, error)

	// DeleteByIDs removes every row whose id is listed.
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// DeleteByUser removes all rows owned by userID.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteMarked removes rows of userID whose event or realization
	// contains any of markers.
	DeleteMarked(ctx context.Context, userID uuid.UUID, markers []string) (int64, error)

	// DeleteDuplicates keeps the earliest row per content key of userID and
	// removes the rest.
	DeleteDuplicates(ctx context.Context, userID uuid.UUID) (int64, error)

	// CountByUser returns the number of rows owned by userID.
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
