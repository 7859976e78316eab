package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/diary-sync/internal/errs"
	"github.com/and161185/diary-sync/internal/model"
	"github.com/and161185/diary-sync/internal/repository"
)

// DiaryService defines operations over synced diary rows.
type DiaryService interface {
	// Upsert validates and stores a batch of rows.
	Upsert(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) (int64, error)
	// Delete removes one row by id.
	Delete(ctx context.Context, id string) (int64, error)
	// DeleteMany removes rows by id.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	// Count returns the number of rows owned by userID.
	Count(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteAllForUser removes every row owned by userID.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteTestData removes rows of userID marked as test or sample content.
	DeleteTestData(ctx context.Context, userID uuid.UUID, markers []string) (int64, error)
	// RemoveDuplicates collapses rows of userID sharing a content key.
	RemoveDuplicates(ctx context.Context, userID uuid.UUID) (int64, error)
}

type DiaryServiceImpl struct {
	repo     repository.DiaryRepository
	maxBatch int
}

// NewDiaryService constructs DiaryService with batch limits.
func NewDiaryService(repo repository.DiaryRepository, maxBatch int) *DiaryServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	return &DiaryServiceImpl{repo: repo, maxBatch: maxBatch}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrValidation, fmt.Sprintf(format, args...))
}

// Upsert validates input and delegates the batch write to the repository.
// Validation rules:
// - batch no larger than maxBatch
// - id, date and emotion not empty
// - user_id is a UUID
// - urgency_level is one of high, medium, low or empty
func (s *DiaryServiceImpl) Upsert(ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows) > s.maxBatch {
		return 0, invalid("batch too large (%d > %d)", len(rows), s.maxBatch)
	}
	if opts.OnConflict != "" && opts.OnConflict != "id" {
		return 0, invalid("unsupported on_conflict %q", opts.OnConflict)
	}
	for i, r := range rows {
		if r.ID == "" {
			return 0, invalid("entry[%d] empty id", i)
		}
		if _, err := uuid.FromString(r.UserID); err != nil {
			return 0, invalid("entry[%d] bad user_id", i)
		}
		if r.Date == "" || r.Emotion == "" {
			return 0, invalid("entry[%d] empty date/emotion", i)
		}
		if !model.ValidUrgency(r.UrgencyLevel) {
			return 0, invalid("entry[%d] bad urgency_level %q", i, r.UrgencyLevel)
		}
	}
	return s.repo.UpsertBatch(ctx, rows, opts)
}

// Delete removes one row; deleting an absent id reports zero rows.
func (s *DiaryServiceImpl) Delete(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, invalid("empty id")
	}
	return s.repo.DeleteByID(ctx, id)
}

// DeleteMany removes a bounded list of ids.
func (s *DiaryServiceImpl) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > s.maxBatch {
		return 0, invalid("batch too large (%d > %d)", len(ids), s.maxBatch)
	}
	for i, id := range ids {
		if id == "" {
			return 0, invalid("ids[%d] empty", i)
		}
	}
	return s.repo.DeleteByIDs(ctx, ids)
}

func (s *DiaryServiceImpl) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, invalid("empty userID")
	}
	return s.repo.CountByUser(ctx, userID)
}

func (s *DiaryServiceImpl) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, invalid("empty userID")
	}
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *DiaryServiceImpl) DeleteTestData(ctx context.Context, userID uuid.UUID, markers []string) (int64, error) {
	if userID == uuid.Nil {
		return 0, invalid("empty userID")
	}
	clean := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			clean = append(clean, m)
		}
	}
	if len(clean) == 0 {
		return 0, invalid("no markers")
	}
	return s.repo.DeleteMarked(ctx, userID, clean)
}

func (s *DiaryServiceImpl) RemoveDuplicates(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, invalid("empty userID")
	}
	return s.repo.DeleteDuplicates(ctx, userID)
}
