package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/diary-sync/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// DiaryRepo implements DiaryRepository using PostgreSQL.
type DiaryRepo struct{ db *DB }

// NewDiaryRepo constructs a diary repository.
func NewDiaryRepo(db *DB) *DiaryRepo { return &DiaryRepo{db: db} }

const insertDiary = `
INSERT INTO diary_entries (id, user_id, date, emotion, event, realization,
	self_esteem_score, worthlessness_score, assigned_counselor, urgency_level,
	is_visible_to_user, counselor_name, counselor_memo, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

const onConflictNothing = `
ON CONFLICT (id) DO NOTHING`

const onConflictUpdate = `
ON CONFLICT (id) DO UPDATE SET
	user_id = EXCLUDED.user_id,
	date = EXCLUDED.date,
	emotion = EXCLUDED.emotion,
	event = EXCLUDED.event,
	realization = EXCLUDED.realization,
	self_esteem_score = EXCLUDED.self_esteem_score,
	worthlessness_score = EXCLUDED.worthlessness_score,
	assigned_counselor = EXCLUDED.assigned_counselor,
	urgency_level = EXCLUDED.urgency_level,
	is_visible_to_user = EXCLUDED.is_visible_to_user,
	counselor_name = EXCLUDED.counselor_name,
	counselor_memo = EXCLUDED.counselor_memo,
	created_at = EXCLUDED.created_at,
	synced_at = now()`

// UpsertBatch writes all rows in one transaction.
func (r *DiaryRepo) UpsertBatch(
	ctx context.Context, rows []model.DiaryRow, opts model.UpsertOptions,
) (affected int64, err error) {
	if opts.OnConflict != "" && opts.OnConflict != "id" {
		return 0, fmt.Errorf("unsupported conflict target %q", opts.OnConflict)
	}
	q := insertDiary + onConflictUpdate
	if opts.IgnoreDuplicates {
		q = insertDiary + onConflictNothing
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	for i, row := range rows {
		tag, execErr := tx.Exec(ctx, q,
			row.ID, row.UserID, row.Date, row.Emotion, row.Event, row.Realization,
			model.Score(row.SelfEsteemScore), model.Score(row.WorthlessnessScore),
			row.AssignedCounselor, row.UrgencyLevel, row.IsVisibleToUser,
			row.CounselorName, row.CounselorMemo, row.CreatedAt,
		)
		if execErr != nil {
			return 0, fmt.Errorf("row[%d] %s: %w", i, row.ID, execErr)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

// DeleteByID removes one row by id.
func (r *DiaryRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM diary_entries WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByIDs removes rows by id list.
func (r *DiaryRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM diary_entries WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteByUser removes every row of a user.
func (r *DiaryRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM diary_entries WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteMarked removes rows whose event or realization contains a marker.
func (r *DiaryRepo) DeleteMarked(ctx context.Context, userID uuid.UUID, markers []string) (int64, error) {
	if len(markers) == 0 {
		return 0, nil
	}
	patterns := make([]string, 0, len(markers))
	for _, m := range markers {
		patterns = append(patterns, "%"+likeEscape(m)+"%")
	}
	const q = `
DELETE FROM diary_entries
WHERE user_id=$1
  AND (event ILIKE ANY($2) OR realization ILIKE ANY($2))`
	tag, err := r.db.Pool.Exec(ctx, q, userID, patterns)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteDuplicates keeps the earliest row per (date, emotion, first 50
// characters of event) and removes the rest.
func (r *DiaryRepo) DeleteDuplicates(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `
DELETE FROM diary_entries d
USING (
	SELECT id, row_number() OVER (
		PARTITION BY date, emotion, left(event, 50)
		ORDER BY created_at, id
	) AS rn
	FROM diary_entries
	WHERE user_id=$1
) ranked
WHERE d.id = ranked.id AND ranked.rn > 1`
	tag, err := r.db.Pool.Exec(ctx, q, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountByUser returns the number of rows of a user.
func (r *DiaryRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM diary_entries WHERE user_id=$1`
	var n int64
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func likeEscape(s string) string {
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
