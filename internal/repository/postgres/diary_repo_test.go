package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/and161185/diary-sync/internal/model"
	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func sampleRow(id, userID string) model.DiaryRow {
	return model.DiaryRow{
		ID:              id,
		UserID:          userID,
		Date:            "2024-03-01",
		Emotion:         "悲しい",
		Event:           "ev",
		Realization:     "re",
		SelfEsteemScore: model.IntPtr(70),
		UrgencyLevel:    model.UrgencyLow,
		CreatedAt:       "2024-03-01T10:00:00.000Z",
	}
}

func rowArgs(r model.DiaryRow) []any {
	return []any{
		r.ID, r.UserID, r.Date, r.Emotion, r.Event, r.Realization,
		model.Score(r.SelfEsteemScore), model.Score(r.WorthlessnessScore),
		r.AssignedCounselor, r.UrgencyLevel, r.IsVisibleToUser,
		r.CounselorName, r.CounselorMemo, r.CreatedAt,
	}
}

func TestDiaryRepo_UpsertBatch_IgnoreDuplicates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4()).String()

	a, b := sampleRow("a", uid), sampleRow("b", uid)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO diary_entries \(id, user_id, .*\) VALUES \(\$1,.*\$14\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(rowArgs(a)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(rowArgs(b)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0)) // already present
	mock.ExpectCommit()

	n, err := r.UpsertBatch(ctx, []model.DiaryRow{a, b}, model.UpsertOptions{OnConflict: "id", IgnoreDuplicates: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_UpsertBatch_Update_DefaultsScores(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	ctx := context.Background()

	row := sampleRow("a", uuid.Must(uuid.NewV4()).String())
	row.SelfEsteemScore = nil

	mock.ExpectBegin()
	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE SET user_id = EXCLUDED.user_id, .* synced_at = now\(\)`).
		WithArgs(row.ID, row.UserID, row.Date, row.Emotion, row.Event, row.Realization,
			50, 50, "", model.UrgencyLow, false, "", "", row.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := r.UpsertBatch(ctx, []model.DiaryRow{row}, model.UpsertOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_UpsertBatch_ExecErr_RollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	ctx := context.Background()
	row := sampleRow("a", "not-a-uuid")

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO diary_entries`).
		WithArgs(rowArgs(row)...).
		WillReturnError(errors.New("invalid input syntax for type uuid"))
	mock.ExpectRollback()

	_, err := r.UpsertBatch(ctx, []model.DiaryRow{row}, model.UpsertOptions{IgnoreDuplicates: true})
	require.ErrorContains(t, err, "row[0] a")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_UpsertBatch_BadConflictTarget(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)

	_, err := r.UpsertBatch(context.Background(), nil, model.UpsertOptions{OnConflict: "date"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_UpsertBatch_TxBeginErr(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)

	mock.ExpectBegin().WillReturnError(errors.New("boom"))
	_, err := r.UpsertBatch(context.Background(), nil, model.UpsertOptions{})
	require.Error(t, err)
}

func TestDiaryRepo_Deletes(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM diary_entries WHERE id=\$1`).
		WithArgs("a").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	n, err := r.DeleteByID(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	mock.ExpectExec(`DELETE FROM diary_entries WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"a", "b", "c"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	n, err = r.DeleteByIDs(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	// empty list never reaches the database
	n, err = r.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, n)

	mock.ExpectExec(`DELETE FROM diary_entries WHERE user_id=\$1`).
		WithArgs(uid).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))
	n, err = r.DeleteByUser(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)

	mock.ExpectExec(`DELETE FROM diary_entries WHERE id=\$1`).
		WithArgs("x").
		WillReturnError(errors.New("conn reset"))
	_, err = r.DeleteByID(ctx, "x")
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_DeleteMarked(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM diary_entries WHERE user_id=\$1 AND \(event ILIKE ANY\(\$2\) OR realization ILIKE ANY\(\$2\)\)`).
		WithArgs(uid, []string{"%テスト%", "%100\\%%"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	n, err := r.DeleteMarked(ctx, uid, []string{"テスト", "100%"})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	n, err = r.DeleteMarked(ctx, uid, nil)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_DeleteDuplicates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM diary_entries d USING \( SELECT id, row_number\(\) OVER \( PARTITION BY date, emotion, left\(event, 50\) ORDER BY created_at, id \) AS rn .* WHERE d.id = ranked.id AND ranked.rn > 1`).
		WithArgs(uid).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))
	n, err := r.DeleteDuplicates(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDiaryRepo_CountByUser(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewDiaryRepo(db)
	uid := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT count\(\*\) FROM diary_entries WHERE user_id=\$1`).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))
	n, err := r.CountByUser(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, int64(42), n)

	mock.ExpectQuery(`SELECT count\(\*\) FROM diary_entries`).
		WithArgs(uid).
		WillReturnError(errors.New("boom"))
	_, err = r.CountByUser(context.Background(), uid)
	require.Error(t, err)
}
