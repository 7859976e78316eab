package local

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*SQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLite(db), mock
}

func TestSQLite_Get(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = ?`)).
		WithArgs(KeyLineUsername).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("alice"))
	v, ok, err := s.Get(ctx, KeyLineUsername)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", v)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv WHERE key = ?`)).
		WithArgs(KeyLastSyncTime).
		WillReturnError(sql.ErrNoRows)
	_, ok, err = s.Get(ctx, KeyLastSyncTime)
	require.NoError(t, err)
	require.False(t, ok)

	mock.ExpectQuery(`SELECT value FROM kv`).
		WithArgs(KeyJournalEntries).
		WillReturnError(errors.New("disk I/O error"))
	_, _, err = s.Get(ctx, KeyJournalEntries)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_SetDelete(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO kv \(key, value\) VALUES \(\?, \?\)\s+ON CONFLICT\(key\) DO UPDATE`).
		WithArgs(KeyAutoSyncEnabled, "false").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, SetAutoSyncEnabled(ctx, s, false))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv WHERE key = ?`)).
		WithArgs(KeyAutoSyncEnabled).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(ctx, KeyAutoSyncEnabled))

	mock.ExpectExec(`DELETE FROM kv`).
		WithArgs("x").
		WillReturnError(errors.New("readonly database"))
	require.Error(t, s.Delete(ctx, "x"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "diary.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, KeyJournalEntries)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyLineUsername, "bob"))
	require.NoError(t, s.Set(ctx, KeyLineUsername, "carol"))
	require.NoError(t, s.Close())

	// Migrations are idempotent across reopen and data survives.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, KeyLineUsername)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "carol", v)
}

func TestReadEntries(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		kv      map[string]string
		wantLen int
		wantErr bool
	}{
		{name: "absent", kv: nil, wantLen: 0},
		{name: "empty string", kv: map[string]string{KeyJournalEntries: "  "}, wantLen: 0},
		{name: "json null", kv: map[string]string{KeyJournalEntries: "null"}, wantLen: 0},
		{name: "empty list", kv: map[string]string{KeyJournalEntries: "[]"}, wantLen: 0},
		{name: "two entries", kv: map[string]string{KeyJournalEntries: `[{"id":"a"},{"id":"b"}]`}, wantLen: 2},
		{name: "non-object kept as nil", kv: map[string]string{KeyJournalEntries: `[1,{"id":"b"}]`}, wantLen: 2},
		{name: "malformed", kv: map[string]string{KeyJournalEntries: `[{`}, wantErr: true},
		{name: "object instead of list", kv: map[string]string{KeyJournalEntries: `{"id":"a"}`}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadEntries(ctx, NewMemory(tc.kv))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, tc.wantLen)
		})
	}
}

func TestReadEntries_KeepsNumbersExact(t *testing.T) {
	m := NewMemory(map[string]string{KeyJournalEntries: `[{"id":1700000000123,"selfEsteemScore":70}]`})
	got, err := ReadEntries(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "1700000000123", got[0]["id"].(interface{ String() string }).String())
}

func TestWriteEntries_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	require.NoError(t, WriteEntries(ctx, m, nil))
	raw, ok, _ := m.Get(ctx, KeyJournalEntries)
	require.True(t, ok)
	require.Equal(t, "[]", raw)

	in := []map[string]any{{"id": "a", "event": "x"}}
	require.NoError(t, WriteEntries(ctx, m, in))
	out, err := ReadEntries(ctx, m)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestAutoSyncEnabled(t *testing.T) {
	ctx := context.Background()

	on, err := AutoSyncEnabled(ctx, NewMemory(nil))
	require.NoError(t, err)
	require.True(t, on)

	for v, want := range map[string]bool{"false": false, "true": true, "0": true, "FALSE": true, "": true} {
		on, err := AutoSyncEnabled(ctx, NewMemory(map[string]string{KeyAutoSyncEnabled: v}))
		require.NoError(t, err)
		require.Equal(t, want, on, "value %q", v)
	}
}
