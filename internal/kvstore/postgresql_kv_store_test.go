package kvstore

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgreSQLStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgreSQLStore(db)
	ctx := context.Background()

	t.Run("Success_ReturnsOnlyExistingKeys", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"k", "v"}).
			AddRow("encryptedToken", `{"iv":"aXY=","ciphertext":"Y3Q="}`)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT k, v FROM kv_entries WHERE k IN ($1, $2)`)).
			WithArgs("encryptedToken", "tokenExpiry").
			WillReturnRows(rows)

		result, err := store.Get(ctx, "encryptedToken", "tokenExpiry")
		require.NoError(t, err)
		assert.Len(t, result, 1)
		assert.Equal(t, `{"iv":"aXY=","ciphertext":"Y3Q="}`, result["encryptedToken"])
		_, exists := result["tokenExpiry"]
		assert.False(t, exists)
	})

	t.Run("Success_NoKeys", func(t *testing.T) {
		result, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLStore_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgreSQLStore(db)
	ctx := context.Background()

	t.Run("Success_UpsertSinglePair", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_entries`)).
			WithArgs("tokenExpiry", "1700000000000", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.Set(ctx, map[string]string{"tokenExpiry": "1700000000000"})
		require.NoError(t, err)
	})

	t.Run("Success_AtomicMultiKeyWrite", func(t *testing.T) {
		// Map iteration order is not deterministic, so match execs unordered.
		mock.MatchExpectationsInOrder(false)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_entries`)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_entries`)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.Set(ctx, map[string]string{
			"encryptedToken": `{"iv":"aXY=","ciphertext":"Y3Q="}`,
			"tokenExpiry":    "1700000000000",
		})
		require.NoError(t, err)
		mock.MatchExpectationsInOrder(true)
	})

	t.Run("Success_EmptyMapIsNoOp", func(t *testing.T) {
		err := store.Set(ctx, nil)
		require.NoError(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLStore_Remove(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewPostgreSQLStore(db)
	ctx := context.Background()

	t.Run("Success_RemoveKeys", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_entries WHERE k IN ($1, $2)`)).
			WithArgs("encryptedToken", "tokenExpiry").
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := store.Remove(ctx, "encryptedToken", "tokenExpiry")
		require.NoError(t, err)
	})

	t.Run("Success_RemoveAbsentKeyIsIdempotent", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_entries WHERE k IN ($1)`)).
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Remove(ctx, "missing")
		require.NoError(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}
