package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sakif/skill-sangam/internal/apperror"
	"github.com/sakif/skill-sangam/internal/model"
)

// newMockDB wires gorm's postgres dialector to sqlmock so statement shape
// and error mapping can be checked without a server.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return Wrap(gdb), mock
}

func TestMockUserDeleteReferenced(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)).
		WithArgs("u1").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := db.Users().Delete(context.Background(), "u1")
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockUserDeleteMissing(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.Users().Delete(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockLikeReturnsCounter(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE content SET likes = likes + 1 WHERE id = $1 RETURNING likes`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(3))

	n, err := db.Content().Like(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockUnlikeMissingContent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE content SET likes = GREATEST(likes - 1, 0) WHERE id = $1 RETURNING likes`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"likes"}))

	_, err := db.Content().Unlike(context.Background(), 404)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A serialization failure on the aggregate update rolls the insert back and
// reaches the caller as a retryable error.
func TestMockRatingCreateRollsBackOnSerializationFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()

	err := db.Ratings().Create(context.Background(), &model.Rating{
		Score:       4,
		RaterID:     "rater",
		RatedUserID: "teacher",
	})
	assert.ErrorIs(t, err, apperror.ErrTransient)
	assert.True(t, apperror.IsRetryable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockRatingCreateCommits(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "ratings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rating := &model.Rating{Score: 5, RaterID: "rater", RatedUserID: "teacher"}
	require.NoError(t, db.Ratings().Create(context.Background(), rating))
	assert.Equal(t, int64(9), rating.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockValidationSkipsDatabase(t *testing.T) {
	db, mock := newMockDB(t)

	err := db.Ratings().Create(context.Background(), &model.Rating{Score: 6, RaterID: "a", RatedUserID: "b"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
