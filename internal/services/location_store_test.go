package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (LocationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresLocationStore(sqlx.NewDb(db, "postgres")), mock
}

var (
	lockSQL   = regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)
	updateSQL = regexp.QuoteMeta(`UPDATE saved_locations SET display_order = $1 WHERE user_id = $2 AND location_name = $3`)
	countSQL  = regexp.QuoteMeta(`SELECT COUNT(*) FROM saved_locations WHERE user_id = $1`)
)

func TestPostgresLocationStore_ReorderCommits(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(0, "u1", "Busan").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(1, "u1", "Seoul").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(countSQL).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	require.NoError(t, store.Reorder(context.Background(), "u1", []string{"Busan", "Seoul"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_ReorderRollsBackOnMissingName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(0, "u1", "A").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(1, "u1", "B").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(2, "u1", "X").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Reorder(context.Background(), "u1", []string{"A", "B", "X"})
	var missing *MissingLocationError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "X", missing.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_ReorderRollsBackOnPartialList(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(0, "u1", "A").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(countSQL).WithArgs("u1").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	err := store.Reorder(context.Background(), "u1", []string{"A"})
	assert.ErrorIs(t, err, ErrIncompleteOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_ReorderRollsBackOnDriverError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateSQL).WithArgs(0, "u1", "A").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.Reorder(context.Background(), "u1", []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_InsertAssignsNextOrder(t *testing.T) {
	store, mock := newMockStore(t)
	lat, lon := 35.17, 129.07

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(display_order) + 1, 0) FROM saved_locations WHERE user_id = $1`)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO saved_locations`).
		WithArgs("u1", "Busan", &lat, &lon, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectCommit()

	id, order, err := store.Insert(context.Background(), NewLocation{UserID: "u1", Name: "Busan", Latitude: &lat, Longitude: &lon})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 1, order)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_InsertDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO saved_locations`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Message: "duplicate key value"})
	mock.ExpectRollback()

	_, _, err := store.Insert(context.Background(), NewLocation{UserID: "u1", Name: "Seoul"})
	assert.ErrorIs(t, err, ErrLocationExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_DeleteCompacts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM saved_locations WHERE user_id = $1 AND location_name = $2 RETURNING display_order`)).
		WithArgs("u1", "New York").
		WillReturnRows(sqlmock.NewRows([]string{"display_order"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE saved_locations SET display_order = display_order - 1 WHERE user_id = $1 AND display_order > $2`)).
		WithArgs("u1", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, store.Delete(context.Background(), "u1", "New York"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_DeleteMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(lockSQL).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`DELETE FROM saved_locations`).
		WithArgs("u1", "Nowhere").
		WillReturnRows(sqlmock.NewRows([]string{"display_order"}))
	mock.ExpectRollback()

	err := store.Delete(context.Background(), "u1", "Nowhere")
	assert.ErrorIs(t, err, ErrLocationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLocationStore_ListByUser(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "user_id", "location_name", "latitude", "longitude", "display_order", "created_at"}).
		AddRow(2, "u1", "Busan", nil, nil, 0, now).
		AddRow(1, "u1", "Seoul", 37.56, 126.97, 1, now)
	mock.ExpectQuery(`SELECT id, user_id, location_name`).WithArgs("u1").WillReturnRows(rows)

	list, err := store.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Busan", list[0].LocationName)
	assert.Nil(t, list[0].Latitude)
	require.NotNil(t, list[1].Latitude)
	assert.InDelta(t, 37.56, *list[1].Latitude, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
