package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func TestAggregateStore_LockProduct(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM products WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	require.NoError(t, store.Aggregates().LockProduct(context.Background(), id))

	missing := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	assert.ErrorIs(t, store.Aggregates().LockProduct(context.Background(), missing), domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateStore_RatingStats(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1 AND status = 'approved' AND deleted_at IS NULL")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"rating_sum", "rating_count"}).AddRow(12, 3))

	stats, err := store.Aggregates().RatingStats(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.RatingStats{Sum: 12, Count: 3}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateStore_SetProductRating(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE products").
		WithArgs("4.50", 2, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	avg := domain.NewRating(decimal.NewFromInt(9).Div(decimal.NewFromInt(2)))
	require.NoError(t, store.Aggregates().SetProductRating(context.Background(), id, avg, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateStore_HelpfulCount(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM review_votes WHERE review_id = $1 AND is_helpful")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reviews SET helpful_count = $1 WHERE id = $2")).
		WithArgs(4, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := store.Aggregates().CountHelpfulVotes(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, store.Aggregates().SetHelpfulCount(context.Background(), id, n))
	assert.NoError(t, mock.ExpectationsWereMet())
}
