package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/domain"
)

var reviewRowColumns = []string{
	"id", "product_id", "user_id", "rating", "title", "content", "pros", "cons",
	"helpful_count", "status", "created_at", "updated_at", "deleted_at",
}

func reviewRow(id, productID, userID uuid.UUID, now time.Time) []driver.Value {
	return []driver.Value{
		id.String(), productID.String(), userID.String(), 4, nil, "Solid", []byte(`["fast"]`), nil,
		2, "approved", now, now, nil,
	}
}

func TestReviewRepository_Create(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	id := uuid.New()

	review := &domain.Review{
		ProductID: uuid.New(),
		UserID:    uuid.New(),
		Rating:    5,
		Content:   "Great",
		Pros:      domain.StringList{"fast"},
		Status:    domain.ReviewPending,
	}

	mock.ExpectQuery("INSERT INTO reviews").
		WithArgs(review.ProductID, review.UserID, 5, nil, "Great", []byte(`["fast"]`), nil, "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "helpful_count", "created_at", "updated_at"}).
			AddRow(id.String(), 0, now, now))

	require.NoError(t, store.Reviews().Create(context.Background(), review))
	assert.Equal(t, id, review.ID)
	assert.Equal(t, 0, review.HelpfulCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_DuplicateLiveReview(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "uq_reviews_product_user_live"})

	err := store.Reviews().Create(context.Background(), &domain.Review{Rating: 3, Content: "Again"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_GetByID_Scope(t *testing.T) {
	id, productID, userID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	t.Run("excludes tombstones", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM reviews r WHERE r.id = $1 AND r.deleted_at IS NULL")).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(reviewRowColumns).AddRow(reviewRow(id, productID, userID, now)...))

		review, err := store.Reviews().GetByID(context.Background(), id, domain.ExcludeDeleted)
		require.NoError(t, err)
		assert.Equal(t, productID, review.ProductID)
		assert.Equal(t, domain.StringList{"fast"}, review.Pros)
		assert.Nil(t, review.Cons)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("includes tombstones", func(t *testing.T) {
		store, mock := newMockStore(t)
		deleted := now.Add(-time.Hour)
		row := reviewRow(id, productID, userID, now)
		row[len(row)-1] = deleted
		mock.ExpectQuery(regexp.QuoteMeta("FROM reviews r WHERE r.id = $1") + "$").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(reviewRowColumns).AddRow(row...))

		review, err := store.Reviews().GetByID(context.Background(), id, domain.IncludeDeleted)
		require.NoError(t, err)
		require.NotNil(t, review.DeletedAt)
		assert.False(t, review.Counted())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE r.id = $1 AND r.deleted_at IS NULL")).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Reviews().GetByID(context.Background(), id, domain.ExcludeDeleted)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReviewRepository_FindLive(t *testing.T) {
	store, mock := newMockStore(t)
	id, productID, userID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM reviews r WHERE r.product_id = $1 AND r.user_id = $2 AND r.deleted_at IS NULL")).
		WithArgs(productID, userID).
		WillReturnRows(sqlmock.NewRows(reviewRowColumns).AddRow(reviewRow(id, productID, userID, time.Now())...))

	review, err := store.Reviews().FindLive(context.Background(), productID, userID)
	require.NoError(t, err)
	assert.Equal(t, id, review.ID)
	assert.Equal(t, userID, review.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_FindLive_NoneLive(t *testing.T) {
	store, mock := newMockStore(t)
	productID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("r.product_id = $1 AND r.user_id = $2 AND r.deleted_at IS NULL")).
		WithArgs(productID, userID).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Reviews().FindLive(context.Background(), productID, userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Update_SkipsTombstones(t *testing.T) {
	store, mock := newMockStore(t)
	title := "Better"
	review := &domain.Review{ID: uuid.New(), Rating: 2, Title: &title, Content: "Changed", Status: domain.ReviewPending}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $8 AND deleted_at IS NULL RETURNING updated_at")).
		WithArgs(2, "Better", "Changed", nil, nil, "pending", sqlmock.AnyArg(), review.ID).
		WillReturnError(sql.ErrNoRows)

	err := store.Reviews().Update(context.Background(), review)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SetStatus(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reviews SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL")).
		WithArgs("rejected", sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Reviews().SetStatus(context.Background(), id, domain.ReviewRejected))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_SoftDelete_AlreadyDeleted(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reviews SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Reviews().SoftDelete(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_List_LiveOnly(t *testing.T) {
	store, mock := newMockStore(t)
	productID := uuid.New()
	approved := domain.ReviewApproved
	q := domain.ReviewQuery{
		ProductID: &productID,
		Status:    &approved,
		Sort:      domain.ReviewSortRating,
		Order:     domain.SortAsc,
		Page:      2,
		PageSize:  5,
		Deleted:   domain.ExcludeDeleted,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews r JOIN products p ON p.id = r.product_id WHERE r.deleted_at IS NULL AND p.deleted_at IS NULL AND r.status = $1 AND r.product_id = $2")).
		WithArgs("approved", productID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	now := time.Now()
	cols := append(append([]string{}, reviewRowColumns...), "user_name", "user_avatar", "product_name", "product_slug")
	row := append(reviewRow(uuid.New(), productID, uuid.New(), now), "Ann", nil, "Foo", "foo")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.deleted_at IS NULL AND p.deleted_at IS NULL AND r.status = $1 AND r.product_id = $2 ORDER BY r.rating ASC, r.id ASC LIMIT $3 OFFSET $4")).
		WithArgs("approved", productID, 5, 5).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	reviews, total, err := store.Reviews().List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, "foo", reviews[0].ProductSlug)
	assert.Equal(t, "Ann", *reviews[0].UserName)
	assert.Nil(t, reviews[0].DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_List_IncludeDeletedKeepsProductFilter(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()
	q := domain.ReviewQuery{UserID: &userID, Page: 1, PageSize: 20, Deleted: domain.IncludeDeleted}

	mock.ExpectQuery(regexp.QuoteMeta("JOIN products p ON p.id = r.product_id WHERE p.deleted_at IS NULL AND r.user_id = $1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.created_at DESC, r.id DESC LIMIT $2 OFFSET $3")).
		WithArgs(userID, 20, 0).
		WillReturnRows(sqlmock.NewRows(reviewRowColumns))

	reviews, total, err := store.Reviews().List(context.Background(), q)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CountByStatus_IgnoresStatusFilter(t *testing.T) {
	store, mock := newMockStore(t)
	productID := uuid.New()
	pending := domain.ReviewPending

	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.deleted_at IS NULL AND p.deleted_at IS NULL AND r.product_id = $1")).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"all_count", "pending_count", "approved_count", "rejected_count"}).
			AddRow(4, 1, 2, 1))

	counts, err := store.Reviews().CountByStatus(context.Background(),
		domain.ReviewQuery{ProductID: &productID, Status: &pending, Deleted: domain.ExcludeDeleted})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCounts{All: 4, Pending: 1, Approved: 2, Rejected: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
