package cache

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Pesokrava/product_directory/internal/domain"
)

func TestKeys(t *testing.T) {
	pid := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	q := domain.ReviewQuery{ProductID: &pid, Sort: domain.ReviewSortHelpfulCount, Order: domain.SortDesc, Page: 2, PageSize: 10}

	assert.Equal(t, "product:slug:foo", productDetailKey("foo"))
	assert.Equal(t, "product:11111111-1111-4111-8111-111111111111:reviews:helpfulCount:desc:page:2:limit:10", reviewsPageKey(q))
	assert.Equal(t, "product:11111111-1111-4111-8111-111111111111:cache_keys", productKeysSet(pid))
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	epoch, err := c.Epoch(ctx)
	assert.NoError(t, err)
	assert.NoError(t, c.SetProductDetail(ctx, epoch, &domain.ProductDetail{}))

	_, err = c.GetProductDetail(ctx, "foo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = c.GetStats(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, c.InvalidateProduct(ctx, uuid.New()))
}

func TestRedisCache_ImplementsCache(t *testing.T) {
	var _ Cache = (*RedisCache)(nil)
}
