//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/product_directory/internal/delivery/events"
	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/usecase/aggregate"
	"github.com/Pesokrava/product_directory/internal/worker"
)

func TestAuditWorker_RepairsDriftFromEvents(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	owner := env.user(domain.RoleUser)
	admin := env.user(domain.RoleAdmin)
	id, _ := env.approvedProduct(owner, admin)
	productID := uuid.MustParse(id)

	for _, rating := range []int{5, 4, 3} {
		w := env.do("POST", "/api/v1/reviews", map[string]any{
			"product_id": id,
			"rating":     rating,
			"content":    "audit",
		}, env.user(domain.RoleUser))
		require.Equal(t, 201, w.Code, w.Body.String())
	}

	// Simulate drift that bypassed the write path
	_, err := env.db.ExecContext(ctx,
		`UPDATE products SET average_rating = 1, total_reviews = 99 WHERE id = $1`, productID)
	require.NoError(t, err)

	consumerSpec := events.ConsumerSpec{
		Name:          "audit-test-" + uuid.NewString()[:8],
		FilterSubject: events.AuditConsumer.FilterSubject,
	}
	consumer, err := events.NewConsumer(env.cfg, consumerSpec, env.log)
	require.NoError(t, err)
	defer consumer.Close()

	auditWorker := worker.NewAuditWorker(worker.NewStoreAuditor(env.store), 200*time.Millisecond, 3, env.log)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go consumer.Run(runCtx, auditWorker.HandleEvent)

	publisher, err := events.NewPublisher(env.cfg, env.log)
	require.NoError(t, err)
	defer publisher.Close()

	event := domain.NewEvent(domain.EventReviewUpdated, nil, productID)
	require.NoError(t, publisher.Publish(ctx, event))

	assert.Eventually(t, func() bool {
		p, err := env.store.Products().GetByID(ctx, productID, domain.ExcludeDeleted)
		return err == nil && p.TotalReviews == 3
	}, 15*time.Second, 200*time.Millisecond)

	p, err := env.store.Products().GetByID(ctx, productID, domain.ExcludeDeleted)
	require.NoError(t, err)
	assert.Equal(t, "4.00", p.AverageRating.StringFixed(2))

	drifted, err := aggregate.AuditProductRating(ctx, env.store, productID)
	require.NoError(t, err)
	assert.False(t, drifted)

	shutdownCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	require.NoError(t, auditWorker.Shutdown(shutdownCtx))
}
