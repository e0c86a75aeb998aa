// Package worker runs background jobs fed by directory events.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Pesokrava/product_directory/internal/domain"
	"github.com/Pesokrava/product_directory/internal/pkg/logger"
	"github.com/Pesokrava/product_directory/internal/pkg/retry"
	"github.com/Pesokrava/product_directory/internal/usecase/aggregate"
)

const (
	defaultDebounce   = 1 * time.Second
	defaultMaxRetries = 3
	initialBackoff    = 100 * time.Millisecond
	attemptTimeout    = 5 * time.Second
)

// Auditor checks a product's stored aggregate against its reviews and repairs drift
type Auditor interface {
	Audit(ctx context.Context, productID uuid.UUID) (bool, error)
}

// StoreAuditor audits aggregates held in a domain.Store
type StoreAuditor struct {
	store domain.Store
}

// NewStoreAuditor creates an auditor over the store
func NewStoreAuditor(store domain.Store) *StoreAuditor {
	return &StoreAuditor{store: store}
}

// Audit recomputes the product rating and reports whether the stored value had drifted
func (a *StoreAuditor) Audit(ctx context.Context, productID uuid.UUID) (bool, error) {
	return aggregate.AuditProductRating(ctx, a.store, productID)
}

// AuditWorker consumes review events and re-audits the affected product's rating
// once its events go quiet for the debounce window.
type AuditWorker struct {
	auditor    Auditor
	logger     *logger.Logger
	debounce   time.Duration
	maxRetries int

	mu            sync.Mutex
	pendingAudits map[uuid.UUID]*pendingAudit
	shutdownCh    chan struct{}
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

type pendingAudit struct {
	timestamp time.Time
	timer     *time.Timer
}

// NewAuditWorker creates a new audit worker. Zero debounce or retries select the defaults.
func NewAuditWorker(auditor Auditor, debounce time.Duration, maxRetries int, log *logger.Logger) *AuditWorker {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditWorker{
		auditor:       auditor,
		logger:        log,
		debounce:      debounce,
		maxRetries:    maxRetries,
		pendingAudits: make(map[uuid.UUID]*pendingAudit),
		shutdownCh:    make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// HandleEvent schedules an audit for the product named by a review event
func (w *AuditWorker) HandleEvent(data []byte) error {
	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	// Votes never move the product rating
	if event.Type == domain.EventReviewVoted || event.ProductID == uuid.Nil {
		return nil
	}

	w.logger.WithFields(map[string]any{
		"type":       string(event.Type),
		"product_id": event.ProductID.String(),
		"timestamp":  event.Timestamp,
	}).Debug("Received review event")

	w.scheduleAudit(event.ProductID, event.Timestamp)
	return nil
}

// scheduleAudit debounces audits per product. Events older than the pending one are ignored.
func (w *AuditWorker) scheduleAudit(productID uuid.UUID, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingAudits[productID]
	if found && timestamp.Before(existing.timestamp) {
		w.logger.WithFields(map[string]any{
			"product_id":  productID.String(),
			"existing_ts": existing.timestamp,
			"event_ts":    timestamp,
		}).Debug("Ignoring stale event")
		return
	}

	// A stopped timer hands its wait group slot to the replacement
	if !found || !existing.timer.Stop() {
		w.wg.Add(1)
	}

	audit := &pendingAudit{timestamp: timestamp}
	audit.timer = time.AfterFunc(w.debounce, func() {
		w.processAudit(productID, audit)
	})
	w.pendingAudits[productID] = audit
}

// processAudit runs the audit with exponential backoff between attempts
func (w *AuditWorker) processAudit(productID uuid.UUID, audit *pendingAudit) {
	defer w.wg.Done()

	w.mu.Lock()
	if w.pendingAudits[productID] == audit {
		delete(w.pendingAudits, productID)
	}
	w.mu.Unlock()

	fields := map[string]any{"product_id": productID.String()}
	drifted := false

	err := retry.Do(w.ctx, retry.Policy{
		Attempts:   w.maxRetries,
		Delay:      initialBackoff,
		Multiplier: 2,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			w.logger.WithFields(fields).With("attempt", attempt).Error("Aggregate audit failed", err)
			w.logger.WithFields(fields).With("backoff_ms", wait.Milliseconds()).Warn("Retrying aggregate audit")
		},
	}, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, attemptTimeout)
		defer cancel()

		var err error
		drifted, err = w.auditor.Audit(ctx, productID)
		if errors.Is(err, domain.ErrNotFound) {
			return retry.Stop(err)
		}
		return err
	})

	switch {
	case err == nil:
		if drifted {
			w.logger.WithFields(fields).Warn("Repaired drifted product rating")
		}
	case errors.Is(err, domain.ErrNotFound):
		w.logger.Debugf("Product %s no longer exists, skipping audit", productID)
	case w.ctx.Err() != nil:
		w.logger.Info("Worker context cancelled, aborting audit")
	default:
		w.logger.WithFields(fields).With("max_retries", w.maxRetries).
			Error("Aggregate audit failed after all retries", err)
	}
}

// Shutdown cancels pending audits and waits for in-flight ones to complete
func (w *AuditWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down audit worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	cancelled := 0
	for id, audit := range w.pendingAudits {
		// A timer that already fired owns its wg slot and removes itself
		if audit.timer.Stop() {
			w.wg.Done()
			cancelled++
		}
		delete(w.pendingAudits, id)
	}
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_audits": cancelled,
	}).Info("Cancelled pending audits")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight audits completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// PendingCount returns the number of scheduled audits
func (w *AuditWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingAudits)
}
