// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package offline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/config"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// Manager drains the offline queue towards the central server. Each
// drain pass delivers one batch of PENDING transactions; a transaction
// whose retry budget is exhausted is marked FAILED and left for manual
// reconciliation.
type Manager struct {
	cfg      config.Sync
	deviceID string
	queue    QueueStore
	central  Deliverer
	logger   *logger.Logger
}

// NewManager builds a Manager applying cfg for the given device.
func NewManager(cfg config.Sync, deviceID string, queue QueueStore, central Deliverer, logger *logger.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		deviceID: deviceID,
		queue:    queue,
		central:  central,
		logger:   logger,
	}
}

// DrainOnce performs one sync pass: load a batch of pending
// transactions, retire those over the retry budget, deliver the rest
// and mark each according to the server's per-transaction answer.
// Returns the number of transactions the server acknowledged.
func (m *Manager) DrainOnce(ctx context.Context) (int, error) {
	pending, err := m.queue.Pending(ctx, m.deviceID, m.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	deliverable := make([]models.OfflineTransaction, 0, len(pending))
	for _, txn := range pending {
		if !txn.ShouldRetry(m.cfg.MaxRetries) {
			if err := m.queue.MarkFailed(ctx, txn.TransactionID); err != nil {
				return 0, fmt.Errorf("mark transaction %s failed: %w", txn.TransactionID, err)
			}
			m.logger.Error().
				Str("transaction", txn.TransactionID.String()).
				Str("session", txn.SessionID.String()).
				Int("retries", txn.RetryCount).
				Msg("retry budget exhausted, transaction needs manual reconciliation")
			continue
		}
		deliverable = append(deliverable, txn)
	}
	if len(deliverable) == 0 {
		return 0, nil
	}

	now := time.Now()
	for _, txn := range deliverable {
		if err := m.queue.MarkAttempt(ctx, txn.TransactionID, now); err != nil {
			return 0, fmt.Errorf("mark sync attempt %s: %w", txn.TransactionID, err)
		}
	}

	response, err := m.deliver(ctx, models.SyncBatch{DeviceID: m.deviceID, Transactions: deliverable})
	if err != nil {
		// Attempts are already counted; the next pass retries what is
		// left under budget.
		return 0, fmt.Errorf("deliver sync batch: %w", err)
	}

	return m.settle(ctx, response)
}

// deliver ships the batch, retrying connectivity blips with exponential
// backoff. Rejections propagate immediately: re-sending an unchanged
// payload cannot change the server's answer.
func (m *Manager) deliver(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
	backoff := retry.NewExponential(m.cfg.BaseDelay)
	backoff = retry.WithCappedDuration(m.cfg.MaxDelay, backoff)
	backoff = retry.WithMaxRetries(uint64(m.cfg.MaxRetries), backoff)

	var response models.SyncBatchResponse
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		response, err = m.central.DeliverBatch(ctx, batch)
		if errors.Is(err, adapter.ErrNetworkUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return response, err
}

// settle applies the server's per-transaction verdicts. Duplicates are
// treated as delivered: the server already holds the record.
func (m *Manager) settle(ctx context.Context, response models.SyncBatchResponse) (int, error) {
	synced := 0
	for _, result := range response.Results {
		switch {
		case result.Accepted || result.Duplicate:
			if err := m.queue.MarkSynced(ctx, result.TransactionID); err != nil {
				return synced, fmt.Errorf("mark transaction %s synced: %w", result.TransactionID, err)
			}
			synced++
		default:
			m.logger.Warn().
				Str("transaction", result.TransactionID.String()).
				Str("error", result.Error).
				Msg("transaction rejected by central server")
		}
	}

	if synced > 0 {
		m.logger.Info().Int("synced", synced).Msg("offline transactions reconciled")
	}
	return synced, nil
}

// Failed lists transactions whose retry budget is exhausted, for
// operator review.
func (m *Manager) Failed(ctx context.Context) ([]models.OfflineTransaction, error) {
	return m.queue.Failed(ctx, m.deviceID)
}

// Retry returns one FAILED transaction to the pending queue with a
// fresh retry budget (operator action).
func (m *Manager) Retry(ctx context.Context, transactionID uuid.UUID) error {
	if err := m.queue.Requeue(ctx, transactionID); err != nil {
		return fmt.Errorf("requeue transaction %s: %w", transactionID, err)
	}
	m.logger.Info().Str("transaction", transactionID.String()).Msg("failed transaction requeued")
	return nil
}
