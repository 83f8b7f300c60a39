// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/internal/adapter"
	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// Recorder records completed sessions: straight to the central audit
// sink while the server answers, into the encrypted local queue when it
// does not. A session is never lost between the two paths: enqueueing
// happens before RecordCompletion returns, and an encryption failure
// aborts the operation instead of storing plaintext.
type Recorder struct {
	central adapter.CentralClient
	queue   QueueStore
	cipher  crypto.PayloadCipher
	logger  *logger.Logger
}

// NewRecorder builds a Recorder over the central client and the local
// queue.
func NewRecorder(central adapter.CentralClient, queue QueueStore, cipher crypto.PayloadCipher, logger *logger.Logger) *Recorder {
	return &Recorder{
		central: central,
		queue:   queue,
		cipher:  cipher,
		logger:  logger,
	}
}

// RecordCompletion delivers record to the central server, falling back
// to the offline queue when the server is unreachable or the device
// token is stale: a re-enrolment fixes the token, and the queued
// transaction goes out on the next sync pass. Only permanent
// rejections are returned to the caller, a payload the server refuses
// would be refused again at sync time.
func (r *Recorder) RecordCompletion(ctx context.Context, record models.SessionRecord) error {
	err := r.central.DeliverRecord(ctx, record)
	if err == nil {
		return nil
	}
	if !errors.Is(err, adapter.ErrNetworkUnavailable) && !errors.Is(err, adapter.ErrUnauthorized) {
		return fmt.Errorf("deliver completed session %s: %w", record.Session.SessionID, err)
	}

	r.logger.Info().
		Str("session", record.Session.SessionID.String()).
		Err(err).
		Msg("central server unavailable to this device, queueing session for sync")

	if err := r.enqueue(ctx, record); err != nil {
		return err
	}
	return nil
}

func (r *Recorder) enqueue(ctx context.Context, record models.SessionRecord) error {
	plaintext, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record %s: %w", record.Session.SessionID, err)
	}

	payload, err := r.cipher.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt session record %s: %w", record.Session.SessionID, err)
	}

	txn := models.OfflineTransaction{
		TransactionID: uuid.New(),
		SessionID:     record.Session.SessionID,
		SubjectUserID: record.Session.SubjectUserID,
		DeviceID:      record.Session.DeviceID,
		Payload:       payload,
		SyncStatus:    models.SyncPending,
		CreatedAt:     time.Now(),
	}

	if err := r.queue.Enqueue(ctx, txn); err != nil {
		return fmt.Errorf("enqueue offline transaction %s: %w", txn.TransactionID, err)
	}

	r.logger.Debug().
		Str("transaction", txn.TransactionID.String()).
		Str("session", txn.SessionID.String()).
		Msg("offline transaction enqueued")

	return nil
}
