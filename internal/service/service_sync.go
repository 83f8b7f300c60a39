package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gramseva/idverify/internal/crypto"
	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/internal/store"
	"github.com/gramseva/idverify/models"
)

// CipherFactory builds the payload cipher for a given device. The key is
// derived from the provisioning secret and the device ID, so the receive
// path can open payloads from any enrolled device.
type CipherFactory func(deviceID string) (crypto.PayloadCipher, error)

// syncService is the concrete implementation of SyncService. Every
// transaction is settled independently: the batch response carries one
// verdict per transaction, and a payload the service cannot read is
// rejected without blocking the rest of the batch.
type syncService struct {
	syncRepository store.SyncRepository
	auditService   AuditService
	cipherFor      CipherFactory
	classifier     store.ErrorClassificator
	logger         *logger.Logger
}

// NewSyncService constructs a SyncService over the dedup repository and
// the audit sink.
func NewSyncService(syncRepository store.SyncRepository, auditService AuditService, cipherFor CipherFactory, logger *logger.Logger) SyncService {
	return &syncService{
		syncRepository: syncRepository,
		auditService:   auditService,
		cipherFor:      cipherFor,
		classifier:     store.NewPostgresErrorClassifier(),
		logger:         logger,
	}
}

// ReceiveBatch applies a batch of offline transactions. A transaction ID
// seen before is acknowledged as duplicate without re-applying its
// payload, which gives exactly-once application over the agents'
// at-least-once delivery.
func (s *syncService) ReceiveBatch(ctx context.Context, batch models.SyncBatch) (models.SyncBatchResponse, error) {
	log := logger.FromContext(ctx)

	if batch.DeviceID == "" {
		return models.SyncBatchResponse{}, fmt.Errorf("%w: batch without device id", ErrInvalidDataProvided)
	}

	cipher, err := s.cipherFor(batch.DeviceID)
	if err != nil {
		return models.SyncBatchResponse{}, fmt.Errorf("build device cipher: %w", err)
	}
	response := models.SyncBatchResponse{Results: make([]models.SyncResult, 0, len(batch.Transactions))}

	for _, txn := range batch.Transactions {
		result, err := s.receiveOne(ctx, cipher, txn)
		if err != nil {
			// Transient storage trouble: abort so the agent redelivers
			// the whole batch instead of burning per-transaction
			// rejections on an outage.
			return models.SyncBatchResponse{}, err
		}
		response.Results = append(response.Results, result)
	}

	log.Info().
		Str("device", batch.DeviceID).
		Int("transactions", len(batch.Transactions)).
		Msg("sync batch processed")

	return response, nil
}

func (s *syncService) receiveOne(ctx context.Context, cipher crypto.PayloadCipher, txn models.OfflineTransaction) (models.SyncResult, error) {
	log := logger.FromContext(ctx)
	result := models.SyncResult{TransactionID: txn.TransactionID}

	record, err := s.openPayload(cipher, txn)
	if err != nil {
		log.Err(err).Str("transaction", txn.TransactionID.String()).Msg("unreadable sync payload")
		result.Error = ErrPayloadUnreadable.Error()
		return result, nil
	}

	// Apply before registering: the audit append is idempotent per
	// record ID, so a crash between the two steps only costs a harmless
	// re-application on the next delivery.
	if err := s.auditService.AppendRecord(ctx, record); err != nil {
		if s.classifier.Classify(err) == store.Retryable {
			return result, fmt.Errorf("apply session record: %w", err)
		}
		log.Err(err).Str("transaction", txn.TransactionID.String()).Msg("applying synced session ended with error")
		result.Error = err.Error()
		return result, nil
	}

	duplicate, err := s.syncRepository.RecordTransaction(ctx, txn.TransactionID, txn.DeviceID)
	if err != nil {
		if s.classifier.Classify(err) == store.Retryable {
			return result, fmt.Errorf("register transaction: %w", err)
		}
		log.Err(err).Str("transaction", txn.TransactionID.String()).Msg("transaction registration ended with error")
		result.Error = err.Error()
		return result, nil
	}
	if duplicate {
		result.Duplicate = true
		return result, nil
	}

	result.Accepted = true
	return result, nil
}

func (s *syncService) openPayload(cipher crypto.PayloadCipher, txn models.OfflineTransaction) (models.SessionRecord, error) {
	plaintext, err := cipher.Decrypt(txn.Payload)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("decrypt payload: %w", err)
	}

	var record models.SessionRecord
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return models.SessionRecord{}, fmt.Errorf("decode payload: %w", err)
	}
	return record, nil
}
