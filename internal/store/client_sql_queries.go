// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package store

const localSchema = `
	CREATE TABLE IF NOT EXISTS offline_transactions (
		transaction_id    TEXT PRIMARY KEY,
		session_id        TEXT NOT NULL,
		subject_user_id   TEXT NOT NULL,
		device_id         TEXT NOT NULL,
		payload           BLOB NOT NULL,
		sync_status       TEXT NOT NULL DEFAULT 'PENDING',
		retry_count       INTEGER NOT NULL DEFAULT 0,
		last_sync_attempt TIMESTAMP,
		created_at        TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempt_events (
		event_id        INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id      TEXT NOT NULL,
		subject_user_id TEXT NOT NULL,
		device_id       TEXT NOT NULL,
		method          TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		at              TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempt_events_scope
		ON attempt_events (subject_user_id, device_id, at);

	CREATE TABLE IF NOT EXISTS consumer_cursors (
		consumer TEXT PRIMARY KEY,
		cursor   INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS otp_issues (
		issue_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		code_hash  TEXT NOT NULL,
		issued_at  TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		consumed   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS lockout_records (
		lockout_id      TEXT PRIMARY KEY,
		subject_user_id TEXT NOT NULL,
		device_id       TEXT NOT NULL,
		reason          TEXT NOT NULL,
		locked_at       TIMESTAMP NOT NULL,
		expires_at      TIMESTAMP NOT NULL,
		manual_clear    INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS cached_users (
		user_id      TEXT PRIMARY KEY,
		record       BLOB NOT NULL,
		refreshed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cached_family_links (
		member_user_id  TEXT NOT NULL,
		primary_user_id TEXT NOT NULL,
		record          BLOB NOT NULL,
		refreshed_at    TIMESTAMP NOT NULL,
		PRIMARY KEY (member_user_id, primary_user_id)
	);`

const (
	localEnqueueTransaction = `
		INSERT INTO offline_transactions (
			transaction_id,
			session_id,
			subject_user_id,
			device_id,
			payload,
			sync_status,
			retry_count,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, ?);`

	localPendingTransactions = `
		SELECT
			transaction_id,
			session_id,
			subject_user_id,
			device_id,
			payload,
			sync_status,
			retry_count,
			last_sync_attempt,
			created_at
		FROM offline_transactions
		WHERE device_id = ? AND sync_status = 'PENDING'
		ORDER BY created_at
		LIMIT ?;`

	localFailedTransactions = `
		SELECT
			transaction_id,
			session_id,
			subject_user_id,
			device_id,
			payload,
			sync_status,
			retry_count,
			last_sync_attempt,
			created_at
		FROM offline_transactions
		WHERE device_id = ? AND sync_status = 'FAILED'
		ORDER BY created_at;`

	localMarkSynced = `
		UPDATE offline_transactions
		SET sync_status = 'SYNCED'
		WHERE transaction_id = ?;`

	localMarkAttempt = `
		UPDATE offline_transactions
		SET retry_count = retry_count + 1, last_sync_attempt = ?
		WHERE transaction_id = ?;`

	localMarkFailed = `
		UPDATE offline_transactions
		SET sync_status = 'FAILED'
		WHERE transaction_id = ?;`

	localRequeueTransaction = `
		UPDATE offline_transactions
		SET sync_status = 'PENDING', retry_count = 0
		WHERE transaction_id = ? AND sync_status = 'FAILED';`

	localAppendAttemptEvent = `
		INSERT INTO attempt_events (session_id, subject_user_id, device_id, method, outcome, at)
		VALUES (?, ?, ?, ?, ?, ?);`

	localEventsAfter = `
		SELECT event_id, session_id, subject_user_id, device_id, method, outcome, at
		FROM attempt_events
		WHERE event_id > ?
		ORDER BY event_id
		LIMIT ?;`

	localFailureCount = `
		SELECT COUNT(*)
		FROM attempt_events
		WHERE subject_user_id = ? AND device_id = ? AND outcome <> 'SUCCESS' AND at >= ?;`

	localGetCursor = `
		SELECT cursor FROM consumer_cursors WHERE consumer = ?;`

	localSetCursor = `
		INSERT INTO consumer_cursors (consumer, cursor)
		VALUES (?, ?)
		ON CONFLICT (consumer) DO UPDATE SET cursor = excluded.cursor;`

	localSaveOTPIssue = `
		INSERT INTO otp_issues (user_id, code_hash, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, ?, 0);`

	localLatestOTPIssue = `
		SELECT issue_id, user_id, code_hash, issued_at, expires_at, consumed
		FROM otp_issues
		WHERE user_id = ?
		ORDER BY issue_id DESC
		LIMIT 1;`

	localConsumeOTPIssue = `
		UPDATE otp_issues
		SET consumed = 1
		WHERE issue_id = ? AND consumed = 0;`

	localSaveLockout = `
		INSERT INTO lockout_records (
			lockout_id,
			subject_user_id,
			device_id,
			reason,
			locked_at,
			expires_at,
			manual_clear
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (lockout_id) DO NOTHING;`

	localActiveLockout = `
		SELECT lockout_id, subject_user_id, device_id, reason, locked_at, expires_at, manual_clear
		FROM lockout_records
		WHERE subject_user_id = ? AND device_id = ? AND manual_clear = 0 AND expires_at > ?
		ORDER BY expires_at DESC
		LIMIT 1;`

	localClearLockout = `
		UPDATE lockout_records
		SET manual_clear = 1
		WHERE lockout_id = ?;`

	localCacheUser = `
		INSERT INTO cached_users (user_id, record, refreshed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET record = excluded.record, refreshed_at = excluded.refreshed_at;`

	localGetCachedUser = `
		SELECT record FROM cached_users WHERE user_id = ?;`

	localCacheFamilyLink = `
		INSERT INTO cached_family_links (member_user_id, primary_user_id, record, refreshed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (member_user_id, primary_user_id) DO UPDATE SET
			record = excluded.record, refreshed_at = excluded.refreshed_at;`

	localGetCachedFamilyLink = `
		SELECT record FROM cached_family_links WHERE member_user_id = ? AND primary_user_id = ?;`
)
