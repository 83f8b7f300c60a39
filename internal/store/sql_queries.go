// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

package store

const (
	createUser = `
		INSERT INTO users (
			user_id,
			first_name,
			last_name,
			date_of_birth,
			government_id,
			biometric_template_ref,
			phone_number,
			pin_hash,
			face_recognition,
			pin_enabled,
			otp_enabled,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING user_id, created_at;`

	findUser = `
		SELECT
			user_id,
			first_name,
			last_name,
			date_of_birth,
			government_id,
			biometric_template_ref,
			phone_number,
			pin_hash,
			face_recognition,
			pin_enabled,
			otp_enabled,
			status,
			created_at,
			last_authenticated
		FROM users
		WHERE user_id = $1;`

	updateUserStatus = `
		UPDATE users
		SET status = $1
		WHERE user_id = $2;`

	touchLastAuthenticated = `
		UPDATE users
		SET last_authenticated = GREATEST(COALESCE(last_authenticated, $1), $1)
		WHERE user_id = $2;`

	saveFamilyMember = `
		INSERT INTO family_members (
			family_member_id,
			member_user_id,
			primary_user_id,
			relationship,
			authorization_level,
			consent_given,
			consent_at,
			is_active,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (member_user_id, primary_user_id) DO UPDATE SET
			relationship        = EXCLUDED.relationship,
			authorization_level = EXCLUDED.authorization_level,
			consent_given       = EXCLUDED.consent_given,
			consent_at          = EXCLUDED.consent_at,
			is_active           = EXCLUDED.is_active
		RETURNING family_member_id, created_at;`

	findFamilyLink = `
		SELECT
			family_member_id,
			member_user_id,
			primary_user_id,
			relationship,
			authorization_level,
			consent_given,
			consent_at,
			is_active,
			created_at
		FROM family_members
		WHERE member_user_id = $1 AND primary_user_id = $2;`

	setFamilyConsent = `
		UPDATE family_members
		SET consent_given = $1,
		    consent_at    = CASE WHEN $1 THEN NOW() ELSE consent_at END
		WHERE family_member_id = $2;`

	listFamilyByPrimary = `
		SELECT
			family_member_id,
			member_user_id,
			primary_user_id,
			relationship,
			authorization_level,
			consent_given,
			consent_at,
			is_active,
			created_at
		FROM family_members
		WHERE primary_user_id = $1
		ORDER BY created_at;`

	appendAuditRecord = `
		INSERT INTO audit_records (
			record_id,
			session_id,
			subject_user_id,
			acting_user_id,
			device_id,
			method,
			outcome,
			proxy_access,
			authorization_level,
			recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (record_id) DO NOTHING;`

	saveLockout = `
		INSERT INTO lockout_records (
			lockout_id,
			subject_user_id,
			device_id,
			reason,
			locked_at,
			expires_at,
			manual_clear
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lockout_id) DO NOTHING;`

	findActiveLockout = `
		SELECT
			lockout_id,
			subject_user_id,
			device_id,
			reason,
			locked_at,
			expires_at,
			manual_clear
		FROM lockout_records
		WHERE subject_user_id = $1
		  AND device_id = $2
		  AND manual_clear = FALSE
		  AND expires_at > NOW()
		ORDER BY expires_at DESC
		LIMIT 1;`

	clearLockout = `
		UPDATE lockout_records
		SET manual_clear = TRUE
		WHERE lockout_id = $1;`

	recordSyncedTransaction = `
		INSERT INTO synced_transactions (transaction_id, device_id, received_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (transaction_id) DO NOTHING;`

	saveDevice = `
		INSERT INTO devices (device_id, enrolled_at)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET enrolled_at = EXCLUDED.enrolled_at;`

	findDevice = `
		SELECT enrolled_at
		FROM devices
		WHERE device_id = $1;`
)
