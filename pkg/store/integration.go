// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ramisra/agentflow/pkg/svcerr"
)

// IntegrationCredential is a user's stored secret for one external
// integration (e.g. a sheets API token, a notes-app API key).
type IntegrationCredential struct {
	ID          string
	UserID      string
	Integration string
	Secret      string
	Metadata    map[string]any
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertIntegrationCredential idempotently creates or replaces the
// credential for (user_id, integration): calling it twice with the same
// pair updates the existing row rather than creating a duplicate.
func (s *Store) UpsertIntegrationCredential(ctx context.Context, userID, integration, secret string, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindInvalidInput, "UpsertIntegrationCredential", "failed to marshal metadata", err)
	}

	existing, err := s.getIntegrationCredential(ctx, userID, integration)
	now := time.Now()

	if err == sql.ErrNoRows {
		query := fmt.Sprintf(`
INSERT INTO user_integration_tokens (id, user_id, integration, secret, metadata, deleted, created_at, updated_at)
VALUES (%s)
`, s.placeholders(8))
		_, insertErr := s.db.ExecContext(ctx, query, uuid.NewString(), userID, integration, secret, string(metadataJSON), false, now, now)
		if insertErr != nil {
			return svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "UpsertIntegrationCredential", "insert failed", insertErr)
		}
		return nil
	}
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "UpsertIntegrationCredential", "lookup failed", err)
	}

	query := fmt.Sprintf(`
UPDATE user_integration_tokens SET secret = %s, metadata = %s, deleted = %s, updated_at = %s WHERE id = %s
`, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5))
	_, err = s.db.ExecContext(ctx, query, secret, string(metadataJSON), false, now, existing.ID)
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "UpsertIntegrationCredential", "update failed", err)
	}
	return nil
}

// GetIntegrationCredential fetches a user's non-deleted credential for an
// integration.
func (s *Store) GetIntegrationCredential(ctx context.Context, userID, integration string) (IntegrationCredential, error) {
	cred, err := s.getIntegrationCredential(ctx, userID, integration)
	if err == sql.ErrNoRows {
		return IntegrationCredential{}, svcerr.NewContextStoreError(svcerr.KindInvalidInput, "GetIntegrationCredential", "no credential for "+integration, nil)
	}
	if err != nil {
		return IntegrationCredential{}, svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "GetIntegrationCredential", "lookup failed", err)
	}
	return cred, nil
}

func (s *Store) getIntegrationCredential(ctx context.Context, userID, integration string) (IntegrationCredential, error) {
	query := fmt.Sprintf(`
SELECT id, user_id, integration, secret, metadata, deleted, created_at, updated_at
FROM user_integration_tokens WHERE user_id = %s AND integration = %s AND deleted = %s
`, s.placeholder(1), s.placeholder(2), s.placeholder(3))

	var (
		c            IntegrationCredential
		metadataJSON sql.NullString
		secret       sql.NullString
	)

	row := s.db.QueryRowContext(ctx, query, userID, integration, false)
	err := row.Scan(&c.ID, &c.UserID, &c.Integration, &secret, &metadataJSON, &c.Deleted, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return IntegrationCredential{}, err
	}

	c.Secret = secret.String
	if metadataJSON.Valid && metadataJSON.String != "" {
		_ = json.Unmarshal([]byte(metadataJSON.String), &c.Metadata)
	}
	return c, nil
}

// DeleteIntegrationCredential soft-deletes a user's credential.
func (s *Store) DeleteIntegrationCredential(ctx context.Context, userID, integration string) error {
	query := fmt.Sprintf(`
UPDATE user_integration_tokens SET deleted = %s, updated_at = %s WHERE user_id = %s AND integration = %s
`, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4))

	_, err := s.db.ExecContext(ctx, query, true, time.Now(), userID, integration)
	if err != nil {
		return svcerr.NewContextStoreError(svcerr.KindPersistenceFailure, "DeleteIntegrationCredential", "delete failed", err)
	}
	return nil
}
