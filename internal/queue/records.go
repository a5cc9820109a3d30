package queue

import (
	"context"
	"fmt"
	"time"

	"dmhmr/internal/validate"
)

// Exists reports whether a record with the given identity key has already
// been accepted. Satisfies validate.DuplicateChecker.
func (s *Store) Exists(ctx context.Context, key validate.DuplicateKey) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(1) FROM accepted_records
        WHERE asset_id = ? AND client_id = ? AND ex_date = ? AND type_tag = ?`,
		key.AssetID,
		key.ClientID,
		key.ExDate.Format(exDateLayout),
		key.TypeTag,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check accepted record: %w", err)
	}
	return count > 0, nil
}

// Accept records an identity key as accepted. The insert-or-ignore keeps
// check-and-insert atomic under concurrent extractions: exactly one caller
// observes inserted=true for a given key.
func (s *Store) Accept(ctx context.Context, key validate.DuplicateKey) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO accepted_records (asset_id, client_id, ex_date, type_tag, accepted_at)
        VALUES (?, ?, ?, ?, ?)`,
		key.AssetID,
		key.ClientID,
		key.ExDate.Format(exDateLayout),
		key.TypeTag,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("accept record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("accept record: %w", err)
	}
	return affected > 0, nil
}
