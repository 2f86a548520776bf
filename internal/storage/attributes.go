package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kathyli05/kathboard/internal/models"
)

const attributeColumns = `id, friend_id, "key", value, created_at, updated_at`

// SetAttribute writes value under key for a friend. The first write creates
// the attribute; later writes replace its value in place. The write is a
// single insert-or-update statement against the (friend_id, key) unique
// constraint, so concurrent callers cannot produce duplicates.
func (s *Store) SetAttribute(ctx context.Context, friendID, key string, value *string) (*models.Attribute, error) {
	if err := s.checkText("key", key); err != nil {
		return nil, err
	}

	var attr *models.Attribute
	now := s.timestamp()
	err := s.withTx(ctx, "set attribute", func(tx *sql.Tx) error {
		if err := s.friendExists(ctx, tx, friendID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.dialect.UpsertAttribute(),
			newID(), friendID, key, value, now, now,
		); err != nil {
			return fmt.Errorf("upsert attribute: %w", err)
		}

		row := tx.QueryRowContext(ctx,
			s.q(`SELECT `+attributeColumns+` FROM attributes WHERE friend_id = ? AND "key" = ?`),
			friendID, key,
		)
		a, err := scanAttribute(row)
		if err != nil {
			return fmt.Errorf("read back attribute: %w", err)
		}
		attr = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attr, nil
}

// GetAttributes returns a friend's attributes in insertion order.
func (s *Store) GetAttributes(ctx context.Context, friendID string) ([]models.Attribute, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+attributeColumns+` FROM attributes WHERE friend_id = ? ORDER BY created_at ASC, id ASC`),
		friendID,
	)
	if err != nil {
		return nil, &StorageError{Op: "list attributes", Err: err}
	}
	defer rows.Close()

	attrs := []models.Attribute{}
	for rows.Next() {
		a, err := scanAttribute(rows)
		if err != nil {
			return nil, &StorageError{Op: "list attributes", Err: fmt.Errorf("scan attribute: %w", err)}
		}
		attrs = append(attrs, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list attributes", Err: err}
	}
	return attrs, nil
}

// ListAttributeKeys returns every distinct attribute key in ascending order.
func (s *Store) ListAttributeKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT DISTINCT "key" FROM attributes ORDER BY "key" ASC`))
	if err != nil {
		return nil, &StorageError{Op: "list attribute keys", Err: err}
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &StorageError{Op: "list attribute keys", Err: fmt.Errorf("scan key: %w", err)}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list attribute keys", Err: err}
	}
	return keys, nil
}

// DeleteAttribute removes key from a friend. Missing keys are not an error.
func (s *Store) DeleteAttribute(ctx context.Context, friendID, key string) error {
	return s.withTx(ctx, "delete attribute", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`DELETE FROM attributes WHERE friend_id = ? AND "key" = ?`), friendID, key)
		if err != nil {
			return fmt.Errorf("delete attribute: %w", err)
		}
		return nil
	})
}

func scanAttribute(row rowScanner) (*models.Attribute, error) {
	var a models.Attribute
	if err := row.Scan(&a.ID, &a.FriendID, &a.Key, &a.Value, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
