package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kathyli05/kathboard/internal/models"
)

// CreateFriend inserts a friend with the allow-listed entries of fields and
// returns the generated id. Unknown keys in fields are ignored.
func (s *Store) CreateFriend(ctx context.Context, name string, fields map[string]any) (string, error) {
	if err := s.checkText("name", name); err != nil {
		return "", err
	}
	cols, args, err := s.assignments(fields)
	if err != nil {
		return "", err
	}

	id := newID()
	now := s.timestamp()

	cols = append([]string{"id", "name"}, cols...)
	cols = append(cols, "created_at", "updated_at")
	args = append([]any{id, name}, args...)
	args = append(args, now, now)

	query := fmt.Sprintf(`INSERT INTO friends (%s) VALUES (%s)`,
		strings.Join(cols, ", "), placeholders(len(cols)))

	err = s.withTx(ctx, "create friend", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(query), args...); err != nil {
			return fmt.Errorf("insert friend: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateFriend applies the allow-listed entries of fields (plus "name") in a
// single statement that also refreshes updated_at. A map with no applicable
// keys is a no-op and never touches the database.
func (s *Store) UpdateFriend(ctx context.Context, id string, fields map[string]any) error {
	cols, args, err := s.assignments(fields)
	if err != nil {
		return err
	}
	if v, ok := fields["name"]; ok {
		name, isString := v.(string)
		if !isString {
			return &ValidationError{Field: "name", Message: "must be a string"}
		}
		if err := s.checkText("name", name); err != nil {
			return err
		}
		cols = append([]string{"name"}, cols...)
		args = append([]any{name}, args...)
	}
	if len(cols) == 0 {
		return nil
	}

	sets := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	query := fmt.Sprintf(`UPDATE friends SET %s WHERE id = ?`, strings.Join(sets, ", "))

	return s.withTx(ctx, "update friend", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.q(query), args...)
		if err != nil {
			return fmt.Errorf("update friend: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update friend: %w", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "friend", ID: id}
		}
		return nil
	})
}

// GetFriend returns a fully decoded friend.
func (s *Store) GetFriend(ctx context.Context, id string) (*models.Friend, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+friendColumns+` FROM friends WHERE id = ?`), id)
	f, err := s.scanFriend(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "friend", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get friend", Err: err}
	}
	return f, nil
}

// ListFriends returns friends newest first. Query matches names by
// case-insensitive substring; hidden friends are skipped unless requested.
func (s *Store) ListFriends(ctx context.Context, filter models.FriendFilter) ([]models.Friend, error) {
	var where []string
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, `LOWER(name) LIKE ? ESCAPE '!'`)
		args = append(args, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if !filter.IncludeHidden {
		where = append(where, `hidden = ?`)
		args = append(args, s.dialect.Bool(false))
	}

	query := `SELECT ` + friendColumns + ` FROM friends`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, &StorageError{Op: "list friends", Err: err}
	}
	defer rows.Close()

	friends := []models.Friend{}
	for rows.Next() {
		f, err := s.scanFriend(rows)
		if err != nil {
			return nil, &StorageError{Op: "list friends", Err: fmt.Errorf("scan friend: %w", err)}
		}
		friends = append(friends, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list friends", Err: err}
	}
	return friends, nil
}

// DeleteFriend removes a friend together with its attributes and notes.
func (s *Store) DeleteFriend(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete friend", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM attributes WHERE friend_id = ?`), id); err != nil {
			return fmt.Errorf("delete attributes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM notes WHERE friend_id = ?`), id); err != nil {
			return fmt.Errorf("delete notes: %w", err)
		}
		result, err := tx.ExecContext(ctx, s.q(`DELETE FROM friends WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete friend: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete friend: %w", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "friend", ID: id}
		}
		return nil
	})
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
