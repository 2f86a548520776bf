package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kathyli05/kathboard/internal/models"
)

const noteColumns = `id, friend_id, content, category, tags, created_at, updated_at`

// CreateNote attaches a note to a friend and returns its id.
func (s *Store) CreateNote(ctx context.Context, friendID string, in models.NoteInput) (string, error) {
	if err := s.checkStruct(in); err != nil {
		return "", err
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return "", err
	}

	id := newID()
	now := s.timestamp()
	err = s.withTx(ctx, "create note", func(tx *sql.Tx) error {
		if err := s.friendExists(ctx, tx, friendID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			id, friendID, in.Content, in.Category, tags, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListNotes returns a friend's notes newest first.
func (s *Store) ListNotes(ctx context.Context, friendID string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+noteColumns+` FROM notes WHERE friend_id = ? ORDER BY created_at DESC, id DESC`),
		friendID,
	)
	if err != nil {
		return nil, &StorageError{Op: "list notes", Err: err}
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n, err := s.scanNote(rows)
		if err != nil {
			return nil, &StorageError{Op: "list notes", Err: fmt.Errorf("scan note: %w", err)}
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list notes", Err: err}
	}
	return notes, nil
}

// GetNote returns a single decoded note.
func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+noteColumns+` FROM notes WHERE id = ?`), id)
	n, err := s.scanNote(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "note", ID: id}
	}
	if err != nil {
		return nil, &StorageError{Op: "get note", Err: err}
	}
	return n, nil
}

// UpdateNote replaces the fields present in u. An empty update is a no-op.
func (s *Store) UpdateNote(ctx context.Context, id string, u models.NoteUpdate) error {
	if u.Empty() {
		return nil
	}

	var sets []string
	var args []any
	if u.Content != nil {
		if err := s.checkText("content", *u.Content); err != nil {
			return err
		}
		sets = append(sets, "content = ?")
		args = append(args, *u.Content)
	}
	if u.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *u.Category)
	}
	if u.Tags != nil {
		tags, err := encodeTags(*u.Tags)
		if err != nil {
			return err
		}
		if tags == nil {
			tags = "[]"
		}
		sets = append(sets, "tags = ?")
		args = append(args, tags)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id)

	query := `UPDATE notes SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	return s.withTx(ctx, "update note", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.q(query), args...)
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		if n == 0 {
			return &NotFoundError{Entity: "note", ID: id}
		}
		return nil
	})
}

// DeleteNote removes a note. Deleting a missing note is not an error.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.withTx(ctx, "delete note", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM notes WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	})
}

func (s *Store) scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	var tags *string
	if err := row.Scan(&n.ID, &n.FriendID, &n.Content, &n.Category, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Tags = models.DecodeTags(tags)
	if tags != nil && *tags != "" {
		if _, err := models.DecodeComposite[[]string](*tags); err != nil {
			s.logLenient("notes", n.ID, "tags")
		}
	}
	return &n, nil
}

// encodeTags returns nil for a nil list so the column stays NULL.
func encodeTags(tags []string) (any, error) {
	if tags == nil {
		return nil, nil
	}
	text, err := models.EncodeComposite(tags)
	if err != nil {
		return nil, &ValidationError{Field: "tags", Message: err.Error()}
	}
	return text, nil
}
