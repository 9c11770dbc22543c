package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/notes-service/internal/model"
)

const noteColumns = "id, owner_id, text, created_at, updated_at"

// NoteRepo is the MySQL-backed NoteStore.  Every statement carries the
// owner in its WHERE clause; there is no unscoped accessor.
type NoteRepo struct{ DB *sql.DB }

func NewNoteRepo(db *sql.DB) *NoteRepo { return &NoteRepo{DB: db} }

// ListByOwner returns the owner's notes, newest first.
func (r *NoteRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Note, error) {
	const op = "repository.NoteRepo.ListByOwner"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+noteColumns+" FROM notes WHERE owner_id = ? ORDER BY created_at DESC, id DESC",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Text, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return notes, nil
}

// Create inserts a note for ownerID and returns it with its generated id
// and timestamps.
func (r *NoteRepo) Create(ctx context.Context, ownerID, text string) (model.Note, error) {
	const op = "repository.NoteRepo.Create"
	now := timestamp()
	n := model.Note{ID: uuid.NewString(), OwnerID: ownerID, Text: text, CreatedAt: now, UpdatedAt: now}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notes (id, owner_id, text, created_at, updated_at) VALUES (?,?,?,?,?)",
		n.ID, n.OwnerID, n.Text, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return model.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// UpdateByIDAndOwner changes the text of a note the owner holds and reads
// the row back inside the same transaction.  The connection is opened with
// clientFoundRows, so a matched row always counts as affected.
func (r *NoteRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID, text string) (model.Note, error) {
	const op = "repository.NoteRepo.UpdateByIDAndOwner"
	var n model.Note
	err := withTx(ctx, r.DB, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE notes SET text = ?, updated_at = ? WHERE id = ? AND owner_id = ?",
			text, timestamp(), id, ownerID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNoteNotFound
		}
		return tx.QueryRowContext(ctx,
			"SELECT "+noteColumns+" FROM notes WHERE id = ? AND owner_id = ?",
			id, ownerID).Scan(&n.ID, &n.OwnerID, &n.Text, &n.CreatedAt, &n.UpdatedAt)
	})
	if errors.Is(err, ErrNoteNotFound) || errors.Is(err, sql.ErrNoRows) {
		return model.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return model.Note{}, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// DeleteByIDAndOwner removes the owner's note if it exists.
func (r *NoteRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	const op = "repository.NoteRepo.DeleteByIDAndOwner"
	res, err := r.DB.ExecContext(ctx, "DELETE FROM notes WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return affected > 0, nil
}
