package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/locky/internal/errors"
	"github.com/hpungsan/locky/internal/record"
)

// Each exported query runs in its own short transaction so nothing is held
// open across an interactive prompt or an external describe call.

// Upsert records that filename was (re-)added with the given size.
// Inserts a new record, or refreshes added_at and size_bytes of an existing
// one. The existing description (including NULL) is left untouched.
func Upsert(ctx context.Context, db *sql.DB, filename string, sizeBytes int64) error {
	if err := record.ValidateFilename(filename); err != nil {
		return err
	}
	if sizeBytes < 0 {
		return errors.NewInvalidRequest("size_bytes must be non-negative")
	}

	now := time.Now().Unix()
	return withTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO files (filename, added_at, size_bytes, description)
			VALUES (?, ?, ?, NULL)
			ON CONFLICT(filename) DO UPDATE SET
			  added_at = excluded.added_at,
			  size_bytes = excluded.size_bytes
		`, filename, now, sizeBytes)
		if err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
}

// SetDescription stores description for filename. A missing record is
// created with size 0, pending a later Upsert. An existing record keeps its
// size; only description and added_at change.
func SetDescription(ctx context.Context, db *sql.DB, filename, description string) error {
	if err := record.ValidateFilename(filename); err != nil {
		return err
	}

	now := time.Now().Unix()
	return withTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO files (filename, added_at, size_bytes, description)
			VALUES (?, ?, 0, ?)
			ON CONFLICT(filename) DO UPDATE SET
			  description = excluded.description,
			  added_at = excluded.added_at
		`, filename, now, description)
		if err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
}

// GetDescription returns the stored description, or nil when there is no
// record or no description.
func GetDescription(ctx context.Context, db *sql.DB, filename string) (*string, error) {
	var desc sql.NullString
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT description FROM files WHERE filename = ?`, filename,
		).Scan(&desc)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromNullString(desc), nil
}

// GetRecord retrieves the full record for filename.
// Returns NOT_FOUND when there is none.
func GetRecord(ctx context.Context, db *sql.DB, filename string) (*record.FileRecord, error) {
	var r *record.FileRecord
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT filename, added_at, size_bytes, description
			FROM files
			WHERE filename = ?
		`, filename)

		var err error
		r, err = scanRecord(row)
		if err == sql.ErrNoRows {
			return errors.NewNotFound(filename)
		}
		if err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the record for filename. Missing records are not an error.
func Delete(ctx context.Context, db *sql.DB, filename string) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE filename = ?`, filename); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
}

// ListFiles returns every known filename in lexicographic order.
func ListFiles(ctx context.Context, db *sql.DB) ([]string, error) {
	names := make([]string, 0)
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT filename FROM files ORDER BY filename`)
		if err != nil {
			return errors.NewInternal(err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return errors.NewInternal(err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// ListRecords returns every record ordered by filename.
func ListRecords(ctx context.Context, db *sql.DB) ([]record.FileRecord, error) {
	records := make([]record.FileRecord, 0)
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT filename, added_at, size_bytes, description
			FROM files
			ORDER BY filename
		`)
		if err != nil {
			return errors.NewInternal(err)
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return errors.NewInternal(err)
			}
			records = append(records, *r)
		}
		if err := rows.Err(); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelled("metadata transaction")
		}
		return errors.NewInternal(err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a FileRecord.
func scanRecord(row rowScanner) (*record.FileRecord, error) {
	var (
		r    record.FileRecord
		desc sql.NullString
	)

	if err := row.Scan(&r.Filename, &r.AddedAt, &r.SizeBytes, &desc); err != nil {
		return nil, err
	}
	r.Description = fromNullString(desc)

	return &r, nil
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
