package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/fee-web/internal/api"
	"github.com/ziadkadry99/fee-web/internal/db"
)

// Record is a file the CLI has already uploaded.
type Record struct {
	Path       string
	Checksum   string
	DocumentID api.ID
	Title      string
	Analyzed   bool
	UploadedAt time.Time
}

// Ledger remembers uploads in the uploads table so that unchanged files
// are not sent twice.
type Ledger struct {
	db *db.DB
}

// NewLedger creates a ledger over database.
func NewLedger(database *db.DB) *Ledger {
	return &Ledger{db: database}
}

// Lookup returns the record for a file with the given path and checksum.
func (l *Ledger) Lookup(ctx context.Context, path, checksum string) (*Record, bool, error) {
	var r Record
	var docID string
	err := l.db.QueryRowContext(ctx,
		`SELECT path, checksum, document_id, title, analyzed, uploaded_at
		 FROM uploads WHERE path = ? AND checksum = ?`, path, checksum,
	).Scan(&r.Path, &r.Checksum, &docID, &r.Title, &r.Analyzed, &r.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up upload %s: %w", path, err)
	}
	r.DocumentID = api.ID(docID)
	return &r, true, nil
}

// Put inserts or replaces r.
func (l *Ledger) Put(ctx context.Context, r Record) error {
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO uploads (path, checksum, document_id, title, analyzed, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path, checksum) DO UPDATE SET
		   document_id = excluded.document_id,
		   title = excluded.title,
		   analyzed = excluded.analyzed,
		   uploaded_at = excluded.uploaded_at`,
		r.Path, r.Checksum, r.DocumentID.String(), r.Title, r.Analyzed, r.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("recording upload %s: %w", r.Path, err)
	}
	return nil
}

// MarkAnalyzed flags every record of documentID as analyzed.
func (l *Ledger) MarkAnalyzed(ctx context.Context, documentID api.ID) error {
	if _, err := l.db.ExecContext(ctx,
		`UPDATE uploads SET analyzed = 1 WHERE document_id = ?`, documentID.String(),
	); err != nil {
		return fmt.Errorf("marking document %s analyzed: %w", documentID, err)
	}
	return nil
}

// List returns all records, newest first.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, checksum, document_id, title, analyzed, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC, path`)
	if err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var docID string
		if err := rows.Scan(&r.Path, &r.Checksum, &docID, &r.Title, &r.Analyzed, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("scanning upload: %w", err)
		}
		r.DocumentID = api.ID(docID)
		out = append(out, r)
	}
	return out, rows.Err()
}
