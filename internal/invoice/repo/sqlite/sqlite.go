package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

const schema = `
CREATE TABLE IF NOT EXISTS invoice (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL UNIQUE,
	encoded TEXT NOT NULL,
	preimage TEXT NOT NULL,
	amount_msat INTEGER NOT NULL,
	description TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	paid BOOLEAN NOT NULL DEFAULT FALSE,
	paid_at INTEGER,
	pay_index INTEGER NOT NULL DEFAULT 0,
	amount_received_msat INTEGER NOT NULL DEFAULT 0
);
`

// New opens a private in-memory SQLite database. Its contents live as long
// as the Repo.
func New() (*Repo, error) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlx.Connect: %w", err)
	}

	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("db.Exec schema: %w", err)
	}

	return &Repo{
		db: db,
	}, nil
}

type Repo struct {
	db *sqlx.DB
}

type row struct {
	Seq                int64         `db:"seq"`
	ID                 string        `db:"id"`
	Label              string        `db:"label"`
	Encoded            string        `db:"encoded"`
	Preimage           string        `db:"preimage"`
	AmountMsat         int64         `db:"amount_msat"`
	Description        string        `db:"description"`
	CreatedAt          int64         `db:"created_at"`
	ExpiresAt          int64         `db:"expires_at"`
	Paid               bool          `db:"paid"`
	PaidAt             sql.NullInt64 `db:"paid_at"`
	PayIndex           int64         `db:"pay_index"`
	AmountReceivedMsat int64         `db:"amount_received_msat"`
}

// Times are stored as unix nanoseconds in UTC.
func toRow(i inv.Invoice) row {
	r := row{
		ID:                 i.ID,
		Label:              i.Label,
		Encoded:            i.Encoded,
		Preimage:           i.Preimage,
		AmountMsat:         i.AmountMsat,
		Description:        i.Description,
		CreatedAt:          i.CreatedAt.UnixNano(),
		ExpiresAt:          i.ExpiresAt.UnixNano(),
		Paid:               i.Paid,
		PayIndex:           int64(i.PayIndex),
		AmountReceivedMsat: i.AmountReceivedMsat,
	}
	if i.PaidAt != nil {
		r.PaidAt = sql.NullInt64{Int64: i.PaidAt.UnixNano(), Valid: true}
	}
	return r
}

func (r row) invoice() inv.Invoice {
	i := inv.Invoice{
		ID:                 r.ID,
		Label:              r.Label,
		Encoded:            r.Encoded,
		Preimage:           r.Preimage,
		AmountMsat:         r.AmountMsat,
		Description:        r.Description,
		CreatedAt:          time.Unix(0, r.CreatedAt).UTC(),
		ExpiresAt:          time.Unix(0, r.ExpiresAt).UTC(),
		Paid:               r.Paid,
		PayIndex:           uint64(r.PayIndex),
		AmountReceivedMsat: r.AmountReceivedMsat,
	}
	if r.PaidAt.Valid {
		paidAt := time.Unix(0, r.PaidAt.Int64).UTC()
		i.PaidAt = &paidAt
	}
	return i
}

func (r *Repo) Insert(ctx context.Context, i inv.Invoice) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db.Begin: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM invoice WHERE id=?", i.ID); err != nil {
		return fmt.Errorf("tx.Get id: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %v", inv.ErrDuplicateID, i.ID)
	}

	if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM invoice WHERE label=?", i.Label); err != nil {
		return fmt.Errorf("tx.Get label: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %q", inv.ErrDuplicateLabel, i.Label)
	}

	_, err = tx.NamedExecContext(ctx, `INSERT INTO invoice (id, label, encoded, preimage, amount_msat, description, created_at, expires_at, paid, paid_at, pay_index, amount_received_msat)
VALUES (:id, :label, :encoded, :preimage, :amount_msat, :description, :created_at, :expires_at, :paid, :paid_at, :pay_index, :amount_received_msat)`, toRow(i))
	if err != nil {
		return fmt.Errorf("tx.Exec insert: %w", err)
	}

	return tx.Commit()
}

func (r *Repo) Get(ctx context.Context, id string) (*inv.Invoice, error) {
	return r.getBy(ctx, r.db, "id", id)
}

func (r *Repo) GetByLabel(ctx context.Context, label string) (*inv.Invoice, error) {
	return r.getBy(ctx, r.db, "label", label)
}

func (r *Repo) getBy(ctx context.Context, q sqlx.QueryerContext, column, value string) (*inv.Invoice, error) {
	var rw row
	if err := sqlx.GetContext(ctx, q, &rw, "SELECT * FROM invoice WHERE "+column+"=?", value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inv.ErrNotFound
		}
		return nil, fmt.Errorf("db.Get invoice: %w", err)
	}

	i := rw.invoice()
	return &i, nil
}

func (r *Repo) List(ctx context.Context) ([]inv.Invoice, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM invoice ORDER BY seq"); err != nil {
		return nil, fmt.Errorf("db.Select invoices: %w", err)
	}

	invoices := make([]inv.Invoice, 0, len(rows))
	for _, rw := range rows {
		invoices = append(invoices, rw.invoice())
	}

	return invoices, nil
}

// Update applies fn inside a transaction and writes the result only if fn
// succeeds.
func (r *Repo) Update(ctx context.Context, id string, fn func(*inv.Invoice) error) (*inv.Invoice, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db.Begin: %w", err)
	}
	defer tx.Rollback()

	current, err := r.getBy(ctx, tx, "id", id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if err := fn(&updated); err != nil {
		return nil, err
	}

	if updated.ID != current.ID || updated.Label != current.Label {
		return nil, fmt.Errorf("%w: payment hash and label are immutable", inv.ErrInvalidArgument)
	}

	_, err = tx.NamedExecContext(ctx, `UPDATE invoice SET encoded=:encoded, preimage=:preimage, amount_msat=:amount_msat, description=:description,
created_at=:created_at, expires_at=:expires_at, paid=:paid, paid_at=:paid_at, pay_index=:pay_index, amount_received_msat=:amount_received_msat
WHERE id=:id`, toRow(updated))
	if err != nil {
		return nil, fmt.Errorf("tx.Exec update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return &updated, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM invoice"); err != nil {
		return 0, fmt.Errorf("db.Get count: %w", err)
	}
	return n, nil
}

func (r *Repo) Close() error {
	return r.db.Close()
}
