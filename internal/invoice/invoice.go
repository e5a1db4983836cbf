package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

func ParseStatus(s string) (Status, error) {
	switch status := Status(s); status {
	case StatusUnpaid, StatusPaid, StatusExpired:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, s)
	}
}

// Invoice is a request for payment. Only Paid, PaidAt, PayIndex and
// AmountReceivedMsat change after creation.
type Invoice struct {
	ID                 string
	Label              string
	Encoded            string
	Preimage           string
	AmountMsat         int64
	Description        string
	CreatedAt          time.Time
	ExpiresAt          time.Time
	Paid               bool
	PaidAt             *time.Time
	PayIndex           uint64
	AmountReceivedMsat int64
}

// StatusAt derives the status of the invoice at the given virtual time.
func (i Invoice) StatusAt(now time.Time) Status {
	if i.Paid {
		return StatusPaid
	}

	if !now.Before(i.ExpiresAt) {
		return StatusExpired
	}

	return StatusUnpaid
}

// Entry is an invoice together with its status at the time it was read.
type Entry struct {
	Invoice
	Status Status
}

type EncodeRequest struct {
	AmountMsat  int64
	Description string
	Expiry      time.Duration
	Timestamp   time.Time

	// Preimage is generated by the encoder when nil.
	Preimage *lntypes.Preimage
}

type Encoded struct {
	Invoice     string
	PaymentHash lntypes.Hash
	Preimage    lntypes.Preimage
}

type Decoded struct {
	Network            string
	PaymentHash        string
	AmountMsat         *int64
	Description        string
	Timestamp          time.Time
	Expiry             time.Duration
	Payee              string
	MinFinalCLTVExpiry uint64
}

// Encoder turns invoice fields into a transmissible payment request.
// Failures wrap ErrEncoding.
type Encoder interface {
	Encode(ctx context.Context, req EncodeRequest) (*Encoded, error)
	Decode(ctx context.Context, invoice string) (*Decoded, error)
	NodeID() string
}

// Repo stores invoices in issuance order.
type Repo interface {
	Insert(ctx context.Context, inv Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByLabel(ctx context.Context, label string) (*Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	Update(ctx context.Context, id string, fn func(*Invoice) error) (*Invoice, error)
	Count(ctx context.Context) (int, error)
}

type Clock interface {
	Now() time.Time
	Advance(d time.Duration) (time.Time, error)
}
