package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
)

// DefaultExpiry matches the BOLT11 expiry assumed when none is encoded.
const DefaultExpiry = time.Hour

type Config struct {
	DefaultExpiry time.Duration
	Logger        Logger
}

func New(cfg Config, repo Repo, enc Encoder, clk Clock) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("must provide repo")
	}
	if enc == nil {
		return nil, fmt.Errorf("must provide encoder")
	}
	if clk == nil {
		return nil, fmt.Errorf("must provide clock")
	}
	if cfg.DefaultExpiry < 0 {
		return nil, fmt.Errorf("%w: default expiry %v", ErrInvalidArgument, cfg.DefaultExpiry)
	}

	m := &Manager{
		repo:          repo,
		enc:           enc,
		clk:           clk,
		defaultExpiry: cfg.DefaultExpiry,
	}

	if m.defaultExpiry == 0 {
		m.defaultExpiry = DefaultExpiry
	}

	if cfg.Logger != nil {
		m.log = cfg.Logger
	} else {
		m.log = noopLogger{}
	}

	return m, nil
}

// Manager runs the invoice lifecycle. Every method is a single atomic state
// transition.
type Manager struct {
	mu            sync.Mutex
	repo          Repo
	enc           Encoder
	clk           Clock
	defaultExpiry time.Duration
	payIndex      uint64
	log           Logger
}

type CreateRequest struct {
	AmountMsat  int64
	Description string

	// Expiry falls back to the manager default when zero.
	Expiry time.Duration

	// Label defaults to a random UUID.
	Label string

	// Preimage is an optional hex encoded 32 byte preimage.
	Preimage string
}

type Filter struct {
	Status Status

	// Ref matches a payment hash or a label.
	Ref string
}

func (m *Manager) Create(ctx context.Context, req CreateRequest) (*Invoice, error) {
	if req.AmountMsat < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative, got %d", ErrInvalidArgument, req.AmountMsat)
	}

	expiry := req.Expiry
	switch {
	case expiry < 0:
		return nil, fmt.Errorf("%w: expiry must not be negative, got %v", ErrInvalidArgument, expiry)
	case expiry == 0:
		expiry = m.defaultExpiry
	case expiry%time.Second != 0:
		return nil, fmt.Errorf("%w: expiry must be whole seconds, got %v", ErrInvalidArgument, expiry)
	}

	var preimage *lntypes.Preimage
	if req.Preimage != "" {
		p, err := lntypes.MakePreimageFromStr(req.Preimage)
		if err != nil {
			return nil, fmt.Errorf("%w: preimage: %v", ErrInvalidArgument, err)
		}
		preimage = &p
	}

	label := req.Label
	if label == "" {
		label = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.repo.GetByLabel(ctx, label)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, label)
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("repo.GetByLabel: %w", err)
	}

	now := m.clk.Now()

	encoded, err := m.enc.Encode(ctx, EncodeRequest{
		AmountMsat:  req.AmountMsat,
		Description: req.Description,
		Expiry:      expiry,
		Timestamp:   now,
		Preimage:    preimage,
	})
	if err != nil {
		if !errors.Is(err, ErrEncoding) {
			err = fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return nil, fmt.Errorf("encoder.Encode: %w", err)
	}

	inv := Invoice{
		ID:          encoded.PaymentHash.String(),
		Label:       label,
		Encoded:     encoded.Invoice,
		Preimage:    encoded.Preimage.String(),
		AmountMsat:  req.AmountMsat,
		Description: req.Description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(expiry),
	}

	if err := m.repo.Insert(ctx, inv); err != nil {
		return nil, fmt.Errorf("repo.Insert: %w", err)
	}

	m.log.Infof("Created invoice %v (label %v) for %d msat, expires at %v", inv.ID, inv.Label, inv.AmountMsat, inv.ExpiresAt.Unix())

	return &inv, nil
}

// List returns invoices in issuance order with their status computed from a
// single reading of the clock.
func (m *Manager) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Status != "" {
		if _, err := ParseStatus(string(f.Status)); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var invoices []Invoice
	if f.Ref != "" {
		// Same resolution as MarkPaid, so a label that collides with another
		// invoice's payment hash never selects a different record.
		inv, err := m.lookup(ctx, f.Ref)
		switch {
		case err == nil:
			invoices = []Invoice{*inv}
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	} else {
		all, err := m.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("repo.List: %w", err)
		}
		invoices = all
	}

	now := m.clk.Now()
	entries := make([]Entry, 0, len(invoices))
	for _, inv := range invoices {
		status := inv.StatusAt(now)
		if f.Status != "" && status != f.Status {
			continue
		}

		entries = append(entries, Entry{Invoice: inv, Status: status})
	}

	return entries, nil
}

func (m *Manager) Get(ctx context.Context, ref string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, err := m.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	return &Entry{Invoice: *inv, Status: inv.StatusAt(m.clk.Now())}, nil
}

// MarkPaid settles an invoice. Expired invoices can still be paid, the same
// way a node accepts a payment that was in flight when the invoice expired.
func (m *Manager) MarkPaid(ctx context.Context, ref string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inv, err := m.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := m.clk.Now()
	payIndex := m.payIndex + 1

	updated, err := m.repo.Update(ctx, inv.ID, func(i *Invoice) error {
		if i.Paid {
			return fmt.Errorf("%w: %v", ErrAlreadyPaid, i.Label)
		}

		paidAt := now
		i.Paid = true
		i.PaidAt = &paidAt
		i.PayIndex = payIndex
		i.AmountReceivedMsat = i.AmountMsat

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repo.Update: %w", err)
	}

	m.payIndex = payIndex

	if inv.StatusAt(now) == StatusExpired {
		m.log.Warnf("Marked expired invoice %v as paid", updated.ID)
	} else {
		m.log.Infof("Marked invoice %v as paid (pay index %d)", updated.ID, updated.PayIndex)
	}

	return &Entry{Invoice: *updated, Status: updated.StatusAt(now)}, nil
}

// AdvanceTime moves virtual time forward. Stored invoices are untouched,
// only their derived status changes.
func (m *Manager) AdvanceTime(ctx context.Context, d time.Duration) (time.Time, error) {
	switch {
	case d < 0:
		return time.Time{}, fmt.Errorf("%w: duration must not be negative, got %v", ErrInvalidArgument, d)
	case d%time.Second != 0:
		// Every reported timestamp has second resolution.
		return time.Time{}, fmt.Errorf("%w: duration must be whole seconds, got %v", ErrInvalidArgument, d)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now, err := m.clk.Advance(d)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock.Advance: %w", err)
	}

	m.log.Debugf("Advanced clock by %v to %v", d, now.Unix())

	return now, nil
}

// Count reports how many invoices have been issued.
func (m *Manager) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.Count: %w", err)
	}

	return n, nil
}

func (m *Manager) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.clk.Now()
}

func (m *Manager) Decode(ctx context.Context, encoded string) (*Decoded, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty invoice", ErrInvalidArgument)
	}

	decoded, err := m.enc.Decode(ctx, encoded)
	if err != nil {
		if !errors.Is(err, ErrEncoding) {
			err = fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		return nil, fmt.Errorf("encoder.Decode: %w", err)
	}

	return decoded, nil
}

func (m *Manager) NodeID() string {
	return m.enc.NodeID()
}

// lookup resolves a payment hash first, then a label.
func (m *Manager) lookup(ctx context.Context, ref string) (*Invoice, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty invoice reference", ErrInvalidArgument)
	}

	inv, err := m.repo.Get(ctx, ref)
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("repo.Get: %w", err)
	}

	inv, err = m.repo.GetByLabel(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("repo.GetByLabel: %w", err)
	}

	return inv, nil
}
