package memory

import (
	"context"
	"fmt"
	"sync"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

func New() *Repo {
	return &Repo{
		byID:    make(map[string]int),
		byLabel: make(map[string]int),
	}
}

// Repo keeps invoices in memory in insertion order. Records handed out are
// copies.
type Repo struct {
	mu       sync.RWMutex
	invoices []inv.Invoice
	byID     map[string]int
	byLabel  map[string]int
}

func (r *Repo) Insert(ctx context.Context, i inv.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[i.ID]; ok {
		return fmt.Errorf("%w: %v", inv.ErrDuplicateID, i.ID)
	}
	if _, ok := r.byLabel[i.Label]; ok {
		return fmt.Errorf("%w: %q", inv.ErrDuplicateLabel, i.Label)
	}

	r.invoices = append(r.invoices, clone(i))
	r.byID[i.ID] = len(r.invoices) - 1
	r.byLabel[i.Label] = len(r.invoices) - 1

	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*inv.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, inv.ErrNotFound
	}

	i := clone(r.invoices[idx])
	return &i, nil
}

func (r *Repo) GetByLabel(ctx context.Context, label string) (*inv.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byLabel[label]
	if !ok {
		return nil, inv.ErrNotFound
	}

	i := clone(r.invoices[idx])
	return &i, nil
}

func (r *Repo) List(ctx context.Context) ([]inv.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoices := make([]inv.Invoice, len(r.invoices))
	for idx, i := range r.invoices {
		invoices[idx] = clone(i)
	}

	return invoices, nil
}

// Update applies fn to a copy of the invoice and stores the copy only if fn
// succeeds.
func (r *Repo) Update(ctx context.Context, id string, fn func(*inv.Invoice) error) (*inv.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil, inv.ErrNotFound
	}

	updated := clone(r.invoices[idx])
	if err := fn(&updated); err != nil {
		return nil, err
	}

	if updated.ID != id || updated.Label != r.invoices[idx].Label {
		return nil, fmt.Errorf("%w: payment hash and label are immutable", inv.ErrInvalidArgument)
	}

	r.invoices[idx] = clone(updated)

	return &updated, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.invoices), nil
}

func clone(i inv.Invoice) inv.Invoice {
	if i.PaidAt != nil {
		paidAt := *i.PaidAt
		i.PaidAt = &paidAt
	}
	return i
}
