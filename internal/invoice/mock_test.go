package invoice

import (
	"context"
	"time"
)

type mockRepo struct {
	InsertErr         error
	InsertCalls       int
	GetInvoice        *Invoice
	GetErr            error
	GetByLabelInvoice *Invoice
	GetByLabelErr     error
	ListInvoices      []Invoice
	ListErr           error
	UpdateErr         error
	CountInt          int
	CountErr          error
}

func (m *mockRepo) Insert(ctx context.Context, inv Invoice) error {
	m.InsertCalls++
	return m.InsertErr
}
func (m *mockRepo) Get(ctx context.Context, id string) (*Invoice, error) {
	return m.GetInvoice, m.GetErr
}
func (m *mockRepo) GetByLabel(ctx context.Context, label string) (*Invoice, error) {
	return m.GetByLabelInvoice, m.GetByLabelErr
}
func (m *mockRepo) List(ctx context.Context) ([]Invoice, error) {
	return m.ListInvoices, m.ListErr
}
func (m *mockRepo) Update(ctx context.Context, id string, fn func(*Invoice) error) (*Invoice, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	inv := *m.GetInvoice
	if err := fn(&inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
func (m *mockRepo) Count(ctx context.Context) (int, error) {
	return m.CountInt, m.CountErr
}

type mockEncoder struct {
	EncodeEncoded *Encoded
	EncodeErr     error
	DecodeDecoded *Decoded
	DecodeErr     error
	NodeIDString  string
}

func (m *mockEncoder) Encode(ctx context.Context, req EncodeRequest) (*Encoded, error) {
	return m.EncodeEncoded, m.EncodeErr
}
func (m *mockEncoder) Decode(ctx context.Context, invoice string) (*Decoded, error) {
	return m.DecodeDecoded, m.DecodeErr
}
func (m *mockEncoder) NodeID() string {
	return m.NodeIDString
}

type mockClock struct {
	NowTime    time.Time
	AdvanceErr error
}

func (m *mockClock) Now() time.Time {
	return m.NowTime
}
func (m *mockClock) Advance(d time.Duration) (time.Time, error) {
	if m.AdvanceErr != nil {
		return time.Time{}, m.AdvanceErr
	}
	m.NowTime = m.NowTime.Add(d)
	return m.NowTime, nil
}
