package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemstr/lnmock/internal/clock"
	inv "github.com/stemstr/lnmock/internal/invoice"
	"github.com/stemstr/lnmock/internal/invoice/encoder/mock"
	"github.com/stemstr/lnmock/internal/invoice/repo/memory"
	"github.com/stemstr/lnmock/internal/invoice/repo/sqlite"
)

func newManager(t *testing.T) (*inv.Manager, *memory.Repo) {
	t.Helper()

	repo := memory.New()
	m, err := inv.New(inv.Config{}, repo, mock.New(), clock.New(clock.DefaultEpoch))
	require.NoError(t, err)

	return m, repo
}

func count(t *testing.T, repo *memory.Repo) int {
	t.Helper()

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestExpiresAfterAdvance(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	created, err := m.Create(ctx, inv.CreateRequest{
		AmountMsat:  1000,
		Description: "test",
		Expiry:      3600 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, clock.DefaultEpoch.Add(time.Hour), created.ExpiresAt)

	_, err = m.AdvanceTime(ctx, 3599*time.Second)
	require.NoError(t, err)

	entry, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.StatusUnpaid, entry.Status)

	_, err = m.AdvanceTime(ctx, 2*time.Second)
	require.NoError(t, err)

	entry, err = m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.StatusExpired, entry.Status)

	// the stored record itself never changes on expiry
	assert.Equal(t, created.ExpiresAt, entry.ExpiresAt)
	assert.False(t, entry.Paid)
}

func TestPayExpired(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	created, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Description: "x", Expiry: time.Minute})
	require.NoError(t, err)

	_, err = m.AdvanceTime(ctx, 2*time.Minute)
	require.NoError(t, err)

	entry, err := m.MarkPaid(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.StatusPaid, entry.Status)

	entries, err := m.List(ctx, inv.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inv.StatusPaid, entries[0].Status)
}

func TestMarkPaidUnknown(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t)

	_, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1})
	require.NoError(t, err)

	_, err = m.MarkPaid(ctx, "does-not-exist")
	assert.ErrorIs(t, err, inv.ErrNotFound)
	assert.Equal(t, 1, count(t, repo))
}

func TestCreateNegativeAmount(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t)

	_, err := m.Create(ctx, inv.CreateRequest{AmountMsat: -5, Description: "x", Expiry: time.Minute})
	assert.ErrorIs(t, err, inv.ErrInvalidArgument)
	assert.Equal(t, 0, count(t, repo))
}

func TestMarkPaidTwice(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	created, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "once"})
	require.NoError(t, err)

	first, err := m.MarkPaid(ctx, "once")
	require.NoError(t, err)

	_, err = m.AdvanceTime(ctx, time.Second)
	require.NoError(t, err)

	_, err = m.MarkPaid(ctx, created.ID)
	assert.ErrorIs(t, err, inv.ErrAlreadyPaid)

	entry, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.PaidAt, *entry.PaidAt)
	assert.Equal(t, first.PayIndex, entry.PayIndex)
}

func TestPayIndexOrder(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1})
	require.NoError(t, err)
	b, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 2})
	require.NoError(t, err)

	paidB, err := m.MarkPaid(ctx, b.ID)
	require.NoError(t, err)
	paidA, err := m.MarkPaid(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), paidB.PayIndex)
	assert.Equal(t, uint64(2), paidA.PayIndex)
	assert.Equal(t, int64(1), paidA.AmountReceivedMsat)
}

func TestUniqueIDs(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		created, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1000, Description: "same"})
		require.NoError(t, err)
		assert.False(t, seen[created.ID], created.ID)
		seen[created.ID] = true
	}

	assert.Equal(t, 50, count(t, repo))
}

func TestDuplicateLabel(t *testing.T) {
	ctx := context.Background()
	m, repo := newManager(t)

	_, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "order-1"})
	require.NoError(t, err)

	_, err = m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "order-1"})
	assert.ErrorIs(t, err, inv.ErrDuplicateLabel)
	assert.Equal(t, 1, count(t, repo))
}

func TestListIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	for _, expiry := range []time.Duration{time.Minute, time.Hour} {
		_, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Expiry: expiry})
		require.NoError(t, err)
	}

	_, err := m.AdvanceTime(ctx, 2*time.Minute)
	require.NoError(t, err)

	first, err := m.List(ctx, inv.Filter{})
	require.NoError(t, err)
	second, err := m.List(ctx, inv.Filter{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, inv.StatusExpired, first[0].Status)
	assert.Equal(t, inv.StatusUnpaid, first[1].Status)
}

func TestListFilter(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "a", Expiry: time.Minute})
	require.NoError(t, err)
	_, err = m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "b"})
	require.NoError(t, err)
	c, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "c"})
	require.NoError(t, err)

	_, err = m.MarkPaid(ctx, c.ID)
	require.NoError(t, err)
	_, err = m.AdvanceTime(ctx, time.Minute)
	require.NoError(t, err)

	var tests = []struct {
		name   string
		filter inv.Filter
		labels []string
	}{
		{name: "all", filter: inv.Filter{}, labels: []string{"a", "b", "c"}},
		{name: "expired", filter: inv.Filter{Status: inv.StatusExpired}, labels: []string{"a"}},
		{name: "unpaid", filter: inv.Filter{Status: inv.StatusUnpaid}, labels: []string{"b"}},
		{name: "paid", filter: inv.Filter{Status: inv.StatusPaid}, labels: []string{"c"}},
		{name: "by label", filter: inv.Filter{Ref: "b"}, labels: []string{"b"}},
		{name: "by hash", filter: inv.Filter{Ref: a.ID}, labels: []string{"a"}},
		{name: "no match", filter: inv.Filter{Ref: "zzz"}, labels: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := m.List(ctx, tt.filter)
			require.NoError(t, err)

			labels := make([]string, 0, len(entries))
			for _, e := range entries {
				labels = append(labels, e.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestRefPrefersHash(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	a, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "a"})
	require.NoError(t, err)
	b, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 2, Label: a.ID})
	require.NoError(t, err)

	entries, err := m.List(ctx, inv.Filter{Ref: a.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, a.ID, entries[0].ID)

	got, err := m.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	paid, err := m.MarkPaid(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, paid.ID)

	entries, err = m.List(ctx, inv.Filter{Ref: b.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inv.StatusUnpaid, entries[0].Status)
}

func TestAdvanceWholeSeconds(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	start := m.Now()

	_, err := m.AdvanceTime(ctx, 500*time.Millisecond)
	assert.ErrorIs(t, err, inv.ErrInvalidArgument)
	assert.Equal(t, start, m.Now())

	created, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1000, Label: "a", Expiry: time.Minute})
	require.NoError(t, err)

	now, err := m.AdvanceTime(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, created.ExpiresAt.Unix(), now.Unix())

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, inv.StatusExpired, got.Status)
}

func TestCreateThenDecode(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	created, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 2000, Description: "decode me"})
	require.NoError(t, err)

	decoded, err := m.Decode(ctx, created.Encoded)
	require.NoError(t, err)
	assert.Equal(t, created.ID, decoded.PaymentHash)
	require.NotNil(t, decoded.AmountMsat)
	assert.Equal(t, int64(2000), *decoded.AmountMsat)
	assert.Equal(t, inv.DefaultExpiry, decoded.Expiry)
	assert.Equal(t, m.NodeID(), decoded.Payee)
}

func TestLifecycleStores(t *testing.T) {
	db, err := sqlite.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stores := map[string]inv.Repo{
		"memory": memory.New(),
		"sqlite": db,
	}

	for name, repo := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			m, err := inv.New(inv.Config{}, repo, mock.New(), clock.New(clock.DefaultEpoch))
			require.NoError(t, err)

			a, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1000, Label: "a", Expiry: time.Hour})
			require.NoError(t, err)
			b, err := m.Create(ctx, inv.CreateRequest{AmountMsat: 1, Label: "b", Expiry: time.Minute})
			require.NoError(t, err)

			_, err = m.AdvanceTime(ctx, 3599*time.Second)
			require.NoError(t, err)

			entry, err := m.Get(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, inv.StatusUnpaid, entry.Status)
			assert.Equal(t, *a, entry.Invoice)

			paid, err := m.MarkPaid(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, inv.StatusPaid, paid.Status)

			_, err = m.AdvanceTime(ctx, 2*time.Second)
			require.NoError(t, err)

			entries, err := m.List(ctx, inv.Filter{})
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, inv.StatusExpired, entries[0].Status)
			assert.Equal(t, inv.StatusPaid, entries[1].Status)

			_, err = m.MarkPaid(ctx, "unknown")
			assert.ErrorIs(t, err, inv.ErrNotFound)

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}
