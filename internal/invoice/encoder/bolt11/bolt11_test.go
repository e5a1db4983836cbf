package bolt11

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "defaults", cfg: Config{}},
		{name: "mainnet", cfg: Config{Network: "mainnet"}},
		{name: "unknown network", cfg: Config{Network: "litecoin"}, wantErr: true},
		{name: "bad hex key", cfg: Config{NodeKey: "zz"}, wantErr: true},
		{name: "short key", cfg: Config{NodeKey: "00ff"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, c.NodeID(), 66)
		})
	}
}

func TestEncodePrefix(t *testing.T) {
	tests := []struct {
		network string
		prefix  string
	}{
		{"mainnet", "lnbc"},
		{"testnet", "lntb"},
		{"regtest", "lnbcrt"},
		{"simnet", "lnsb"},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			c, err := New(Config{Network: tt.network})
			require.NoError(t, err)

			encoded, err := c.Encode(context.Background(), inv.EncodeRequest{
				AmountMsat: 1000,
				Expiry:     time.Hour,
				Timestamp:  time.Unix(1577836800, 0),
			})
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(encoded.Invoice, tt.prefix), encoded.Invoice)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	preimage, err := lntypes.MakePreimageFromStr(strings.Repeat("ab", 32))
	require.NoError(t, err)

	ts := time.Unix(1577836800, 0)
	encoded, err := c.Encode(context.Background(), inv.EncodeRequest{
		AmountMsat:  250000,
		Description: "coffee",
		Expiry:      10 * time.Minute,
		Timestamp:   ts,
		Preimage:    &preimage,
	})
	require.NoError(t, err)
	assert.Equal(t, preimage, encoded.Preimage)
	assert.Equal(t, preimage.Hash(), encoded.PaymentHash)

	decoded, err := c.Decode(context.Background(), encoded.Invoice)
	require.NoError(t, err)
	assert.Equal(t, "regtest", decoded.Network)
	assert.Equal(t, encoded.PaymentHash.String(), decoded.PaymentHash)
	require.NotNil(t, decoded.AmountMsat)
	assert.Equal(t, int64(250000), *decoded.AmountMsat)
	assert.Equal(t, "coffee", decoded.Description)
	assert.Equal(t, 10*time.Minute, decoded.Expiry)
	assert.Equal(t, ts.Unix(), decoded.Timestamp.Unix())
	assert.Equal(t, c.NodeID(), decoded.Payee)
}

func TestEncodeRandomPreimage(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	req := inv.EncodeRequest{Expiry: time.Hour, Timestamp: time.Unix(1577836800, 0)}

	a, err := c.Encode(context.Background(), req)
	require.NoError(t, err)
	b, err := c.Encode(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, a.PaymentHash, b.PaymentHash)
	assert.Equal(t, a.Preimage.Hash(), a.PaymentHash)
}

func TestEncodeAmountless(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	encoded, err := c.Encode(context.Background(), inv.EncodeRequest{
		Expiry:    time.Hour,
		Timestamp: time.Unix(1577836800, 0),
	})
	require.NoError(t, err)

	decoded, err := c.Decode(context.Background(), encoded.Invoice)
	require.NoError(t, err)
	assert.Nil(t, decoded.AmountMsat)
}

func TestEncodeNegativeAmount(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	_, err = c.Encode(context.Background(), inv.EncodeRequest{AmountMsat: -1, Expiry: time.Hour})
	assert.ErrorIs(t, err, inv.ErrEncoding)
}

func TestDecodeInvalid(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	_, err = c.Decode(context.Background(), "lnbcrt1notaninvoice")
	assert.ErrorIs(t, err, inv.ErrEncoding)
}

func TestDecodeWrongNetwork(t *testing.T) {
	mainnet, err := New(Config{Network: "mainnet"})
	require.NoError(t, err)
	regtest, err := New(Config{Network: "regtest"})
	require.NoError(t, err)

	encoded, err := mainnet.Encode(context.Background(), inv.EncodeRequest{
		AmountMsat: 1000,
		Expiry:     time.Hour,
		Timestamp:  time.Unix(1577836800, 0),
	})
	require.NoError(t, err)

	_, err = regtest.Decode(context.Background(), encoded.Invoice)
	assert.ErrorIs(t, err, inv.ErrEncoding)
}
