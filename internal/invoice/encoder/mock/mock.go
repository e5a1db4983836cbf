package mock

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

// NodeID is the fixed payee reported by the mock encoder.
const NodeID = "020000000000000000000000000000000000000000000000000000000000000001"

func New() *Client {
	return &Client{
		issued: make(map[string]inv.Decoded),
	}
}

// Client produces deterministic fake invoices. Generated preimages are
// derived from a counter, so hashes are stable across runs.
type Client struct {
	mu     sync.Mutex
	next   uint64
	issued map[string]inv.Decoded
}

func (c *Client) Encode(ctx context.Context, req inv.EncodeRequest) (*inv.Encoded, error) {
	if req.AmountMsat < 0 {
		return nil, fmt.Errorf("%w: negative amount %d", inv.ErrEncoding, req.AmountMsat)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++

	var preimage lntypes.Preimage
	if req.Preimage != nil {
		preimage = *req.Preimage
	} else {
		binary.BigEndian.PutUint64(preimage[24:], c.next)
	}
	hash := preimage.Hash()

	encoded := fmt.Sprintf("lnmock1%dm%dx%dp%s", req.AmountMsat, c.next, int64(req.Expiry.Seconds()), hash.String()[:16])

	decoded := inv.Decoded{
		Network:     "mock",
		PaymentHash: hash.String(),
		Description: req.Description,
		Timestamp:   req.Timestamp,
		Expiry:      req.Expiry,
		Payee:       NodeID,
	}
	// Amountless invoices carry no amount, same as BOLT11.
	if req.AmountMsat > 0 {
		amount := req.AmountMsat
		decoded.AmountMsat = &amount
	}
	c.issued[encoded] = decoded

	return &inv.Encoded{
		Invoice:     encoded,
		PaymentHash: hash,
		Preimage:    preimage,
	}, nil
}

func (c *Client) Decode(ctx context.Context, invoice string) (*inv.Decoded, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	decoded, ok := c.issued[invoice]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mock invoice %q", inv.ErrEncoding, invoice)
	}

	return &decoded, nil
}

func (c *Client) NodeID() string {
	return NodeID
}
