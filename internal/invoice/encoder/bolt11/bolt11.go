package bolt11

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

// DefaultNodeKey signs every invoice unless configured otherwise. The key is
// public knowledge, signatures only need to verify.
const DefaultNodeKey = "0000111122223333444455556666777788889999aaaabbbbccccddddeeeeffff"

const DefaultNetwork = "regtest"

var features = lnwire.NewFeatureVector(
	lnwire.NewRawFeatureVector(
		lnwire.TLVOnionPayloadRequired,
		lnwire.PaymentAddrRequired,
	),
	lnwire.Features,
)

type Config struct {
	Network string
	NodeKey string
}

func New(cfg Config) (*Client, error) {
	network := cfg.Network
	if network == "" {
		network = DefaultNetwork
	}

	params, err := NetParams(network)
	if err != nil {
		return nil, err
	}

	nodeKey := cfg.NodeKey
	if nodeKey == "" {
		nodeKey = DefaultNodeKey
	}

	keyBytes, err := hex.DecodeString(nodeKey)
	if err != nil {
		return nil, fmt.Errorf("decode node key: %w", err)
	}
	if len(keyBytes) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("node key must be %d bytes, got %d", btcec.PrivKeyBytesLen, len(keyBytes))
	}

	key, pub := btcec.PrivKeyFromBytes(keyBytes)

	return &Client{
		network: network,
		params:  params,
		key:     key,
		nodeID:  hex.EncodeToString(pub.SerializeCompressed()),
	}, nil
}

// NetParams maps a network name to its chain parameters, which also
// determine the invoice prefix (lnbc, lntb, lnbcrt, lnsb).
func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", network)
	}
}

// Client encodes BOLT11 payment requests signed by a fixed node key.
type Client struct {
	network string
	params  *chaincfg.Params
	key     *btcec.PrivateKey
	nodeID  string
}

func (c *Client) Encode(ctx context.Context, req inv.EncodeRequest) (*inv.Encoded, error) {
	if req.AmountMsat < 0 {
		return nil, fmt.Errorf("%w: negative amount %d", inv.ErrEncoding, req.AmountMsat)
	}

	var preimage lntypes.Preimage
	if req.Preimage != nil {
		preimage = *req.Preimage
	} else if _, err := rand.Read(preimage[:]); err != nil {
		return nil, fmt.Errorf("%w: generate preimage: %v", inv.ErrEncoding, err)
	}

	var paymentAddr [32]byte
	if _, err := rand.Read(paymentAddr[:]); err != nil {
		return nil, fmt.Errorf("%w: generate payment address: %v", inv.ErrEncoding, err)
	}

	opts := []func(*zpay32.Invoice){
		zpay32.Description(req.Description),
		zpay32.Expiry(req.Expiry),
		zpay32.PaymentAddr(paymentAddr),
		zpay32.Features(features),
	}

	// Zero means an amountless invoice, the payer picks the amount.
	if req.AmountMsat > 0 {
		opts = append(opts, zpay32.Amount(lnwire.MilliSatoshi(req.AmountMsat)))
	}

	hash := preimage.Hash()

	invoice, err := zpay32.NewInvoice(c.params, hash, req.Timestamp, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: zpay32.NewInvoice: %v", inv.ErrEncoding, err)
	}

	encoded, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: c.signCompact,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: zpay32.Encode: %v", inv.ErrEncoding, err)
	}

	return &inv.Encoded{
		Invoice:     encoded,
		PaymentHash: hash,
		Preimage:    preimage,
	}, nil
}

func (c *Client) Decode(ctx context.Context, invoice string) (*inv.Decoded, error) {
	decoded, err := zpay32.Decode(invoice, c.params)
	if err != nil {
		return nil, fmt.Errorf("%w: zpay32.Decode: %v", inv.ErrEncoding, err)
	}

	resp := &inv.Decoded{
		Network:            c.network,
		Timestamp:          decoded.Timestamp,
		Expiry:             decoded.Expiry(),
		MinFinalCLTVExpiry: decoded.MinFinalCLTVExpiry(),
	}

	if decoded.PaymentHash != nil {
		resp.PaymentHash = hex.EncodeToString(decoded.PaymentHash[:])
	}
	if decoded.MilliSat != nil {
		amount := int64(*decoded.MilliSat)
		resp.AmountMsat = &amount
	}
	if decoded.Description != nil {
		resp.Description = *decoded.Description
	}
	if decoded.Destination != nil {
		resp.Payee = hex.EncodeToString(decoded.Destination.SerializeCompressed())
	}

	return resp, nil
}

func (c *Client) NodeID() string {
	return c.nodeID
}

func (c *Client) signCompact(msg []byte) ([]byte, error) {
	hash := chainhash.HashB(msg)
	return ecdsa.SignCompact(c.key, hash, true)
}
