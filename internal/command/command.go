// Package command exposes the invoice manager as c-lightning style RPC
// methods.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	inv "github.com/stemstr/lnmock/internal/invoice"
)

type command struct {
	params []string
	run    func(ctx context.Context, p params) (any, error)
}

func New(mgr *inv.Manager, network string) *Dispatcher {
	d := &Dispatcher{
		mgr:     mgr,
		network: network,
	}

	d.commands = map[string]command{
		"invoice": {
			params: []string{"amount_msat", "label", "description", "expiry", "preimage"},
			run:    d.invoice,
		},
		"listinvoices": {
			params: []string{"label", "status"},
			run:    d.listInvoices,
		},
		"markpaid": {
			params: []string{"label"},
			run:    d.markPaid,
		},
		"advancetime": {
			params: []string{"seconds"},
			run:    d.advanceTime,
		},
		"decodepay": {
			params: []string{"bolt11"},
			run:    d.decodePay,
		},
		"getinfo": {
			run: d.getInfo,
		},
		"help": {
			run: d.help,
		},
	}

	return d
}

type Dispatcher struct {
	mgr      *inv.Manager
	network  string
	commands map[string]command
}

// Methods lists the supported method names in alphabetical order.
func (d *Dispatcher) Methods() []string {
	methods := make([]string, 0, len(d.commands))
	for name := range d.commands {
		methods = append(methods, name)
	}
	sort.Strings(methods)
	return methods
}

// Dispatch runs a method with JSON params, either positional or named.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, raw json.RawMessage) (any, error) {
	cmd, ok := d.commands[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	p, err := decodeJSON(cmd.params, raw)
	if err != nil {
		return nil, err
	}

	return cmd.run(ctx, p)
}

func (d *Dispatcher) invoice(ctx context.Context, p params) (any, error) {
	rawAmount, err := p.required("amount_msat")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	label, err := p.required("label")
	if err != nil {
		return nil, err
	}
	if label == "" {
		return nil, fmt.Errorf("%w: label must not be empty", ErrBadParam)
	}

	description, err := p.required("description")
	if err != nil {
		return nil, err
	}

	var expiry time.Duration
	if p.has("expiry") {
		if expiry, err = parseDuration(p.optional("expiry")); err != nil {
			return nil, err
		}
		// Zero would silently fall back to the default.
		if expiry == 0 {
			return nil, fmt.Errorf("%w: expiry must be positive", ErrBadParam)
		}
	}

	created, err := d.mgr.Create(ctx, inv.CreateRequest{
		AmountMsat:  amount,
		Description: description,
		Expiry:      expiry,
		Label:       label,
		Preimage:    p.optional("preimage"),
	})
	if err != nil {
		return nil, err
	}

	return &InvoiceResult{
		PaymentHash: created.ID,
		Bolt11:      created.Encoded,
		Label:       created.Label,
		CreatedAt:   created.CreatedAt.Unix(),
		ExpiresAt:   created.ExpiresAt.Unix(),
		ExpiryTime:  created.ExpiresAt.Unix(),
	}, nil
}

func (d *Dispatcher) listInvoices(ctx context.Context, p params) (any, error) {
	entries, err := d.mgr.List(ctx, inv.Filter{
		Ref:    p.optional("label"),
		Status: inv.Status(p.optional("status")),
	})
	if err != nil {
		return nil, err
	}

	res := &ListInvoicesResult{Invoices: make([]InvoiceEntry, 0, len(entries))}
	for _, e := range entries {
		res.Invoices = append(res.Invoices, newInvoiceEntry(e))
	}

	return res, nil
}

func (d *Dispatcher) markPaid(ctx context.Context, p params) (any, error) {
	ref, err := p.required("label")
	if err != nil {
		return nil, err
	}

	entry, err := d.mgr.MarkPaid(ctx, ref)
	if err != nil {
		return nil, err
	}

	res := newInvoiceEntry(*entry)
	return &res, nil
}

func (d *Dispatcher) advanceTime(ctx context.Context, p params) (any, error) {
	raw, err := p.required("seconds")
	if err != nil {
		return nil, err
	}

	dur, err := parseDuration(raw)
	if err != nil {
		return nil, err
	}

	now, err := d.mgr.AdvanceTime(ctx, dur)
	if err != nil {
		return nil, err
	}

	return &TimeResult{Now: now.Unix()}, nil
}

func (d *Dispatcher) decodePay(ctx context.Context, p params) (any, error) {
	bolt11, err := p.required("bolt11")
	if err != nil {
		return nil, err
	}

	decoded, err := d.mgr.Decode(ctx, bolt11)
	if err != nil {
		return nil, err
	}

	return &DecodePayResult{
		Network:            decoded.Network,
		CreatedAt:          decoded.Timestamp.Unix(),
		Expiry:             int64(decoded.Expiry / time.Second),
		Payee:              decoded.Payee,
		AmountMsat:         decoded.AmountMsat,
		Description:        decoded.Description,
		PaymentHash:        decoded.PaymentHash,
		MinFinalCLTVExpiry: decoded.MinFinalCLTVExpiry,
	}, nil
}

func (d *Dispatcher) getInfo(ctx context.Context, p params) (any, error) {
	n, err := d.mgr.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &InfoResult{
		ID:          d.mgr.NodeID(),
		Network:     d.network,
		Now:         d.mgr.Now().Unix(),
		NumInvoices: n,
	}, nil
}

func (d *Dispatcher) help(ctx context.Context, p params) (any, error) {
	res := &HelpResult{Help: make([]MethodHelp, 0, len(d.commands))}
	for _, name := range d.Methods() {
		res.Help = append(res.Help, MethodHelp{
			Command: name,
			Params:  append([]string{}, d.commands[name].params...),
		})
	}
	return res, nil
}
