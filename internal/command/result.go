package command

import (
	inv "github.com/stemstr/lnmock/internal/invoice"
)

type InvoiceResult struct {
	PaymentHash string `json:"payment_hash"`
	Bolt11      string `json:"bolt11"`
	Label       string `json:"label"`
	CreatedAt   int64  `json:"created_at"`
	ExpiresAt   int64  `json:"expires_at"`
	ExpiryTime  int64  `json:"expiry_time"`
}

type ListInvoicesResult struct {
	Invoices []InvoiceEntry `json:"invoices"`
}

// InvoiceEntry is one listinvoices record. Payment fields are only set once
// the invoice has been paid.
type InvoiceEntry struct {
	Label              string  `json:"label"`
	Bolt11             string  `json:"bolt11"`
	PaymentHash        string  `json:"payment_hash"`
	AmountMsat         int64   `json:"amount_msat"`
	Msatoshi           int64   `json:"msatoshi"`
	Description        string  `json:"description"`
	Status             string  `json:"status"`
	CreatedAt          int64   `json:"created_at"`
	ExpiresAt          int64   `json:"expires_at"`
	ExpiryTime         int64   `json:"expiry_time"`
	PaidAt             *int64  `json:"paid_at,omitempty"`
	PayIndex           *uint64 `json:"pay_index,omitempty"`
	AmountReceivedMsat *int64  `json:"amount_received_msat,omitempty"`
	PaymentPreimage    string  `json:"payment_preimage,omitempty"`
}

func newInvoiceEntry(e inv.Entry) InvoiceEntry {
	entry := InvoiceEntry{
		Label:       e.Label,
		Bolt11:      e.Encoded,
		PaymentHash: e.ID,
		AmountMsat:  e.AmountMsat,
		Msatoshi:    e.AmountMsat,
		Description: e.Description,
		Status:      string(e.Status),
		CreatedAt:   e.CreatedAt.Unix(),
		ExpiresAt:   e.ExpiresAt.Unix(),
		ExpiryTime:  e.ExpiresAt.Unix(),
	}

	if e.Paid {
		payIndex := e.PayIndex
		received := e.AmountReceivedMsat
		entry.PayIndex = &payIndex
		entry.AmountReceivedMsat = &received
		entry.PaymentPreimage = e.Preimage
		if e.PaidAt != nil {
			paidAt := e.PaidAt.Unix()
			entry.PaidAt = &paidAt
		}
	}

	return entry
}

type TimeResult struct {
	Now int64 `json:"now"`
}

type DecodePayResult struct {
	Network            string `json:"network"`
	CreatedAt          int64  `json:"created_at"`
	Expiry             int64  `json:"expiry"`
	Payee              string `json:"payee"`
	AmountMsat         *int64 `json:"amount_msat,omitempty"`
	Description        string `json:"description"`
	PaymentHash        string `json:"payment_hash"`
	MinFinalCLTVExpiry uint64 `json:"min_final_cltv_expiry"`
}

type InfoResult struct {
	ID          string `json:"id"`
	Network     string `json:"network"`
	Now         int64  `json:"now"`
	NumInvoices int    `json:"num_invoices"`
}

type HelpResult struct {
	Help []MethodHelp `json:"help"`
}

type MethodHelp struct {
	Command string   `json:"command"`
	Params  []string `json:"params"`
}
