package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/stemstr/lnmock/internal/command"
	inv "github.com/stemstr/lnmock/internal/invoice"
)

const maxBodyBytes = 1 << 20

// JSON-RPC error codes. The positive ones follow c-lightning.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeUnknownMethod  = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603
	codeNotFound       = -1
	codeDuplicateLabel = 900
	codeAlreadyPaid    = 901
	codeEncoding       = 902
)

type dispatcher interface {
	Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error)
}

type handlers struct {
	rpc dispatcher
	log log.FieldLogger
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call runs a command and records its outcome.
func (h *handlers) call(ctx context.Context, method string, params json.RawMessage) (any, error) {
	res, err := h.rpc.Dispatch(ctx, method, params)
	observeCommand(method, err)

	if err != nil {
		if rpcCode(err) == codeInternal {
			h.log.Errorf("%v: %v", method, err)
		} else {
			h.log.Debugf("%v: %v", method, err)
		}
	}

	return res, err
}

// handleRPC serves JSON-RPC 2.0. Command failures are reported in the
// response body with status 200.
func (h *handlers) handleRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: err.Error()},
		})
		return
	}

	if req.Method == "" {
		writeJSON(w, http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: codeInvalidRequest, Message: "must provide method"},
		})
		return
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	res, err := h.call(r.Context(), req.Method, req.Params)
	if err != nil {
		resp.Error = &rpcError{Code: rpcCode(err), Message: err.Error()}
	} else {
		resp.Result = res
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListInvoices lists invoices, optionally filtered by label and status.
func (h *handlers) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	params := map[string]string{}
	if label := r.URL.Query().Get("label"); label != "" {
		params["label"] = label
	}
	if status := r.URL.Query().Get("status"); status != "" {
		params["status"] = status
	}

	h.rest(w, r, "listinvoices", params, http.StatusOK)
}

// handleCreateInvoice takes the invoice command's named params as a JSON body.
func (h *handlers) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "expected JSON payload", http.StatusBadRequest)
		return
	}

	res, err := h.call(r.Context(), "invoice", body)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// handleGetInvoice fetches a single invoice by payment hash or label.
func (h *handlers) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	params, _ := json.Marshal(map[string]string{"label": ref})
	res, err := h.call(r.Context(), "listinvoices", params)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	list, ok := res.(*command.ListInvoicesResult)
	if !ok || len(list.Invoices) == 0 {
		http.Error(w, inv.ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, list.Invoices[0])
}

func (h *handlers) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	h.rest(w, r, "markpaid", map[string]string{"label": chi.URLParam(r, "ref")}, http.StatusOK)
}

func (h *handlers) handleGetTime(w http.ResponseWriter, r *http.Request) {
	res, err := h.call(r.Context(), "getinfo", nil)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	info, ok := res.(*command.InfoResult)
	if !ok {
		http.Error(w, "unexpected getinfo result", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, command.TimeResult{Now: info.Now})
}

// handleAdvanceTime takes {"seconds": n} where n is a number of seconds or a
// duration string.
func (h *handlers) handleAdvanceTime(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "expected JSON payload", http.StatusBadRequest)
		return
	}

	res, err := h.call(r.Context(), "advancetime", body)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) handleDecode(w http.ResponseWriter, r *http.Request) {
	h.rest(w, r, "decodepay", map[string]string{"bolt11": chi.URLParam(r, "bolt11")}, http.StatusOK)
}

func (h *handlers) rest(w http.ResponseWriter, r *http.Request, method string, params map[string]string, status int) {
	raw, err := json.Marshal(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	res, err := h.call(r.Context(), method, raw)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	writeJSON(w, status, res)
}

func rpcCode(err error) int {
	switch {
	case errors.Is(err, command.ErrUnknownMethod):
		return codeUnknownMethod
	case errors.Is(err, inv.ErrInvalidArgument):
		return codeInvalidParams
	case errors.Is(err, inv.ErrNotFound):
		return codeNotFound
	case errors.Is(err, inv.ErrDuplicateLabel):
		return codeDuplicateLabel
	case errors.Is(err, inv.ErrAlreadyPaid):
		return codeAlreadyPaid
	case errors.Is(err, inv.ErrEncoding):
		return codeEncoding
	default:
		return codeInternal
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, inv.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, inv.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, inv.ErrDuplicateLabel), errors.Is(err, inv.ErrAlreadyPaid):
		return http.StatusConflict
	case errors.Is(err, inv.ErrEncoding):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonb, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonb)
}
