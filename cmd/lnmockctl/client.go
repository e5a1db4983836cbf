package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type client struct {
	url  string
	http *http.Client
	log  log.FieldLogger
	out  io.Writer
	id   atomic.Int64
}

func newRPCClient(server string, logger log.FieldLogger, out io.Writer) *client {
	return &client{
		url:  strings.TrimSuffix(server, "/") + "/rpc",
		http: &http.Client{Timeout: 10 * time.Second},
		log:  logger,
		out:  out,
	}
}

// call sends a JSON-RPC request and returns the raw result.
func (c *client) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      c.id.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	c.log.Debugf("-> %s", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.log.Debugf("<- %d %s", resp.StatusCode, respBody)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var data struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if data.Error != nil {
		return nil, data.Error
	}

	return data.Result, nil
}

// run calls method and prints the indented result.
func (c *client) run(ctx context.Context, method string, params map[string]any) error {
	result, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return fmt.Errorf("indent result: %w", err)
	}
	buf.WriteByte('\n')

	_, err = c.out.Write(buf.Bytes())
	return err
}
