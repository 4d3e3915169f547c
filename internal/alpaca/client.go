package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// maxResponseSize caps envelope decoding. Device responses are small JSON
// documents; anything larger is a misbehaving endpoint.
const maxResponseSize = 1 << 20 // 1MB

// Client issues protocol calls against device endpoints.
//
// One Client is shared by all device sessions; per-device routing comes from
// the Descriptor passed to each call.
type Client struct {
	http *http.Client
	txn  *TxnSource
}

// NewClient creates a Client with the given per-call timeout and shared
// transaction source.
func NewClient(timeout time.Duration, txn *TxnSource) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
		txn:  txn,
	}
}

// envelope is the protocol's response wrapper. A call either yields Value
// or a non-zero ErrorNumber with ErrorMessage; the HTTP status does not
// carry device-side errors.
type envelope struct {
	Value               any    `json:"Value"`
	ClientTransactionID uint32 `json:"ClientTransactionID"`
	ServerTransactionID uint32 `json:"ServerTransactionID"`
	ErrorNumber         int    `json:"ErrorNumber"`
	ErrorMessage        string `json:"ErrorMessage"`
}

// memberURL builds the endpoint URL for one property or command.
func memberURL(dev Descriptor, member string) string {
	return fmt.Sprintf("http://%s/api/v1/%s/%d/%s", dev.Addr, dev.Type, dev.Number, member)
}

// Read performs a GET against a readable property and returns the decoded
// envelope value. JSON numbers decode as float64, lists as []any.
func (c *Client) Read(ctx context.Context, dev Descriptor, member string) (any, error) {
	u := memberURL(dev, member) + "?" + c.txnQuery().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{Op: "GET", Member: member, Err: err}
	}

	return c.do(req, "GET", member)
}

// Write performs a PUT against a writable property or command. params are
// the wire parameters for the member (e.g. {"Gain": "1"}); transaction
// identifiers are added automatically.
func (c *Client) Write(ctx context.Context, dev Descriptor, member string, params map[string]string) error {
	form := c.txnQuery()
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, memberURL(dev, member),
		strings.NewReader(form.Encode()))
	if err != nil {
		return &TransportError{Op: "PUT", Member: member, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err = c.do(req, "PUT", member)
	return err
}

// State performs the consolidated devicestate fetch. The result maps
// lower-cased property names to values. Devices are permitted to return a
// partial set; callers fill the gaps with individual reads.
func (c *Client) State(ctx context.Context, dev Descriptor) (map[string]any, error) {
	raw, err := c.Read(ctx, dev, "devicestate")
	if err != nil {
		return nil, err
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, &TransportError{Op: "GET", Member: "devicestate",
			Err: fmt.Errorf("expected array value, got %T", raw)}
	}

	// devicestate names arrive in the protocol's mixed case while members
	// are addressed lower-case; normalise so the cache has one key space.
	result := make(map[string]any, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["Name"].(string)
		if name == "" {
			continue
		}
		result[strings.ToLower(name)] = obj["Value"]
	}

	return result, nil
}

// txnQuery returns the identifier parameters attached to every call.
func (c *Client) txnQuery() url.Values {
	v := url.Values{}
	v.Set("ClientID", strconv.FormatUint(uint64(c.txn.ClientID()), 10))
	v.Set("ClientTransactionID", strconv.FormatUint(uint64(c.txn.Next()), 10))
	return v
}

// do executes the request and decodes the envelope, translating failures
// into the package's error taxonomy.
func (c *Client) do(req *http.Request, op, member string) (any, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Member: member, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &TransportError{Op: op, Member: member, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: op, Member: member,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{Op: op, Member: member,
			Err: fmt.Errorf("malformed response: %w", err)}
	}

	if env.ErrorNumber != 0 {
		return nil, &ProtocolError{Member: member, Code: env.ErrorNumber, Message: env.ErrorMessage}
	}

	return env.Value, nil
}
