package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/bitfsorg/vesting-go/schedule"
)

// maxReplySize bounds how much of an endpoint reply is read.
const maxReplySize = 64 << 10

// RPCConfig holds the connection parameters of a token transfer endpoint.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// RPCTransferer submits transfers to a JSON-RPC token program endpoint.
//
// Failures are split by what the endpoint can have done: an error that
// wraps schedule.ErrTransferOutcomeUnknown means the request left this
// process and may have been executed. Every other error means it was not.
type RPCTransferer struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

// Compile-time interface check.
var _ schedule.TransferService = (*RPCTransferer)(nil)

type rpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      int64            `json:"id"`
	Method  string           `json:"method"`
	Params  []transferParams `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// transferParams is the single positional parameter of the "transfer" method.
// Key lets the endpoint drop a replayed settlement.
type transferParams struct {
	Amount        uint64 `json:"amount"`
	From          string `json:"from"`
	To            string `json:"to"`
	Authority     string `json:"authority"`
	AuthoritySeed uint8  `json:"authority_seed"`
	Key           string `json:"key"`
}

// NewRPCTransferer creates a transfer client. Basic Auth is sent when User is set.
func NewRPCTransferer(cfg RPCConfig) *RPCTransferer {
	return &RPCTransferer{
		url:  cfg.URL,
		user: cfg.User,
		pass: cfg.Password,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// Transfer calls the endpoint's "transfer" method. The endpoint answers
// with the transfer signature.
func (c *RPCTransferer) Transfer(ctx context.Context, req schedule.TransferRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "1.0",
		ID:      id,
		Method:  "transfer",
		Params: []transferParams{{
			Amount:        req.Amount,
			From:          req.From.String(),
			To:            req.To.String(),
			Authority:     req.Authority.String(),
			AuthoritySeed: req.AuthoritySeed,
			Key:           req.Key,
		}},
	})
	if err != nil {
		return fmt.Errorf("custody: marshal transfer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("custody: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		httpReq.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		if neverSent(err) {
			return err
		}
		return outcomeUnknown(err)
	}
	defer func() { _ = resp.Body.Close() }()

	return readTransferReply(resp, id)
}

// readTransferReply maps an endpoint reply onto the transfer contract.
// Explicit refusals are definite; a server error or an unreadable success
// reply leaves the outcome open.
func readTransferReply(resp *http.Response, id int64) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return outcomeUnknown(fmt.Errorf("%w: read reply: %w", ErrConnectionFailed, err))
	}

	var reply rpcResponse
	decodeErr := json.Unmarshal(raw, &reply)
	if decodeErr == nil && reply.Error != nil {
		// Some endpoints report RPC errors with a non-2xx status.
		return fmt.Errorf("%w: rpc error %d: %s", ErrTransferRejected, reply.Error.Code, reply.Error.Message)
	}

	switch {
	case resp.StatusCode >= 500:
		return outcomeUnknown(fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, snippet(raw)))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: HTTP %d: %s", ErrTransferRejected, resp.StatusCode, snippet(raw))
	}

	if decodeErr != nil {
		return outcomeUnknown(fmt.Errorf("%w: decode reply: %w", ErrInvalidResponse, decodeErr))
	}
	if reply.ID != id {
		return outcomeUnknown(fmt.Errorf("%w: reply ID %d, request ID %d", ErrInvalidResponse, reply.ID, id))
	}
	var signature string
	if err := json.Unmarshal(reply.Result, &signature); err != nil || signature == "" {
		return outcomeUnknown(fmt.Errorf("%w: missing transfer signature", ErrInvalidResponse))
	}
	return nil
}

func outcomeUnknown(err error) error {
	return fmt.Errorf("%w: %w", schedule.ErrTransferOutcomeUnknown, err)
}

// neverSent reports whether err happened while dialing, before any byte
// of the request reached the endpoint.
func neverSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func snippet(raw []byte) string {
	if len(raw) > 256 {
		raw = raw[:256]
	}
	return string(bytes.TrimSpace(raw))
}
