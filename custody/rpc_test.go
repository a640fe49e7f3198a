package custody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/vesting-go/schedule"
)

func TestRPCTransferer_Transfer(t *testing.T) {
	var got transferParams
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "vest", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			ID     int64             `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "transfer", req.Method)
		require.Len(t, req.Params, 1)
		require.NoError(t, json.Unmarshal(req.Params[0], &got))

		_ = json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`"5igSig"`)})
	}))
	defer server.Close()

	c := NewRPCTransferer(RPCConfig{URL: server.URL, User: "vest", Password: "secret"})
	err := c.Transfer(context.Background(), schedule.TransferRequest{
		Amount: 466_666, From: makeID(0xC0), To: makeID(0xD0), Authority: makeID(0xA0), AuthoritySeed: 254, Key: "c0/466666/0/466666",
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(466_666), got.Amount)
	assert.Equal(t, makeID(0xC0).String(), got.From)
	assert.Equal(t, makeID(0xD0).String(), got.To)
	assert.Equal(t, makeID(0xA0).String(), got.Authority)
	assert.Equal(t, uint8(254), got.AuthoritySeed)
	assert.Equal(t, "c0/466666/0/466666", got.Key)
}

func TestRPCTransferer_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Error: &rpcError{Code: -32002, Message: "insufficient funds"}})
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.NotErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestRPCTransferer_RejectedWithHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rpcResponse{Error: &rpcError{Code: -1, Message: "frozen"}})
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrTransferRejected)
}

func TestRPCTransferer_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_ClientErrorIsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrTransferRejected)
	assert.NotErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_EmptySignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(rpcResponse{ID: req.ID, Result: json.RawMessage(`""`)})
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.ErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_GarbledReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.ErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_DeadlineAfterSend(t *testing.T) {
	received := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(ctx, schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
	assert.Len(t, received, 1)
}

func TestRPCTransferer_CanceledBeforeSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewRPCTransferer(RPCConfig{URL: "http://localhost:1"}).Transfer(ctx, schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_IDMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rpcResponse{ID: 999, Result: json.RawMessage(`"sig"`)})
	}))
	defer server.Close()

	err := NewRPCTransferer(RPCConfig{URL: server.URL}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.ErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}

func TestRPCTransferer_ConnectionError(t *testing.T) {
	err := NewRPCTransferer(RPCConfig{URL: "http://localhost:1"}).Transfer(context.Background(), schedule.TransferRequest{Amount: 1})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.NotErrorIs(t, err, schedule.ErrTransferOutcomeUnknown)
}
