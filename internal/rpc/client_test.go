package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(url string) *Client {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return NewClient(ClientConfig{
		BaseURL:      url,
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Logger:       l,
	})
}

func TestCall_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"result":{"value":7}}`))
	}))
	defer srv.Close()

	bal, err := newTestClient(srv.URL).GetBalance(testContext(t), "addr", "confirmed")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), bal)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCall_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBalance(testContext(t), "addr", "confirmed")
	assert.ErrorContains(t, err, "max retries exceeded")
}

func TestSendBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sendBundle", req.Method)

		var txs []string
		require.NoError(t, json.Unmarshal(req.Params[0], &txs))
		assert.Equal(t, []string{"tip", "swap"}, txs)

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"bundle-1"}`))
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).SendBundle(testContext(t), []string{"tip", "swap"})
	require.NoError(t, err)
	assert.Equal(t, "bundle-1", id)
}

func TestSendBundle_RPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":-32602,"message":"bundle rejected"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SendBundle(testContext(t), []string{"tx"})
	assert.EqualError(t, err, "bundle rejected")
}

func TestGetBundleStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"context":{"slot":1},"value":[
			{"bundle_id":"a","slot":10,"confirmation_status":"confirmed","err":{"Ok":null}},
			{"bundle_id":"b","slot":11,"confirmation_status":"processed","err":{"Err":"InstructionError"}},
			null
		]}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).GetBundleStatuses(testContext(t), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, res.Result.Value, 3)

	assert.Equal(t, "confirmed", res.Result.Value[0].ConfirmationStatus)
	assert.False(t, res.Result.Value[0].Err.Failed())
	assert.True(t, res.Result.Value[1].Err.Failed())
	assert.Nil(t, res.Result.Value[2])
}

func TestGetLatestBlockhashAndAccountInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Method {
		case "getLatestBlockhash":
			_, _ = w.Write([]byte(`{"result":{"value":{"blockhash":"abc","lastValidBlockHeight":99}}}`))
		case "getAccountInfo":
			_, _ = w.Write([]byte(`{"result":{"value":null}}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	bh, err := c.GetLatestBlockhash(testContext(t), "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "abc", bh.Result.Value.Blockhash)
	assert.Equal(t, uint64(99), bh.Result.Value.LastValidBlockHeight)

	info, err := c.GetAccountInfo(testContext(t), "missing", "confirmed")
	require.NoError(t, err)
	assert.Nil(t, info.Result.Value)
}

// testContext returns a context canceled when the test finishes
// (equivalent of testing.T.Context, which requires Go 1.24).
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
