package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	projectrpc "github.com/aman-zulfiqar/raydium-sniper/internal/rpc"
	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func signedTx(t *testing.T) (*solana.Transaction, solana.PrivateKey, wallet.Blockhash) {
	t.Helper()
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	bh := wallet.Blockhash{Hash: solana.Hash{7}, LastValidBlockHeight: 100}
	ix := system.NewTransferInstruction(1, payer.PublicKey(), solana.SystemProgramID).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, bh.Hash, solana.TransactionPayer(payer.PublicKey()))
	require.NoError(t, err)
	_, err = tx.Sign(func(solana.PublicKey) *solana.PrivateKey { return &payer })
	require.NoError(t, err)
	return tx, payer, bh
}

func TestSolToLamports(t *testing.T) {
	assert.Equal(t, uint64(6_000_000), solToLamports(decimal.RequireFromString("0.006")))
	assert.Equal(t, uint64(1), solToLamports(decimal.RequireFromString("0.0000000019")))
}

// direct

type fakeDirect struct {
	sendErr  error
	statuses []*rpc.SignatureStatusesResult
	heights  []uint64
	polls    atomic.Int32
}

func (f *fakeDirect) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return tx.Signatures[0], nil
}

func (f *fakeDirect) GetSignatureStatuses(context.Context, bool, ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	i := int(f.polls.Add(1)) - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{f.statuses[i]}}, nil
}

func (f *fakeDirect) GetBlockHeight(context.Context, rpc.CommitmentType) (uint64, error) {
	i := int(f.polls.Load()) - 1
	if i >= len(f.heights) {
		i = len(f.heights) - 1
	}
	return f.heights[i], nil
}

func newDirect(client DirectClient, commitment rpc.CommitmentType) *Direct {
	return NewDirect(DirectConfig{
		Client:       client,
		Commitment:   commitment,
		PollInterval: time.Millisecond,
		MaxPoll:      time.Millisecond,
		Logger:       quietLogger(),
	})
}

func TestDirect_ConfirmsAtCommitment(t *testing.T) {
	tx, payer, bh := signedTx(t)
	client := &fakeDirect{
		statuses: []*rpc.SignatureStatusesResult{
			nil,
			{ConfirmationStatus: rpc.ConfirmationStatusProcessed},
			{ConfirmationStatus: rpc.ConfirmationStatusConfirmed},
		},
		heights: []uint64{10},
	}

	res := newDirect(client, rpc.CommitmentConfirmed).ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, Confirmed, res.Status)
	assert.Equal(t, tx.Signatures[0].String(), res.Signature)
	assert.Equal(t, int32(3), client.polls.Load())
}

func TestDirect_OnChainError(t *testing.T) {
	tx, payer, bh := signedTx(t)
	client := &fakeDirect{
		statuses: []*rpc.SignatureStatusesResult{{Err: map[string]any{"InstructionError": []any{2, "Custom"}}}},
		heights:  []uint64{10},
	}

	res := newDirect(client, rpc.CommitmentConfirmed).ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, Failed, res.Status)
	assert.Error(t, res.Err)
}

func TestDirect_BlockhashExpiry(t *testing.T) {
	tx, payer, bh := signedTx(t)
	client := &fakeDirect{
		statuses: []*rpc.SignatureStatusesResult{nil},
		heights:  []uint64{99, 100, 101},
	}

	res := newDirect(client, rpc.CommitmentConfirmed).ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, NotConfirmed, res.Status)
	assert.ErrorIs(t, res.Err, ErrBlockhashExpired)
	assert.Equal(t, int32(3), client.polls.Load())
}

func TestDirect_SendError(t *testing.T) {
	tx, payer, bh := signedTx(t)
	res := newDirect(&fakeDirect{sendErr: errors.New("node is behind")}, rpc.CommitmentConfirmed).
		ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, NotConfirmed, res.Status)
	assert.ErrorContains(t, res.Err, "node is behind")
}

func TestReached(t *testing.T) {
	assert.True(t, reached(rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed))
	assert.False(t, reached(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.True(t, reached(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.False(t, reached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
}

// warp

func TestWarp_Confirmed(t *testing.T) {
	tx, payer, bh := signedTx(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req warpRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Transactions, 2)
		assert.Equal(t, bh.Hash.String(), req.LatestBlockhash.Blockhash)
		assert.Equal(t, uint64(100), req.LatestBlockhash.LastValidBlockHeight)

		raw, err := base58.Decode(req.Transactions[0])
		require.NoError(t, err)
		fee, err := solana.TransactionFromBytes(raw)
		require.NoError(t, err)
		assert.Equal(t, bh.Hash, fee.Message.RecentBlockhash)

		_, _ = w.Write([]byte(`{"confirmed":true,"signature":"relay-sig"}`))
	}))
	defer srv.Close()

	warp := NewWarp(WarpConfig{URL: srv.URL, Fee: decimal.RequireFromString("0.006"), Logger: quietLogger()})
	res := warp.ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, Confirmed, res.Status)
	assert.Equal(t, "relay-sig", res.Signature)
}

func TestWarp_ResponseMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Status
	}{
		{name: "relay error", status: http.StatusOK, body: `{"confirmed":false,"error":"InstructionError"}`, want: Failed},
		{name: "not confirmed", status: http.StatusOK, body: `{"confirmed":false}`, want: NotConfirmed},
		{name: "bad status", status: http.StatusInternalServerError, body: `oops`, want: NotConfirmed},
		{name: "bad json", status: http.StatusOK, body: `{`, want: NotConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, payer, bh := signedTx(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			warp := NewWarp(WarpConfig{URL: srv.URL, Fee: decimal.RequireFromString("0.001"), Logger: quietLogger()})
			res := warp.ExecuteAndConfirm(testContext(t), tx, payer, bh)
			assert.Equal(t, tt.want, res.Status)
			assert.Error(t, res.Err)
		})
	}
}

func TestWarp_TimeoutIsNotConfirmed(t *testing.T) {
	tx, payer, bh := signedTx(t)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	warp := NewWarp(WarpConfig{
		URL:     srv.URL,
		Fee:     decimal.RequireFromString("0.001"),
		Timeout: 50 * time.Millisecond,
		Logger:  quietLogger(),
	})

	res := warp.ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, NotConfirmed, res.Status)
	assert.Equal(t, tx.Signatures[0].String(), res.Signature)
	assert.Error(t, res.Err)
}

// jito

type fakeBundles struct {
	sendErr  error
	sent     [][]string
	statuses []*projectrpc.BundleStatus
	polls    int
}

func (f *fakeBundles) SendBundle(_ context.Context, txs []string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, txs)
	return "bundle-1", nil
}

func (f *fakeBundles) GetBundleStatuses(context.Context, []string) (*projectrpc.BundleStatusesResponse, error) {
	resp := &projectrpc.BundleStatusesResponse{}
	if f.polls < len(f.statuses) {
		resp.Result.Value = []*projectrpc.BundleStatus{f.statuses[f.polls]}
	}
	f.polls++
	return resp, nil
}

func newJito(client BundleClient, tips []solana.PublicKey) *Jito {
	return NewJito(JitoConfig{
		Client:      client,
		TipAccounts: tips,
		Fee:         decimal.RequireFromString("0.001"),
		Polls:       5,
		Interval:    time.Millisecond,
		Logger:      quietLogger(),
	})
}

func TestJito_Landed(t *testing.T) {
	tx, payer, bh := signedTx(t)
	tipAccount := solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
	client := &fakeBundles{statuses: []*projectrpc.BundleStatus{
		nil,
		{ConfirmationStatus: "processed"},
		{ConfirmationStatus: "confirmed"},
	}}

	res := newJito(client, []solana.PublicKey{tipAccount}).ExecuteAndConfirm(testContext(t), tx, payer, bh)
	assert.Equal(t, Confirmed, res.Status)
	assert.Equal(t, 3, client.polls)

	require.Len(t, client.sent, 1)
	require.Len(t, client.sent[0], 2)

	raw, err := base58.Decode(client.sent[0][0])
	require.NoError(t, err)
	tip, err := solana.TransactionFromBytes(raw)
	require.NoError(t, err)
	assert.Contains(t, tip.Message.AccountKeys, tipAccount)
}

func TestJito_Outcomes(t *testing.T) {
	tips := []solana.PublicKey{solana.SystemProgramID}

	t.Run("bundle error", func(t *testing.T) {
		tx, payer, bh := signedTx(t)
		client := &fakeBundles{statuses: []*projectrpc.BundleStatus{
			{ConfirmationStatus: "processed", Err: projectrpc.BundleError{Err: "InstructionError"}},
		}}
		res := newJito(client, tips).ExecuteAndConfirm(testContext(t), tx, payer, bh)
		assert.Equal(t, Failed, res.Status)
	})

	t.Run("never lands", func(t *testing.T) {
		tx, payer, bh := signedTx(t)
		client := &fakeBundles{}
		res := newJito(client, tips).ExecuteAndConfirm(testContext(t), tx, payer, bh)
		assert.Equal(t, NotConfirmed, res.Status)
		assert.ErrorIs(t, res.Err, ErrBundleNotLanded)
		assert.Equal(t, 5, client.polls)
	})

	t.Run("send fails", func(t *testing.T) {
		tx, payer, bh := signedTx(t)
		res := newJito(&fakeBundles{sendErr: errors.New("rate limited")}, tips).ExecuteAndConfirm(testContext(t), tx, payer, bh)
		assert.Equal(t, NotConfirmed, res.Status)
	})

	t.Run("no tip accounts", func(t *testing.T) {
		tx, payer, bh := signedTx(t)
		res := newJito(&fakeBundles{}, nil).ExecuteAndConfirm(testContext(t), tx, payer, bh)
		assert.Equal(t, NotConfirmed, res.Status)
	})
}

// testContext returns a context canceled when the test finishes
// (equivalent of testing.T.Context, which requires Go 1.24).
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
