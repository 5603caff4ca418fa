// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package node_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/infrastructure/node"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     json.RawMessage   `json:"id"`
}

func newTestNode(t *testing.T, handle func(req rpcRequest) (any, *btcjson.RPCError)) *node.Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var result any
		var rpcErr *btcjson.RPCError
		if req.Method == "getinfo" {
			result = map[string]any{"version": 240200, "blocks": 1}
		} else {
			result, rpcErr = handle(req)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "error": rpcErr, "id": req.ID})
	}))
	t.Cleanup(server.Close)

	client, err := node.NewClient(node.Config{
		Host:       strings.TrimPrefix(server.URL, "http://"),
		User:       "user",
		Pass:       "pass",
		DisableTLS: true,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func testTxHex(t *testing.T) (string, *wire.MsgTx) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 3}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(50000, []byte{0x51}))

	var buf bytes.Buffer
	require.NoError(t, tx.Serialize(&buf))

	return hex.EncodeToString(buf.Bytes()), tx
}

func TestNode(t *testing.T) {
	ctx := context.Background()

	t.Run("block count", func(t *testing.T) {
		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			require.Equal(t, "getblockchaininfo", req.Method)
			return map[string]any{"chain": "main", "blocks": 850321, "headers": 850321, "bestblockhash": ""}, nil
		})

		height, err := client.BlockCount(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 850321, height)
	})

	t.Run("send raw transaction", func(t *testing.T) {
		txHex, tx := testTxHex(t)
		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			require.Equal(t, "sendrawtransaction", req.Method)

			var sent string
			require.NoError(t, json.Unmarshal(req.Params[0], &sent))
			require.Equal(t, txHex, sent)

			return tx.TxHash().String(), nil
		})

		txID, err := client.SendRawTransaction(ctx, txHex)
		require.NoError(t, err)
		require.Equal(t, tx.TxHash().String(), txID)
	})

	t.Run("rejected transaction", func(t *testing.T) {
		txHex, _ := testTxHex(t)
		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			return nil, btcjson.NewRPCError(btcjson.ErrRPCVerifyRejected, "non-final")
		})

		_, err := client.SendRawTransaction(ctx, txHex)
		require.ErrorIs(t, err, domain.ErrPreconditionFailed)
	})

	t.Run("invalid hex", func(t *testing.T) {
		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			t.Fatal("unexpected call")
			return nil, nil
		})

		_, err := client.SendRawTransaction(ctx, "zz")
		require.ErrorIs(t, err, domain.ErrPreconditionFailed)
	})

	t.Run("node error", func(t *testing.T) {
		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			return nil, btcjson.NewRPCError(btcjson.ErrRPCInWarmup, "loading block index")
		})

		_, err := client.BlockCount(ctx)
		require.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("deadline", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		client := newTestNode(t, func(req rpcRequest) (any, *btcjson.RPCError) {
			<-release
			return map[string]any{"blocks": 1}, nil
		})

		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := client.BlockCount(ctx)
		require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	})
}
