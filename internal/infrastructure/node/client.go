// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package node

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/infrastructure/upstream"
)

var _ ports.Node = (*Client)(nil)

// Config defines node json-rpc connection.
type Config struct {
	Host       string
	User       string
	Pass       string
	DisableTLS bool
	Timeout    time.Duration
}

// Client is a bitcoin node json-rpc client.
type Client struct {
	rpc     *rpcclient.Client
	timeout time.Duration
}

// NewClient is a constructor for Client, no connection is made until the first call.
func NewClient(config Config) (*Client, error) {
	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         config.Host,
		User:         config.User,
		Pass:         config.Pass,
		HTTPPostMode: true,
		DisableTLS:   config.DisableTLS,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create node rpc client: %w", err)
	}

	return &Client{
		rpc:     rpc,
		timeout: config.Timeout,
	}, nil
}

// SendRawTransaction broadcasts signed transaction and returns its id.
func (c *Client) SendRawTransaction(ctx context.Context, txHex string) (string, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return "", errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("invalid transaction hex: %w", err))
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return "", errors.Join(domain.ErrPreconditionFailed, fmt.Errorf("invalid transaction: %w", err))
	}

	hash, err := call(ctx, c.timeout, func() (string, error) {
		hash, err := c.rpc.SendRawTransaction(tx, false)
		if err != nil {
			return "", err
		}
		return hash.String(), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction %s: %w", tx.TxHash(), err)
	}

	return hash, nil
}

// BlockCount returns height of the node best chain.
func (c *Client) BlockCount(ctx context.Context) (uint32, error) {
	info, err := call(ctx, c.timeout, c.rpc.GetBlockChainInfo)
	if err != nil {
		return 0, fmt.Errorf("failed to get blockchain info: %w", err)
	}

	return uint32(info.Blocks), nil
}

// Close stops the rpc client.
func (c *Client) Close() {
	c.rpc.Shutdown()
}

// call runs blocking rpc call bounded by ctx and timeout.
func call[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn()
		done <- result{value, err}
	}()

	select {
	case <-ctx.Done():
		var empty T
		return empty, upstream.Classify(ctx.Err())
	case res := <-done:
		if res.err == nil {
			return res.value, nil
		}

		return res.value, classify(res.err)
	}
}

// classify maps transaction rejections of the node to domain.ErrPreconditionFailed.
func classify(err error) error {
	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case btcjson.ErrRPCVerify, btcjson.ErrRPCVerifyRejected, btcjson.ErrRPCVerifyAlreadyInChain, btcjson.ErrRPCDeserialization:
			return errors.Join(domain.ErrPreconditionFailed, err)
		}
	}

	return upstream.Classify(err)
}
