// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package unisat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/infrastructure/upstream"
)

// Client is a unisat open api client, implements ports.Indexer and ports.MarketData.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient is a constructor for Client, timeout bounds every request.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// envelope is a common unisat response wrapper.
type envelope[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

func (c *Client) get(ctx context.Context, path string, data any) error {
	return c.do(ctx, http.MethodGet, path, nil, data)
}

func (c *Client) post(ctx context.Context, path string, body, data any) error {
	return c.do(ctx, http.MethodPost, path, body, data)
}

func (c *Client) do(ctx context.Context, method, path string, body, data any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp := envelope[json.RawMessage]{}
	if err := upstream.DoJSON(c.client, req, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return errors.Join(domain.ErrUpstream, fmt.Errorf("%s %s: unisat error %d: %s", method, path, resp.Code, resp.Msg))
	}
	if data == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Data, data); err != nil {
		return errors.Join(domain.ErrUpstream, fmt.Errorf("%s %s: failed to decode data: %w", method, path, err))
	}

	return nil
}
