// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package mempool

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/infrastructure/upstream"
)

var (
	_ ports.FeeEstimator = (*Client)(nil)
	_ ports.FeeEstimator = StaticRate(0)
)

// Client is a mempool.space fee estimation api client.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient is a constructor for Client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type recommendedFees struct {
	FastestFee  uint64 `json:"fastestFee"`
	HalfHourFee uint64 `json:"halfHourFee"`
	HourFee     uint64 `json:"hourFee"`
	EconomyFee  uint64 `json:"economyFee"`
	MinimumFee  uint64 `json:"minimumFee"`
}

// FeeRate returns fastest recommended fee rate in sat/vB.
func (c *Client) FeeRate(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/fees/recommended", nil)
	if err != nil {
		return 0, err
	}

	var fees recommendedFees
	if err := upstream.DoJSON(c.client, req, &fees); err != nil {
		return 0, err
	}
	if fees.FastestFee == 0 {
		return 0, errors.Join(domain.ErrUpstream, fmt.Errorf("zero fee rate recommended"))
	}

	return fees.FastestFee, nil
}

// StaticRate is a fixed fee rate in sat/vB, replaces the fee api in test environments.
type StaticRate uint64

// FeeRate returns the static rate.
func (r StaticRate) FeeRate(context.Context) (uint64, error) {
	return uint64(r), nil
}

// NewEstimator returns StaticRate when staticRate is set, mempool Client otherwise.
func NewEstimator(baseURL string, staticRate uint64, timeout time.Duration) ports.FeeEstimator {
	if staticRate > 0 {
		return StaticRate(staticRate)
	}

	return NewClient(baseURL, timeout)
}
