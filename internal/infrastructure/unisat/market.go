// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package unisat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/BoostyLabs/staking/internal/core/domain"
	"github.com/BoostyLabs/staking/internal/core/ports"
	"github.com/BoostyLabs/staking/internal/numbers"
)

const (
	// runeTypesPageSize is a page size of the runes market listing.
	runeTypesPageSize = 100
	// runeTypesMaxPages bounds rune market lookup.
	runeTypesMaxPages = 20
)

var _ ports.MarketData = (*Client)(nil)

type brc20Types struct {
	List []struct {
		Tick     string      `json:"tick"`
		CurPrice json.Number `json:"curPrice"`
	} `json:"list"`
}

type runeTypes struct {
	List []struct {
		RuneID   string      `json:"runeid"`
		CurPrice json.Number `json:"curPrice"`
	} `json:"list"`
}

// Quote returns current market price of the asset unit in sats.
func (c *Client) Quote(ctx context.Context, asset domain.Asset) (*ports.Quote, error) {
	var price json.Number
	var err error
	switch asset.Kind {
	case domain.AssetBRC20:
		price, err = c.brc20Price(ctx, asset.Ticker)
	case domain.AssetRune:
		price, err = c.runePrice(ctx, asset.RuneID)
	default:
		return nil, fmt.Errorf("asset %s has no market price", asset)
	}
	if err != nil {
		return nil, err
	}
	if price == "" {
		return nil, errors.Join(domain.ErrPriceUnavailable, fmt.Errorf("no market for %s", asset))
	}

	satsPerUnit, err := parsePrice(price)
	if err != nil {
		return nil, errors.Join(domain.ErrUpstream, fmt.Errorf("invalid price of %s: %w", asset, err))
	}
	if satsPerUnit.Sign() <= 0 {
		return nil, errors.Join(domain.ErrPriceUnavailable, fmt.Errorf("zero market price of %s", asset))
	}

	return &ports.Quote{SatsPerUnit: satsPerUnit}, nil
}

func (c *Client) brc20Price(ctx context.Context, ticker string) (json.Number, error) {
	body := map[string]any{"ticks": []string{ticker}, "start": 0, "limit": 1}

	var types brc20Types
	if err := c.post(ctx, "/v3/market/brc20/auction/brc20_types", body, &types); err != nil {
		return "", err
	}
	for _, item := range types.List {
		if strings.EqualFold(item.Tick, ticker) {
			return item.CurPrice, nil
		}
	}

	return "", nil
}

// runePrice walks runes market listing since it can not be filtered by rune id.
func (c *Client) runePrice(ctx context.Context, runeID string) (json.Number, error) {
	for page := 0; page < runeTypesMaxPages; page++ {
		body := map[string]any{"start": page * runeTypesPageSize, "limit": runeTypesPageSize}

		var types runeTypes
		if err := c.post(ctx, "/v3/market/runes/auction/runes_types", body, &types); err != nil {
			return "", err
		}
		for _, item := range types.List {
			if item.RuneID == runeID {
				return item.CurPrice, nil
			}
		}
		if len(types.List) < runeTypesPageSize {
			break
		}
	}

	return "", nil
}

// parsePrice converts decimal price into fixed point value, extra fraction digits are truncated.
func parsePrice(price json.Number) (*big.Int, error) {
	s := price.String()
	if strings.ContainsAny(s, "eE") {
		value, _, err := big.ParseFloat(s, 10, 256, big.ToZero)
		if err != nil {
			return nil, err
		}
		fixed, _ := value.Mul(value, new(big.Float).SetInt(numbers.FixedOne)).Int(nil)
		return fixed, nil
	}

	integer, fraction, _ := strings.Cut(s, ".")
	if len(fraction) > numbers.Decimals {
		fraction = fraction[:numbers.Decimals]
	}
	if fraction != "" {
		integer += "." + fraction
	}

	return numbers.ParseFixed(integer, numbers.Decimals)
}
