// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package upstream classifies failures of external calls into domain errors.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/BoostyLabs/staking/internal/core/domain"
)

// maxBodySize limits decoded response bodies.
const maxBodySize = 8 << 20

// Classify joins err with domain.ErrUpstreamTimeout for timeouts and with domain.ErrUpstream otherwise.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, domain.ErrUpstream) || errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Join(domain.ErrUpstreamTimeout, err)
	}

	return errors.Join(domain.ErrUpstream, err)
}

// DoJSON sends request and decodes JSON response into out, non 2xx statuses are upstream errors.
func DoJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return Classify(fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Join(domain.ErrUpstream,
			fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body))))
	}

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return Classify(fmt.Errorf("%s %s: failed to decode response: %w", req.Method, req.URL.Path, err))
	}

	return nil
}
