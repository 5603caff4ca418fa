// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package domain

import "errors"

var (
	// ErrNotFound defines absent campaign, output or record.
	ErrNotFound = errors.New("not found")
	// ErrPreconditionFailed defines request which can not be served in the current state,
	// e.g. no output covers required value or nothing to sweep.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrPriceUnavailable defines missing market quote required for service fee.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrUpstreamTimeout defines external call which did not respond in time, retryable.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstream defines failed external call.
	ErrUpstream = errors.New("upstream error")
	// ErrInternal defines invariant violation.
	ErrInternal = errors.New("internal error")
)
