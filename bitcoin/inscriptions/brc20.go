// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotBRC20 defines that inscription content is not a brc-20 operation.
var ErrNotBRC20 = errors.New("inscription is not a brc-20 operation")

const (
	// BRC20Protocol defines value of the protocol field of brc-20 operations.
	BRC20Protocol = "brc-20"
	// BRC20OpTransfer defines transfer operation, transfer inscription moves balance with itself.
	BRC20OpTransfer = "transfer"
)

// BRC20Operation describes brc-20 operation inscribed as JSON body.
type BRC20Operation struct {
	Protocol string `json:"p"`
	Op       string `json:"op"`
	Tick     string `json:"tick"`
	Amount   string `json:"amt"`
}

// BRC20 decodes inscription body as brc-20 operation.
func (i *Inscription) BRC20() (*BRC20Operation, error) {
	mediaType, _, _ := strings.Cut(i.ContentType, ";")
	switch strings.TrimSpace(mediaType) {
	case "text/plain", "application/json":
	default:
		return nil, fmt.Errorf("%w: content type %q", ErrNotBRC20, i.ContentType)
	}
	if i.ContentEncoding != "" {
		return nil, fmt.Errorf("%w: content encoding %q", ErrNotBRC20, i.ContentEncoding)
	}

	var operation BRC20Operation
	if err := json.NewDecoder(bytes.NewReader(i.Body)).Decode(&operation); err != nil {
		return nil, errors.Join(ErrNotBRC20, err)
	}
	if operation.Protocol != BRC20Protocol || operation.Op == "" || operation.Tick == "" {
		return nil, ErrNotBRC20
	}

	return &operation, nil
}

// IsTransfer returns true for transfer operation of the tick, tick is case-insensitive.
func (op *BRC20Operation) IsTransfer(tick string) bool {
	return op.Op == BRC20OpTransfer && strings.EqualFold(op.Tick, tick)
}
