// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin/inscriptions"
)

func TestBRC20(t *testing.T) {
	tests := []struct {
		name        string
		inscription inscriptions.Inscription
		invalid     bool
		transfer    bool
	}{
		{
			name:        "transfer",
			inscription: inscriptions.Inscription{ContentType: "text/plain;charset=utf-8", Body: []byte(`{"p":"brc-20","op":"transfer","tick":"ORDI","amt":"1000"}`)},
			transfer:    true,
		},
		{
			name:        "json content type",
			inscription: inscriptions.Inscription{ContentType: "application/json", Body: []byte(`{"p":"brc-20","op":"transfer","tick":"ordi","amt":"5"}`)},
			transfer:    true,
		},
		{
			name:        "mint",
			inscription: inscriptions.Inscription{ContentType: "text/plain", Body: []byte(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1000"}`)},
		},
		{
			name:        "other tick",
			inscription: inscriptions.Inscription{ContentType: "text/plain", Body: []byte(`{"p":"brc-20","op":"transfer","tick":"sats","amt":"1000"}`)},
		},
		{
			name:        "other protocol",
			inscription: inscriptions.Inscription{ContentType: "text/plain", Body: []byte(`{"p":"orc-20","op":"transfer","tick":"ordi","amt":"1"}`)},
			invalid:     true,
		},
		{
			name:        "image",
			inscription: inscriptions.Inscription{ContentType: "image/png", Body: []byte{0x89, 'P', 'N', 'G'}},
			invalid:     true,
		},
		{
			name:        "compressed",
			inscription: inscriptions.Inscription{ContentType: "text/plain", ContentEncoding: "br", Body: []byte{0x0b}},
			invalid:     true,
		},
		{
			name:        "not json",
			inscription: inscriptions.Inscription{ContentType: "text/plain", Body: []byte("hello")},
			invalid:     true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			operation, err := test.inscription.BRC20()
			if test.invalid {
				require.ErrorIs(t, err, inscriptions.ErrNotBRC20)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.transfer, operation.IsTransfer("ordi"))
		})
	}
}
