// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package timelock_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/staking/bitcoin/timelock"
)

func testPubKey(t *testing.T) string {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	return hex.EncodeToString(privKey.PubKey().SerializeCompressed())
}

func TestDeriver(t *testing.T) {
	pubKey := testPubKey(t)

	t.Run("deterministic", func(t *testing.T) {
		for _, scriptType := range []timelock.ScriptType{timelock.P2SH, timelock.P2WSH} {
			deriver := timelock.NewDeriver(&chaincfg.TestNet3Params, scriptType)

			lock1, err := deriver.Lock(pubKey, 850000)
			require.NoError(t, err)
			lock2, err := deriver.Lock(pubKey, 850000)
			require.NoError(t, err)

			require.Equal(t, lock1.Address.EncodeAddress(), lock2.Address.EncodeAddress())
			require.Equal(t, lock1.Script, lock2.Script)
			require.Equal(t, scriptType, lock1.Type)
		}
	})

	t.Run("distinct heights give distinct addresses", func(t *testing.T) {
		deriver := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2SH)

		lock1, err := deriver.Lock(pubKey, 850000)
		require.NoError(t, err)
		lock2, err := deriver.Lock(pubKey, 850001)
		require.NoError(t, err)

		require.NotEqual(t, lock1.Address.EncodeAddress(), lock2.Address.EncodeAddress())
		require.Equal(t, "3", lock1.Address.EncodeAddress()[:1])
	})

	t.Run("address kinds", func(t *testing.T) {
		p2sh, err := timelock.NewDeriver(&chaincfg.MainNetParams, "").Lock(pubKey, 100)
		require.NoError(t, err)
		require.Equal(t, txscript.ScriptHashTy, txscript.GetScriptClass(p2sh.PkScript))

		p2wsh, err := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2WSH).Lock(pubKey, 100)
		require.NoError(t, err)
		require.Equal(t, txscript.WitnessV0ScriptHashTy, txscript.GetScriptClass(p2wsh.PkScript))
	})

	t.Run("invalid heights", func(t *testing.T) {
		deriver := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2SH)

		_, err := deriver.Lock(pubKey, 0)
		require.ErrorIs(t, err, timelock.ErrInvalidLockHeight)

		_, err = deriver.Lock(pubKey, timelock.LockTimeThreshold)
		require.ErrorIs(t, err, timelock.ErrInvalidLockHeight)

		_, err = deriver.Lock(pubKey, timelock.LockTimeThreshold-1)
		require.NoError(t, err)
	})

	t.Run("invalid public key", func(t *testing.T) {
		deriver := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2SH)

		_, err := deriver.Lock("zz", 100)
		require.ErrorIs(t, err, timelock.ErrTimelock)

		_, err = deriver.Lock(pubKey[2:], 100)
		require.ErrorIs(t, err, timelock.ErrTimelock)
	})

	t.Run("staker address", func(t *testing.T) {
		deriver := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2SH)

		address, err := deriver.StakerAddress(pubKey)
		require.NoError(t, err)
		require.Equal(t, "bc1p", address.EncodeAddress()[:4])
	})
}

func TestParseLockScript(t *testing.T) {
	pubKey, err := hex.DecodeString(testPubKey(t))
	require.NoError(t, err)

	tests := []uint32{1, 16, 17, 127, 128, 255, 850000, timelock.LockTimeThreshold - 1}
	for _, height := range tests {
		script := timelock.MustLockScript(pubKey, height)

		parsedKey, parsedHeight, err := timelock.ParseLockScript(script)
		require.NoError(t, err)
		require.Equal(t, pubKey, parsedKey)
		require.Equal(t, height, parsedHeight)
		require.True(t, timelock.IsLockScript(script))
	}

	t.Run("not a lock script", func(t *testing.T) {
		script, err := txscript.NewScriptBuilder().AddData(pubKey).AddOp(txscript.OP_CHECKSIG).Script()
		require.NoError(t, err)
		require.False(t, timelock.IsLockScript(script))
		require.False(t, timelock.IsLockScript(nil))
	})
}

func TestLockSpend(t *testing.T) {
	pubKey := testPubKey(t)
	signature := []byte{0x30, 0x01, 0x02, 0x01}

	t.Run("p2sh", func(t *testing.T) {
		lock, err := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2SH).Lock(pubKey, 1000)
		require.NoError(t, err)

		sigScript, witness, err := lock.Spend(signature)
		require.NoError(t, err)
		require.Nil(t, witness)

		pushes, err := txscript.PushedData(sigScript)
		require.NoError(t, err)
		require.Equal(t, [][]byte{signature, lock.Script}, pushes)
	})

	t.Run("p2wsh", func(t *testing.T) {
		lock, err := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2WSH).Lock(pubKey, 1000)
		require.NoError(t, err)

		sigScript, witness, err := lock.Spend(signature)
		require.NoError(t, err)
		require.Nil(t, sigScript)
		require.Equal(t, [][]byte{signature, lock.Script}, witness)
	})

	t.Run("restored from script", func(t *testing.T) {
		lock, err := timelock.NewDeriver(&chaincfg.MainNetParams, timelock.P2WSH).Lock(pubKey, 1000)
		require.NoError(t, err)

		restored, err := timelock.LockFromScript(lock.Script, timelock.P2WSH, &chaincfg.MainNetParams)
		require.NoError(t, err)
		require.Equal(t, lock.Address.EncodeAddress(), restored.Address.EncodeAddress())
	})
}
