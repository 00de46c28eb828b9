// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package wallet_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/keyring"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/txbuilder"
	"github.com/BoostyLabs/ordwallet/bitcoin/utils"
	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
	"github.com/BoostyLabs/ordwallet/internal/chainapi"
	"github.com/BoostyLabs/ordwallet/internal/storage"
	"github.com/BoostyLabs/ordwallet/wallet"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// env holds wallet with its mocked collaborators.
type env struct {
	wallet    *wallet.Wallet
	keyring   *keyring.Keyring
	account   *keyring.Account
	script    []byte
	chain     *mockChain
	confirmer *mockConfirmer
	store     *mockStore
	recipient string
	recScript []byte
}

func newEnv(t *testing.T) env {
	t.Helper()

	return newEnvWithType(t, bitcoin.AddressTypeP2TR)
}

func newEnvWithType(t *testing.T, addressType bitcoin.AddressType) env {
	t.Helper()

	kr, err := keyring.NewFromMnemonic(testMnemonic, "", keyring.Config{
		Network:     bitcoin.NetworkTestnet,
		AddressType: addressType,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	_, err = kr.AddAccount(0)
	require.NoError(t, err)

	account, err := kr.CurrentAccount()
	require.NoError(t, err)

	script, err := utils.AddressToScript(account.Address, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	recipient, err := utils.PublicKeyToAddress(privKey.PubKey(), bitcoin.AddressTypeP2WPKH, &chaincfg.TestNet3Params)
	require.NoError(t, err)

	recScript, err := txscript.PayToAddrScript(recipient)
	require.NoError(t, err)

	e := env{
		keyring:   kr,
		account:   account,
		script:    script,
		chain:     new(mockChain),
		confirmer: new(mockConfirmer),
		store:     new(mockStore),
		recipient: recipient.EncodeAddress(),
		recScript: recScript,
	}
	e.wallet = wallet.New(kr, e.chain, e.confirmer, e.store, wallet.Config{Network: bitcoin.NetworkTestnet}, zerolog.Nop())

	t.Cleanup(func() {
		e.chain.AssertExpectations(t)
		e.confirmer.AssertExpectations(t)
		e.store.AssertExpectations(t)
	})

	return e
}

func (e env) utxo(n byte, amount btcutil.Amount, inscriptions ...bitcoin.InscriptionUTXO) bitcoin.UTXO {
	return bitcoin.UTXO{
		TxHash:       chainhash.Hash{n}.String(),
		Index:        uint32(n),
		Amount:       amount,
		Script:       e.script,
		AddressType:  e.account.AddressType,
		Inscriptions: inscriptions,
	}
}

func (e env) expectConfirm(title string, ok bool) {
	e.confirmer.On("Confirm", mock.Anything, mock.MatchedBy(func(p wallet.Prompt) bool {
		return p.Title == title
	})).Return(ok, nil).Once()
}

func inscriptionAt(offset btcutil.Amount) bitcoin.InscriptionUTXO {
	id := inscriptions.MustIDFromString("521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0")

	return bitcoin.InscriptionUTXO{ID: id, Number: 1, Offset: offset}
}

func decodeTx(t *testing.T, rawTx string) *wire.MsgTx {
	t.Helper()

	raw, err := hex.DecodeString(rawTx)
	require.NoError(t, err)

	tx := new(wire.MsgTx)
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))

	return tx
}

func TestSendBTC(t *testing.T) {
	ctx := context.Background()

	t.Run("provided outputs", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)

		signed, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{
			To:      e.recipient,
			Amount:  50000,
			UTXOs:   []bitcoin.UTXO{e.utxo(1, 100000)},
			FeeRate: 10,
		})
		require.NoError(t, err)
		require.Equal(t, txbuilder.TxTypeSendBitcoin, signed.TxType)

		tx := decodeTx(t, signed.RawTx)
		require.Equal(t, signed.TxID, tx.TxHash().String())
		require.Len(t, tx.TxOut, 2)
		require.Equal(t, e.recScript, tx.TxOut[0].PkScript)
		require.EqualValues(t, 50000, tx.TxOut[0].Value)
		require.Equal(t, e.script, tx.TxOut[1].PkScript)
		require.EqualValues(t, 50000-int64(signed.Fee), tx.TxOut[1].Value)
	})

	t.Run("outputs fetched", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)
		e.chain.On("GetAddressUTXO", mock.Anything, e.account.Address).
			Return([]bitcoin.UTXO{e.utxo(1, 30000), e.utxo(2, 30000)}, nil).Once()

		signed, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{To: e.recipient, Amount: 40000, FeeRate: 2})
		require.NoError(t, err)
		require.Len(t, decodeTx(t, signed.RawTx).TxIn, 2)
	})

	t.Run("auto adjust", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)

		signed, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{
			To:         e.recipient,
			Amount:     100000,
			UTXOs:      []bitcoin.UTXO{e.utxo(1, 100000)},
			AutoAdjust: true,
			FeeRate:    5,
		})
		require.NoError(t, err)

		tx := decodeTx(t, signed.RawTx)
		require.Len(t, tx.TxOut, 1)
		require.EqualValues(t, 100000-int64(signed.Fee), tx.TxOut[0].Value)
	})

	t.Run("rejected", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", false)

		_, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{To: e.recipient, Amount: 1000, FeeRate: 1})
		require.ErrorIs(t, err, walleterr.ErrUserRejected)
		require.Equal(t, walleterr.CodeUserRejected, walleterr.CodeOf(err))
		e.chain.AssertNotCalled(t, "GetAddressUTXO", mock.Anything, mock.Anything)
	})

	t.Run("confirmation canceled", func(t *testing.T) {
		e := newEnv(t)
		w := wallet.New(e.keyring, e.chain, wallet.AutoConfirmer(true), e.store,
			wallet.Config{Network: bitcoin.NetworkTestnet}, zerolog.Nop())

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := w.SendBTC(canceled, wallet.SendBTCRequest{To: e.recipient, Amount: 1000, FeeRate: 1})
		require.ErrorIs(t, err, walleterr.ErrUserRejected)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("recipient of another network", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{
			To:      "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
			Amount:  1000,
			FeeRate: 1,
		})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
		e.confirmer.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
	})

	t.Run("undecodable output script", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)

		utxo := e.utxo(1, 100000)
		utxo.Script = []byte{txscript.OP_RETURN}

		_, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{
			To:      e.recipient,
			Amount:  1000,
			UTXOs:   []bitcoin.UTXO{utxo},
			FeeRate: 1,
		})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
	})

	t.Run("insufficient", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)

		_, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{
			To:      e.recipient,
			Amount:  200000,
			UTXOs:   []bitcoin.UTXO{e.utxo(1, 100000)},
			FeeRate: 1,
		})
		require.ErrorIs(t, err, walleterr.ErrInsufficientBalance)
	})

	t.Run("chain failure", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send BTC", true)
		e.chain.On("GetAddressUTXO", mock.Anything, e.account.Address).
			Return(nil, chainapi.ErrRequestFailed).Once()

		_, err := e.wallet.SendBTC(ctx, wallet.SendBTCRequest{To: e.recipient, Amount: 1000, FeeRate: 1})
		require.ErrorIs(t, err, chainapi.ErrRequestFailed)
	})
}

func TestSendInscription(t *testing.T) {
	ctx := context.Background()
	id := inscriptionAt(0).ID

	t.Run("default output value", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send Inscription", true)

		signed, err := e.wallet.SendInscription(ctx, wallet.SendInscriptionRequest{
			To:            e.recipient,
			InscriptionID: id,
			UTXOs:         []bitcoin.UTXO{e.utxo(1, 10000, inscriptionAt(0)), e.utxo(2, 20000)},
			FeeRate:       2,
		})
		require.NoError(t, err)
		require.Equal(t, txbuilder.TxTypeSendInscription, signed.TxType)

		tx := decodeTx(t, signed.RawTx)
		require.Equal(t, e.recScript, tx.TxOut[0].PkScript)
		require.EqualValues(t, bitcoin.DustAmount, tx.TxOut[0].Value)
	})

	t.Run("not found", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send Inscription", true)

		_, err := e.wallet.SendInscription(ctx, wallet.SendInscriptionRequest{
			To:            e.recipient,
			InscriptionID: id,
			UTXOs:         []bitcoin.UTXO{e.utxo(2, 20000)},
			FeeRate:       2,
		})
		require.ErrorIs(t, err, walleterr.ErrInscriptionNotFound)
	})

	t.Run("rejected", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Send Inscription", false)

		_, err := e.wallet.SendInscription(ctx, wallet.SendInscriptionRequest{
			To:            e.recipient,
			InscriptionID: id,
			FeeRate:       2,
		})
		require.ErrorIs(t, err, walleterr.ErrUserRejected)
	})
}

func TestWalletQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("non ordinal balance", func(t *testing.T) {
		e := newEnv(t)
		e.chain.On("GetAddressUTXO", mock.Anything, e.account.Address).
			Return([]bitcoin.UTXO{e.utxo(1, 1000), e.utxo(2, 10000, inscriptionAt(4000))}, nil).Once()

		balance, err := e.wallet.NonOrdinalBalance(ctx)
		require.NoError(t, err)
		require.Equal(t, btcutil.Amount(5000), balance)
	})

	t.Run("balance of address", func(t *testing.T) {
		e := newEnv(t)
		e.chain.On("GetAddressBalance", mock.Anything, e.recipient).
			Return(chainapi.Balance{Total: 7}, nil).Once()

		balance, err := e.wallet.GetAddressBalance(ctx, e.recipient)
		require.NoError(t, err)
		require.Equal(t, btcutil.Amount(7), balance.Total)
	})

	t.Run("push tx", func(t *testing.T) {
		e := newEnv(t)
		e.chain.On("PushTx", mock.Anything, "0200").Return("txid", nil).Once()

		txID, err := e.wallet.PushTx(ctx, "0200")
		require.NoError(t, err)
		require.Equal(t, "txid", txID)

		_, err = e.wallet.PushTx(ctx, "zz")
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
	})

	t.Run("add next account", func(t *testing.T) {
		e := newEnv(t)
		e.store.On("SaveKeyring", storage.KeyringRecord{
			Indexes:      []uint32{0, 1},
			CurrentIndex: 0,
			AddressType:  "P2TR",
		}).Return(nil).Once()

		index, err := e.wallet.AddNextAccount()
		require.NoError(t, err)
		require.EqualValues(t, 1, index)

		accounts, err := e.wallet.Accounts()
		require.NoError(t, err)
		require.Len(t, accounts, 2)
	})

	t.Run("add next account persist failure", func(t *testing.T) {
		e := newEnv(t)
		e.store.On("SaveKeyring", mock.Anything).Return(errors.New("disk full")).Once()

		_, err := e.wallet.AddNextAccount()
		require.Error(t, err)
	})

	t.Run("sign message", func(t *testing.T) {
		e := newEnv(t)

		signature, err := e.wallet.SignMessage("hello")
		require.NoError(t, err)

		ok, err := e.wallet.VerifyMessage(e.account.PublicKey(), "hello", signature)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = e.wallet.VerifyMessage(e.account.PublicKey(), "bye", signature)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestSignPSBT(t *testing.T) {
	ctx := context.Background()

	newPacket := func(t *testing.T, script []byte, amount int64) string {
		t.Helper()

		tx := wire.NewMsgTx(2)
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{7}, 0), nil, nil))
		tx.AddTxOut(wire.NewTxOut(amount-500, script))

		packet, err := psbt.NewFromUnsignedTx(tx)
		require.NoError(t, err)
		packet.Inputs[0].WitnessUtxo = wire.NewTxOut(amount, script)

		var buf bytes.Buffer
		require.NoError(t, packet.Serialize(&buf))

		return hex.EncodeToString(buf.Bytes())
	}

	t.Run("sign and finalize", func(t *testing.T) {
		for _, addressType := range bitcoin.AddressTypes {
			t.Run(addressType.String(), func(t *testing.T) {
				e := newEnvWithType(t, addressType)
				e.expectConfirm("Sign PSBT", true)

				signedHex, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{
					PSBTHex:  newPacket(t, e.script, 10000),
					Finalize: true,
				})
				require.NoError(t, err)

				raw, err := hex.DecodeString(signedHex)
				require.NoError(t, err)

				packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
				require.NoError(t, err)
				require.True(t, packet.IsComplete())

				tx, err := psbt.Extract(packet)
				require.NoError(t, err)
				if addressType.ScriptType() == bitcoin.AddressTypeP2PKH {
					require.NotEmpty(t, tx.TxIn[0].SignatureScript)
					require.Empty(t, tx.TxIn[0].Witness)
				}

				prevOut := wire.NewTxOut(10000, e.script)
				fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
				vm, err := txscript.NewEngine(prevOut.PkScript, tx, 0, txscript.StandardVerifyFlags,
					nil, txscript.NewTxSigHashes(tx, fetcher), prevOut.Value, fetcher)
				require.NoError(t, err)
				require.NoError(t, vm.Execute())
			})
		}
	})

	t.Run("sign only", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Sign PSBT", true)

		signedHex, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{
			PSBTHex: newPacket(t, e.script, 10000),
			Inputs:  []int{0},
		})
		require.NoError(t, err)

		raw, err := hex.DecodeString(signedHex)
		require.NoError(t, err)

		packet, err := psbt.NewFromRawBytes(bytes.NewReader(raw), false)
		require.NoError(t, err)
		require.Len(t, packet.Inputs[0].TaprootKeySpendSig, 64)
		require.False(t, packet.IsComplete())
	})

	t.Run("no inputs of the account", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{PSBTHex: newPacket(t, e.recScript, 10000)})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
	})

	t.Run("input out of range", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{
			PSBTHex: newPacket(t, e.script, 10000),
			Inputs:  []int{1},
		})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
	})

	t.Run("malformed", func(t *testing.T) {
		e := newEnv(t)

		_, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{PSBTHex: "zz"})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)

		_, err = e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{PSBTHex: "0011"})
		require.ErrorIs(t, err, walleterr.ErrMalformedRequest)
	})

	t.Run("rejected", func(t *testing.T) {
		e := newEnv(t)
		e.expectConfirm("Sign PSBT", false)

		_, err := e.wallet.SignPSBT(ctx, wallet.SignPSBTRequest{PSBTHex: newPacket(t, e.script, 10000)})
		require.ErrorIs(t, err, walleterr.ErrUserRejected)
	})
}
