// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package wallet_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/internal/chainapi"
	"github.com/BoostyLabs/ordwallet/internal/storage"
	"github.com/BoostyLabs/ordwallet/wallet"
)

type mockChain struct {
	mock.Mock
}

func (m *mockChain) GetAddressUTXO(ctx context.Context, address string) ([]bitcoin.UTXO, error) {
	args := m.Called(ctx, address)
	utxos, _ := args.Get(0).([]bitcoin.UTXO)

	return utxos, args.Error(1)
}

func (m *mockChain) GetAddressBalance(ctx context.Context, address string) (chainapi.Balance, error) {
	args := m.Called(ctx, address)

	return args.Get(0).(chainapi.Balance), args.Error(1)
}

func (m *mockChain) PushTx(ctx context.Context, rawTx string) (string, error) {
	args := m.Called(ctx, rawTx)

	return args.String(0), args.Error(1)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) Confirm(ctx context.Context, prompt wallet.Prompt) (bool, error) {
	args := m.Called(ctx, prompt)

	return args.Bool(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveKeyring(record storage.KeyringRecord) error {
	return m.Called(record).Error(0)
}
