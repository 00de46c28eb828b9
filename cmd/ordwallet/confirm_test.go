// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BoostyLabs/ordwallet/wallet"
)

func TestConfirm(t *testing.T) {
	t.Run("answers", func(t *testing.T) {
		tests := []struct {
			answer string
			yes    bool
		}{
			{"y\n", true},
			{" YES \n", true},
			{"n\n", false},
			{"\n", false},
			{"", false},
			{"yep\n", false},
		}
		for _, test := range tests {
			require.Equal(t, test.yes, isYes(test.answer), test.answer)
		}
	})

	t.Run("prompt", func(t *testing.T) {
		var buf bytes.Buffer
		writePrompt(&buf, wallet.Prompt{
			Title:       "Send BTC",
			Description: "Send 0.0005 BTC",
			Fields:      []wallet.Field{{Name: "to", Value: "tb1q"}},
		})

		require.Contains(t, buf.String(), "Send BTC\nSend 0.0005 BTC\n")
		require.Contains(t, buf.String(), "to:")
		require.Contains(t, buf.String(), "tb1q")
		require.Contains(t, buf.String(), "[y/N]")
	})

	t.Run("not interactive", func(t *testing.T) {
		in, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
		require.NoError(t, err)
		defer func() { require.NoError(t, in.Close()) }()

		var out bytes.Buffer
		ok, err := newTerminalConfirmer(in, &out).Confirm(context.Background(), wallet.Prompt{Title: "Send BTC"})
		require.ErrorIs(t, err, errNotInteractive)
		require.False(t, ok)
		require.Zero(t, out.Len())
	})
}

func TestReadUTXOs(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path", func(t *testing.T) {
		utxos, err := readUTXOs("")
		require.NoError(t, err)
		require.Nil(t, utxos)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "utxos.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{
			"txId": "0f3b7b0b1e3e1d6f8a2e27d9b5d8c1a27f7b7ad26c1d0bbf0d0e1e6f9ab7c123",
			"outputIndex": 2,
			"satoshis": 10000,
			"scriptPk": "0014c0cebcd6c3d3ca8c75dc5ec62ebe55330ef910e2",
			"addressType": 1,
			"inscriptions": []
		}]`), 0o600))

		utxos, err := readUTXOs(path)
		require.NoError(t, err)
		require.Len(t, utxos, 1)
		require.EqualValues(t, 2, utxos[0].Index)
		require.EqualValues(t, 10000, utxos[0].Amount)
		require.Len(t, utxos[0].Script, 22)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

		_, err := readUTXOs(path)
		require.Error(t, err)

		_, err = readUTXOs(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
	})
}
