// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/jessevdk/go-flags"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/bitcoin/txbuilder"
	"github.com/BoostyLabs/ordwallet/wallet"
)

// addCommands registers wallet commands.
func (a *app) addCommands(parser *flags.Parser) error {
	commands := []struct {
		name, short string
		data        flags.Commander
	}{
		{"accounts", "List wallet accounts", &accountsCommand{app: a}},
		{"utxos", "List unspent outputs", &utxosCommand{app: a}},
		{"balance", "Show balance", &balanceCommand{app: a}},
		{"inscriptions", "List inscriptions owned by address", &inscriptionsCommand{app: a}},
		{"history", "List recent transactions of address", &historyCommand{app: a}},
		{"fees", "Show suggested fee rates", &feesCommand{app: a}},
		{"send-btc", "Send bitcoin", &sendBTCCommand{app: a}},
		{"send-inscription", "Send inscription", &sendInscriptionCommand{app: a}},
		{"sign-psbt", "Sign PSBT inputs of the current account", &signPSBTCommand{app: a}},
		{"broadcast", "Broadcast raw transaction", &broadcastCommand{app: a}},
	}
	for _, command := range commands {
		if _, err := parser.AddCommand(command.name, command.short, command.short, command.data); err != nil {
			return err
		}
	}

	return nil
}

type accountsCommand struct {
	app *app
	Add bool `long:"add" description:"Add account with the next index"`
}

func (c *accountsCommand) Execute([]string) error {
	w := c.app.wallet(true)
	if c.Add {
		if _, err := w.AddNextAccount(); err != nil {
			return err
		}
	}

	accounts, err := w.Accounts()
	if err != nil {
		return err
	}

	return printJSON(accounts)
}

type utxosCommand struct {
	app     *app
	Address string `long:"address" description:"Address, current account when empty"`
}

func (c *utxosCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	utxos, err := c.app.wallet(true).GetAddressUTXO(ctx, c.Address)
	if err != nil {
		return err
	}

	return printJSON(utxos)
}

type balanceCommand struct {
	app        *app
	Address    string `long:"address" description:"Address, current account when empty"`
	NonOrdinal bool   `long:"non-ordinal" description:"Show amount of the current account not covered by inscriptions"`
}

func (c *balanceCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	w := c.app.wallet(true)
	if c.NonOrdinal {
		amount, err := w.NonOrdinalBalance(ctx)
		if err != nil {
			return err
		}

		return printJSON(map[string]btcutil.Amount{"nonOrdinal": amount})
	}

	balance, err := w.GetAddressBalance(ctx, c.Address)
	if err != nil {
		return err
	}

	return printJSON(balance)
}

type inscriptionsCommand struct {
	app     *app
	Address string `long:"address" description:"Address, current account when empty"`
}

func (c *inscriptionsCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	address, err := c.app.address(c.Address)
	if err != nil {
		return err
	}

	list, err := c.app.chain.GetAddressInscriptions(ctx, address)
	if err != nil {
		return err
	}

	return printJSON(list)
}

type historyCommand struct {
	app     *app
	Address string `long:"address" description:"Address, current account when empty"`
}

func (c *historyCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	address, err := c.app.address(c.Address)
	if err != nil {
		return err
	}

	history, err := c.app.chain.GetAddressRecentHistory(ctx, address)
	if err != nil {
		return err
	}

	return printJSON(history)
}

type feesCommand struct {
	app *app
}

func (c *feesCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	summary, err := c.app.chain.GetFeeSummary(ctx)
	if err != nil {
		return err
	}

	return printJSON(summary)
}

// SendOptions are options shared by send commands.
type SendOptions struct {
	FeeRate   float64 `long:"fee-rate" required:"yes" description:"Fee rate in sat/vB"`
	UTXOs     string  `long:"utxos" description:"JSON file with outputs to spend, current account outputs when empty"`
	Yes       bool    `long:"yes" short:"y" description:"Do not ask for confirmation"`
	Broadcast bool    `long:"broadcast" description:"Broadcast signed transaction"`
}

type sendBTCCommand struct {
	app        *app
	To         string `long:"to" required:"yes" description:"Recipient address"`
	Amount     int64  `long:"amount" required:"yes" description:"Amount in satoshi"`
	AutoAdjust bool   `long:"auto-adjust" description:"Deduct network fee from the amount"`
	SendOptions
}

func (c *sendBTCCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	utxos, err := readUTXOs(c.UTXOs)
	if err != nil {
		return err
	}

	w := c.app.wallet(c.Yes)
	signed, err := w.SendBTC(ctx, wallet.SendBTCRequest{
		To:         c.To,
		Amount:     btcutil.Amount(c.Amount),
		UTXOs:      utxos,
		AutoAdjust: c.AutoAdjust,
		FeeRate:    c.FeeRate,
	})
	if err != nil {
		return err
	}

	return c.app.finish(ctx, w, signed, c.Broadcast)
}

type sendInscriptionCommand struct {
	app         *app
	To          string `long:"to" required:"yes" description:"Recipient address"`
	Inscription string `long:"inscription" required:"yes" description:"Inscription id"`
	OutputValue int64  `long:"output-value" description:"Value of the output carrying inscription in satoshi"`
	SendOptions
}

func (c *sendInscriptionCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	id, err := inscriptions.NewIDFromString(c.Inscription)
	if err != nil {
		return err
	}

	utxos, err := readUTXOs(c.UTXOs)
	if err != nil {
		return err
	}

	w := c.app.wallet(c.Yes)
	signed, err := w.SendInscription(ctx, wallet.SendInscriptionRequest{
		To:            c.To,
		InscriptionID: *id,
		UTXOs:         utxos,
		FeeRate:       c.FeeRate,
		OutputValue:   btcutil.Amount(c.OutputValue),
	})
	if err != nil {
		return err
	}

	return c.app.finish(ctx, w, signed, c.Broadcast)
}

type signPSBTCommand struct {
	app      *app
	PSBT     string `long:"psbt" required:"yes" description:"Hex encoded PSBT"`
	Inputs   []int  `long:"input" description:"Index of input to sign, may be repeated"`
	Finalize bool   `long:"finalize" description:"Finalize signed inputs"`
	Yes      bool   `long:"yes" short:"y" description:"Do not ask for confirmation"`
}

func (c *signPSBTCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	signed, err := c.app.wallet(c.Yes).SignPSBT(ctx, wallet.SignPSBTRequest{
		PSBTHex:  c.PSBT,
		Inputs:   c.Inputs,
		Finalize: c.Finalize,
	})
	if err != nil {
		return err
	}

	return printJSON(map[string]string{"psbtHex": signed})
}

type broadcastCommand struct {
	app  *app
	Args struct {
		RawTx string `positional-arg-name:"rawtx" description:"Hex encoded signed transaction"`
	} `positional-args:"yes" required:"yes"`
}

func (c *broadcastCommand) Execute([]string) error {
	ctx, cancel := commandContext()
	defer cancel()

	txID, err := c.app.wallet(true).PushTx(ctx, c.Args.RawTx)
	if err != nil {
		return err
	}

	return printJSON(map[string]string{"txId": txID})
}

// finish prints signed transaction and broadcasts it if requested.
func (a *app) finish(ctx context.Context, w *wallet.Wallet, signed *txbuilder.SignedTx, broadcast bool) error {
	if broadcast {
		txID, err := w.PushTx(ctx, signed.RawTx)
		if err != nil {
			return err
		}

		a.log.Info().Str("txid", txID).Msg("broadcast")
	}

	return printJSON(signed)
}

// address returns address or current account address when empty.
func (a *app) address(address string) (string, error) {
	if address != "" {
		return address, nil
	}

	account, err := a.keyring.CurrentAccount()
	if err != nil {
		return "", err
	}

	return account.Address, nil
}

// readUTXOs reads outputs from JSON file, nil when path is empty.
func readUTXOs(path string) ([]bitcoin.UTXO, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var utxos []bitcoin.UTXO
	if err = json.Unmarshal(data, &utxos); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return utxos, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
