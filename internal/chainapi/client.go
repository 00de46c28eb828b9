// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package chainapi implements client of the chain service serving address balances, utxos and broadcasting.
package chainapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/ord/inscriptions"
	"github.com/BoostyLabs/ordwallet/internal/logger"
)

const (
	// DefaultRetryCount defines how many times failed request is repeated.
	DefaultRetryCount = 3
	// DefaultTimeout defines request timeout.
	DefaultTimeout = 30 * time.Second
)

// Status of the service response.
const (
	StatusFailed  = 0
	StatusSuccess = 1
)

var (
	// ErrRequestFailed defines that request could not be completed.
	ErrRequestFailed = errors.New("chain service request failed")
	// ErrServiceFailed defines that service responded with failed status.
	ErrServiceFailed = errors.New("chain service returned failure")
)

// Config describes chain service connection.
type Config struct {
	URL        string
	Headers    map[string]string
	User       string
	Password   string
	Token      string
	RetryCount int
	RetryWait  time.Duration
	Timeout    time.Duration
}

// Client is a chain service client.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New is a constructor for Client.
func New(config Config, log zerolog.Logger) *Client {
	if config.RetryCount == 0 {
		config.RetryCount = DefaultRetryCount
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	log = logger.Component(log, logger.ComponentChainAPI)

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(config.URL, "/")).
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(config.Headers).
		SetLogger(logger.RestyAdapter(log)).
		SetRetryCount(config.RetryCount).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if config.RetryWait > 0 {
		client.SetRetryWaitTime(config.RetryWait).SetRetryMaxWaitTime(config.RetryWait)
	}
	if config.User != "" {
		client.SetBasicAuth(config.User, config.Password)
	}
	if config.Token != "" {
		client.SetAuthToken(config.Token)
	}

	return &Client{http: client, log: log}
}

// Balance describes address balance in satoshi.
type Balance struct {
	Confirmed btcutil.Amount `json:"confirmed"`
	Pending   btcutil.Amount `json:"pending"`
	Total     btcutil.Amount `json:"total"`
	USDValue  string         `json:"usdValue,omitempty"`
}

// balanceJSON is a balance representation of the service, amounts are in BTC.
type balanceJSON struct {
	ConfirmAmount string `json:"confirm_amount"`
	PendingAmount string `json:"pending_amount"`
	Amount        string `json:"amount"`
	USDValue      string `json:"usd_value"`
}

// Inscription describes inscription owned by the address.
type Inscription struct {
	ID     inscriptions.ID    `json:"id"`
	Number int64              `json:"num"`
	Detail *InscriptionDetail `json:"detail,omitempty"`
}

// InscriptionDetail describes inscription content and location.
type InscriptionDetail struct {
	Address       string `json:"address"`
	ContentType   string `json:"content_type"`
	ContentLength string `json:"content_length"`
	Location      string `json:"location"`
	Offset        string `json:"offset"`
	Output        string `json:"output"`
	OutputValue   string `json:"output_value"`
	Sat           string `json:"sat"`
	Timestamp     string `json:"timestamp"`
}

// TxHistoryItem describes recent address transaction.
type TxHistoryItem struct {
	TxID    string `json:"txid"`
	Time    int64  `json:"time"`
	Date    string `json:"date"`
	Amount  string `json:"amount"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

// FeeRate describes suggested fee rate option.
type FeeRate struct {
	Title   string  `json:"title"`
	Desc    string  `json:"desc"`
	FeeRate float64 `json:"feeRate"`
}

// FeeSummary describes suggested fee rates.
type FeeSummary struct {
	List []FeeRate `json:"list"`
}

// envelope describes service response.
type envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

// GetAddressUTXO returns unspent outputs of the address.
func (c *Client) GetAddressUTXO(ctx context.Context, address string) ([]bitcoin.UTXO, error) {
	utxos, err := get[[]bitcoin.UTXO](ctx, c, "/v2/address/utxo", map[string]string{"address": address})
	if err != nil {
		return nil, err
	}

	for i := range utxos {
		if utxos[i].Address == "" {
			utxos[i].Address = address
		}
	}

	c.log.Debug().Str("address", address).Int("utxos", len(utxos)).Msg("utxos fetched")

	return utxos, nil
}

// GetAddressBalance returns balance of the address.
func (c *Client) GetAddressBalance(ctx context.Context, address string) (Balance, error) {
	raw, err := get[balanceJSON](ctx, c, "/v2/address/balance", map[string]string{"address": address})
	if err != nil {
		return Balance{}, err
	}

	return raw.balance()
}

// GetMultiAddressBalance returns summary balance of the addresses.
func (c *Client) GetMultiAddressBalance(ctx context.Context, addresses []string) (Balance, error) {
	raw, err := get[balanceJSON](ctx, c, "/v2/address/multi-balance", map[string]string{"addresses": strings.Join(addresses, ",")})
	if err != nil {
		return Balance{}, err
	}

	return raw.balance()
}

// GetAddressInscriptions returns inscriptions owned by the address.
func (c *Client) GetAddressInscriptions(ctx context.Context, address string) ([]Inscription, error) {
	return get[[]Inscription](ctx, c, "/v2/address/inscriptions", map[string]string{"address": address})
}

// GetAddressRecentHistory returns recent transactions of the address.
func (c *Client) GetAddressRecentHistory(ctx context.Context, address string) ([]TxHistoryItem, error) {
	return get[[]TxHistoryItem](ctx, c, "/v1/address/recent-history", map[string]string{"address": address})
}

// GetFeeSummary returns suggested fee rates.
func (c *Client) GetFeeSummary(ctx context.Context) (FeeSummary, error) {
	return get[FeeSummary](ctx, c, "/v1/fee-summary", nil)
}

// PushTx broadcasts raw transaction, returns its id.
func (c *Client) PushTx(ctx context.Context, rawTx string) (string, error) {
	var result envelope[string]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"rawtx": rawTx}).
		SetResult(&result).
		Post("/v1/tx/broadcast")
	if err = checkResponse(resp, err, result.Status, result.Message); err != nil {
		return "", err
	}

	c.log.Info().Str("txid", result.Result).Msg("transaction broadcast")

	return result.Result, nil
}

func get[T any](ctx context.Context, c *Client, path string, query map[string]string) (T, error) {
	var result envelope[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(&result).
		Get(path)
	if err = checkResponse(resp, err, result.Status, result.Message); err != nil {
		var empty T
		return empty, err
	}

	return result.Result, nil
}

// checkResponse converts transport errors, error statuses and failed envelopes into errors.
func checkResponse(resp *resty.Response, err error, status int, message string) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrRequestFailed,
			resp.Request.Method, resp.Request.URL, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	if status == StatusFailed {
		return fmt.Errorf("%w: %s", ErrServiceFailed, message)
	}

	return nil
}

func (b balanceJSON) balance() (Balance, error) {
	var (
		balance = Balance{USDValue: b.USDValue}
		err     error
	)
	if balance.Confirmed, err = parseBTC(b.ConfirmAmount); err != nil {
		return Balance{}, err
	}
	if balance.Pending, err = parseBTC(b.PendingAmount); err != nil {
		return Balance{}, err
	}
	if balance.Total, err = parseBTC(b.Amount); err != nil {
		return Balance{}, err
	}

	return balance, nil
}

// parseBTC parses decimal BTC amount into satoshi.
func parseBTC(s string) (btcutil.Amount, error) {
	if s == "" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return btcutil.NewAmount(value)
}
