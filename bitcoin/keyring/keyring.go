// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package keyring

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/tyler-smith/go-bip39"

	"github.com/BoostyLabs/ordwallet/bitcoin"
	"github.com/BoostyLabs/ordwallet/bitcoin/signer"
	"github.com/BoostyLabs/ordwallet/bitcoin/txbuilder"
	"github.com/BoostyLabs/ordwallet/bitcoin/utils"
)

const (
	// MnemonicEntropyBits is the entropy size for 12-word mnemonics.
	MnemonicEntropyBits = 128
	// defaultCacheSize defines amount of derived accounts kept in memory.
	defaultCacheSize = 256
)

var (
	// ErrInvalidMnemonic defines that mnemonic has wrong words or checksum.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	// ErrAccountNotFound defines that keyring has no account for the public key.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNoAccounts defines that keyring has no accounts.
	ErrNoAccounts = errors.New("no accounts")
)

// Config describes keyring derivation settings.
type Config struct {
	Network     bitcoin.Network
	CoinType    uint32
	AddressType bitcoin.AddressType // address type of the current account.
	CacheSize   int
	Logger      zerolog.Logger
}

// AddressInfo describes address of the account.
type AddressInfo struct {
	PublicKey   string `json:"publicKey"`
	Network     string `json:"network"`
	AddressType string `json:"addressType"`
	Address     string `json:"address"`
	Index       uint32 `json:"index"`
}

// AccountInfo describes addresses of all types derived at one index.
type AccountInfo struct {
	Index     uint32        `json:"index"`
	Addresses []AddressInfo `json:"addresses"`
}

// Keyring derives accounts from BIP-39 seed along m/<purpose>'/<coin>'/0'/0/<index>
// and signs with them. Keyring is safe for concurrent use.
type Keyring struct {
	master   *hdkeychain.ExtendedKey
	config   Config
	accounts *lru.Cache[string, *Account] // keyed by hex public key.

	mu      sync.Mutex
	indexes []uint32
	current uint32
}

// GenerateMnemonic creates a new 12-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}

	return bip39.NewMnemonic(entropy)
}

// NewFromMnemonic derives seed from mnemonic and passphrase and uses New.
func NewFromMnemonic(mnemonic, passphrase string, config Config) (*Keyring, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}

	return New(seed, config)
}

// New is a constructor for Keyring.
func New(seed []byte, config Config) (*Keyring, error) {
	if !config.AddressType.IsValid() {
		return nil, fmt.Errorf("invalid address type %d", config.AddressType)
	}
	if config.CacheSize <= 0 {
		config.CacheSize = defaultCacheSize
	}

	master, err := hdkeychain.NewMaster(seed, config.Network.Params())
	if err != nil {
		return nil, err
	}

	accounts, err := lru.New[string, *Account](config.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Keyring{master: master, config: config, accounts: accounts}, nil
}

// AddAccount adds account with provided index, returns false if it already exists.
func (k *Keyring) AddAccount(index uint32) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.addAccount(index)
}

// AddNextAccount adds account with index following the highest one.
func (k *Keyring) AddNextAccount() (uint32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	index := k.nextIndex()
	_, err := k.addAccount(index)

	return index, err
}

// NextIndex returns index following the highest one.
func (k *Keyring) NextIndex() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.nextIndex()
}

// Indexes returns indexes of added accounts.
func (k *Keyring) Indexes() []uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return slices.Clone(k.indexes)
}

// SetCurrent selects account index and address type used by CurrentAccount.
func (k *Keyring) SetCurrent(index uint32, addressType bitcoin.AddressType) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !slices.Contains(k.indexes, index) {
		return fmt.Errorf("%w: index %d", ErrAccountNotFound, index)
	}
	if !addressType.IsValid() {
		return fmt.Errorf("invalid address type %d", addressType)
	}

	k.current, k.config.AddressType = index, addressType

	return nil
}

// CurrentAccount returns selected account.
func (k *Keyring) CurrentAccount() (*Account, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.indexes) == 0 {
		return nil, ErrNoAccounts
	}

	return k.derive(k.current, k.config.AddressType)
}

// Accounts returns addresses of all types for every added index.
func (k *Keyring) Accounts() ([]AccountInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	infos := make([]AccountInfo, 0, len(k.indexes))
	for _, index := range k.indexes {
		info := AccountInfo{Index: index, Addresses: make([]AddressInfo, 0, len(bitcoin.AddressTypes))}
		for _, addressType := range bitcoin.AddressTypes {
			account, err := k.derive(index, addressType)
			if err != nil {
				return nil, err
			}

			info.Addresses = append(info.Addresses, AddressInfo{
				PublicKey:   account.PublicKeyHex(),
				Network:     account.Network.String(),
				AddressType: addressType.Name(),
				Address:     account.Address,
				Index:       index,
			})
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// Account returns account owning the public key.
func (k *Keyring) Account(publicKey []byte) (*Account, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.account(publicKey)
}

// RemoveAccount removes index holding the public key.
func (k *Keyring) RemoveAccount(publicKey []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	account, err := k.account(publicKey)
	if err != nil {
		return err
	}

	k.indexes = slices.DeleteFunc(k.indexes, func(index uint32) bool { return index == account.Index })
	k.accounts.Purge()
	if k.current == account.Index && len(k.indexes) > 0 {
		k.current = k.indexes[0]
	}

	k.config.Logger.Info().Uint32("index", account.Index).Msg("account removed")

	return nil
}

// SignInput signs packet input with key of the account owning request public key.
func (k *Keyring) SignInput(ctx context.Context, req txbuilder.SignInputRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	account, err := k.Account(req.PublicKey)
	if err != nil {
		return err
	}
	if req.InputIndex < 0 || req.InputIndex >= len(req.Packet.Inputs) {
		return signer.ErrInvalidInputIndex
	}

	input := &req.Packet.Inputs[req.InputIndex]
	input.SighashType = req.SigHashType
	if len(req.TapMerkleRoot) > 0 {
		input.TaprootMerkleRoot = req.TapMerkleRoot
	}

	return signer.SignInput(req.Packet, req.InputIndex, account.PrivateKey())
}

// SignMessage signs message with key of the account owning public key.
func (k *Keyring) SignMessage(publicKey []byte, message string) (string, error) {
	account, err := k.Account(publicKey)
	if err != nil {
		return "", err
	}

	return account.SignMessage(message), nil
}

// VerifySignature checks signature of the hash made by public key.
func (k *Keyring) VerifySignature(hash, publicKey, signature []byte) (bool, error) {
	return Verify(publicKey, hash, signature)
}

// addAccount derives account keys and adds index if absent.
func (k *Keyring) addAccount(index uint32) (bool, error) {
	if slices.Contains(k.indexes, index) {
		return false, nil
	}

	for _, addressType := range bitcoin.AddressTypes {
		if _, err := k.derive(index, addressType); err != nil {
			return false, err
		}
	}

	if len(k.indexes) == 0 {
		k.current = index
	}
	k.indexes = append(k.indexes, index)
	k.config.Logger.Info().Uint32("index", index).Msg("account added")

	return true, nil
}

// nextIndex returns index following the highest one.
func (k *Keyring) nextIndex() uint32 {
	if len(k.indexes) == 0 {
		return 0
	}

	return slices.Max(k.indexes) + 1
}

// account looks up the account in cache, derives all added accounts on miss.
func (k *Keyring) account(publicKey []byte) (*Account, error) {
	key := hex.EncodeToString(publicKey)
	if account, ok := k.accounts.Get(key); ok && slices.Contains(k.indexes, account.Index) {
		return account, nil
	}

	for _, index := range k.indexes {
		for _, addressType := range bitcoin.AddressTypes {
			account, err := k.derive(index, addressType)
			if err != nil {
				return nil, err
			}

			if bytes.Equal(account.PublicKey(), publicKey) {
				return account, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
}

// derive derives account of address type at index.
func (k *Keyring) derive(index uint32, addressType bitcoin.AddressType) (*Account, error) {
	path := []uint32{
		hdkeychain.HardenedKeyStart + addressType.Purpose(),
		hdkeychain.HardenedKeyStart + k.config.CoinType,
		hdkeychain.HardenedKeyStart,
		0,
		index,
	}

	var (
		key = k.master
		err error
	)
	for _, child := range path {
		key, err = key.Derive(child)
		if err != nil {
			return nil, err
		}
	}

	privateKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}

	address, err := utils.PublicKeyToAddress(privateKey.PubKey(), addressType, k.config.Network.Params())
	if err != nil {
		return nil, err
	}

	account := &Account{
		KeyMaterial: NewKeyMaterial(privateKey),
		Index:       index,
		AddressType: addressType,
		Network:     k.config.Network,
		Address:     address.EncodeAddress(),
	}

	cacheKey := account.PublicKeyHex()
	if _, ok := k.accounts.Get(cacheKey); !ok {
		k.accounts.Add(cacheKey, account)
	}

	return account, nil
}
