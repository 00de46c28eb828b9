// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package keyring

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/BoostyLabs/ordwallet/bitcoin"
)

// ErrInvalidSignature defines that signature can not be parsed.
var ErrInvalidSignature = errors.New("invalid signature")

// signatureSize defines size of compact r || s signature.
const signatureSize = 64

// KeyMaterial holds secp256k1 key pair and signs with it.
type KeyMaterial struct {
	privateKey *btcec.PrivateKey
}

// NewKeyMaterial is a constructor for KeyMaterial.
func NewKeyMaterial(privateKey *btcec.PrivateKey) *KeyMaterial {
	return &KeyMaterial{privateKey: privateKey}
}

// PublicKey returns compressed public key.
func (k *KeyMaterial) PublicKey() []byte {
	return k.privateKey.PubKey().SerializeCompressed()
}

// PrivateKey returns underlying private key.
func (k *KeyMaterial) PrivateKey() *btcec.PrivateKey {
	return k.privateKey
}

// Sign returns compact r || s ECDSA signature of the hash.
func (k *KeyMaterial) Sign(hash []byte) []byte {
	sig := ecdsa.Sign(k.privateKey, hash)

	r, s := sig.R(), sig.S()
	rBytes, sBytes := r.Bytes(), s.Bytes()

	return append(rBytes[:], sBytes[:]...)
}

// Verify checks compact r || s ECDSA signature of the hash made by public key.
func Verify(publicKey, hash, signature []byte) (bool, error) {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false, err
	}
	if len(signature) != signatureSize {
		return false, ErrInvalidSignature
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return false, ErrInvalidSignature
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return false, ErrInvalidSignature
	}

	return ecdsa.NewSignature(&r, &s).Verify(hash, pubKey), nil
}

// Account is a key derived for one address type at one index.
type Account struct {
	*KeyMaterial
	Index       uint32
	AddressType bitcoin.AddressType
	Network     bitcoin.Network
	Address     string
}

// PublicKeyHex returns hex encoded compressed public key.
func (a *Account) PublicKeyHex() string {
	return hex.EncodeToString(a.PublicKey())
}

// SignMessage returns hex encoded signature of sha256 hash of the message.
func (a *Account) SignMessage(message string) string {
	hash := sha256.Sum256([]byte(message))

	return hex.EncodeToString(a.Sign(hash[:]))
}

// VerifyMessage checks hex encoded signature of sha256 hash of the message.
func VerifyMessage(publicKey []byte, message, signature string) (bool, error) {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false, ErrInvalidSignature
	}

	hash := sha256.Sum256([]byte(message))

	return Verify(publicKey, hash[:], sig)
}
