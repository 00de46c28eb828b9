// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package txbuilder

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/BoostyLabs/ordwallet/bitcoin/walleterr"
)

type causerSign string

const (
	// CauserAmount defines that requested amount caused this error.
	CauserAmount causerSign = "amount"
	// CauserFee defines that network fee caused this error.
	CauserFee causerSign = "fee"
)

// InsufficientError is the error type to describe insufficient balance errors with details.
type InsufficientError struct {
	Need   btcutil.Amount
	Have   btcutil.Amount
	Causer causerSign
}

// NewInsufficientError is a constructor for InsufficientError.
func NewInsufficientError(need, have btcutil.Amount) *InsufficientError {
	return &InsufficientError{Need: need, Have: have}
}

// Shortfall returns amount of satoshi missing to build transaction.
func (e *InsufficientError) Shortfall() btcutil.Amount {
	if e.Need <= e.Have {
		return 0
	}

	return e.Need - e.Have
}

// Error returns error description.
func (e *InsufficientError) Error() string {
	errMsg := fmt.Sprintf("insufficient balance: need %d sat, have %d sat, short by %d sat (%s)",
		int64(e.Need), int64(e.Have), int64(e.Shortfall()), e.Shortfall())

	if e.Causer != "" {
		errMsg += " (" + string(e.Causer) + ")"
	}

	return errMsg
}

// Is implements comparator method for [errors] package.
func (e *InsufficientError) Is(target error) bool {
	switch t := target.(type) {
	case *InsufficientError:
		return t.Need == e.Need && t.Have == e.Have
	case *walleterr.Error:
		return t.Code == walleterr.CodeInsufficientBalance
	}

	return false
}

// WalletCode returns stable error code of insufficient balance.
func (e *InsufficientError) WalletCode() walleterr.Code {
	return walleterr.CodeInsufficientBalance
}

// setCauser updates InsufficientError with provided causer.
func (e *InsufficientError) setCauser(causer causerSign) *InsufficientError {
	e.Causer = causer
	return e
}
