// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package walleterr

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code.
type Code string

const (
	// CodeInsufficientBalance defines that provided outputs can not cover amount and fee.
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	// CodeInscriptionNotFound defines that requested inscription is absent in provided outputs.
	CodeInscriptionNotFound Code = "INSCRIPTION_NOT_FOUND"
	// CodeUserRejected defines that user declined the confirmation.
	CodeUserRejected Code = "USER_REJECTED"
	// CodeSignatureValidationFailed defines that signed input failed script validation.
	CodeSignatureValidationFailed Code = "SIGNATURE_VALIDATION_FAILED"
	// CodeMalformedRequest defines that request data is inconsistent or invalid.
	CodeMalformedRequest Code = "MALFORMED_REQUEST"
)

// Stages of the transaction build.
const (
	StagePartition = "partition"
	StageSelect    = "select"
	StageFee       = "fee"
	StageFinalize  = "finalize"
	StageSign      = "sign"
	StageConfirm   = "confirm"
	StageRequest   = "request"
)

var (
	// ErrInsufficientBalance is a class error for errors.Is checks.
	ErrInsufficientBalance = &Error{Code: CodeInsufficientBalance}
	// ErrInscriptionNotFound is a class error for errors.Is checks.
	ErrInscriptionNotFound = &Error{Code: CodeInscriptionNotFound}
	// ErrUserRejected is a class error for errors.Is checks.
	ErrUserRejected = &Error{Code: CodeUserRejected}
	// ErrSignatureValidationFailed is a class error for errors.Is checks.
	ErrSignatureValidationFailed = &Error{Code: CodeSignatureValidationFailed}
	// ErrMalformedRequest is a class error for errors.Is checks.
	ErrMalformedRequest = &Error{Code: CodeMalformedRequest}
)

// Error describes failed wallet operation with code, originating stage and message.
type Error struct {
	Code    Code
	Stage   string
	Message string
	Err     error
}

// New is a constructor for Error.
func New(code Code, stage, format string, args ...any) *Error {
	return &Error{Code: code, Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err into Error with provided code and stage.
// If err already carries a stage, it is returned as is, a code carried by err wins over provided one.
func Wrap(code Code, stage string, err error) error {
	if err == nil {
		return nil
	}

	var werr *Error
	if errors.As(err, &werr) && werr.Stage != "" {
		return err
	}
	if errCode := CodeOf(err); errCode != "" {
		code = errCode
	}

	return &Error{Code: code, Stage: stage, Message: err.Error(), Err: err}
}

// Error returns error description.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Stage != "" {
		return e.Stage + ": " + msg
	}

	return msg
}

// Unwrap returns underlying error if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements comparator method for [errors] package, errors with equal codes are equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

// CodeOf returns error code of err, empty if err has no code.
func CodeOf(err error) Code {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Code
	}

	var coded interface{ WalletCode() Code }
	if errors.As(err, &coded) {
		return coded.WalletCode()
	}

	return ""
}
