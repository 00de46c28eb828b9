// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// idSeparator defines separator between TxID and Index in inscription ID.
const idSeparator string = "i"

// ErrInvalidID defines that inscription ID has invalid format.
var ErrInvalidID = errors.New("invalid inscription ID")

// ID describes inscription identifier.
type ID struct {
	TxID  *chainhash.Hash // Reveal transaction ID.
	Index uint32          // The index of new inscriptions being inscribed in the reveal transaction.
}

// NewIDFromString parses inscription ID from string.
func NewIDFromString(idStr string) (*ID, error) {
	parts := strings.Split(idStr, idSeparator)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, idStr)
	}

	if len(parts[0]) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("%w: invalid TxID in %s", ErrInvalidID, idStr)
	}

	txID, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return nil, errors.Join(ErrInvalidID, err)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, errors.Join(ErrInvalidID, err)
	}

	return &ID{TxID: txID, Index: uint32(index)}, nil
}

// MustIDFromString uses NewIDFromString, panics in case of error.
func MustIDFromString(idStr string) ID {
	id, err := NewIDFromString(idStr)
	if err != nil {
		panic(err)
	}

	return *id
}

// String returns inscription ID as string.
func (id ID) String() string {
	if id.TxID == nil {
		return ""
	}

	return fmt.Sprintf("%s%s%d", id.TxID.String(), idSeparator, id.Index)
}

// IsZero returns true if ID is not set.
func (id ID) IsZero() bool {
	return id.TxID == nil
}

// Equal returns true if both IDs point to the same inscription.
func (id ID) Equal(other ID) bool {
	if id.TxID == nil || other.TxID == nil {
		return id.TxID == other.TxID && id.Index == other.Index
	}

	return id.TxID.IsEqual(other.TxID) && id.Index == other.Index
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := NewIDFromString(string(text))
	if err != nil {
		return err
	}

	*id = *parsed

	return nil
}
