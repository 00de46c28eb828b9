// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

package wallet

import (
	"context"
)

// Field is a named value shown to the user.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Prompt describes operation awaiting user approval.
type Prompt struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Fields      []Field `json:"fields"`
}

// Confirmer asks user to approve operation.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// AutoConfirmer answers every prompt with the same decision.
type AutoConfirmer bool

// Confirm implements Confirmer.
func (a AutoConfirmer) Confirm(ctx context.Context, _ Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return bool(a), nil
}
