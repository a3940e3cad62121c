package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientFunds  = errors.Register(ModuleName, 2, "insufficient funds")
	ErrInsufficientShares = errors.Register(ModuleName, 3, "insufficient shares")
	ErrVaultEmpty         = errors.Register(ModuleName, 4, "vault has no outstanding shares")
	ErrZeroAmount         = errors.Register(ModuleName, 5, "amount must be positive")
	ErrAlreadyExists      = errors.Register(ModuleName, 6, "vault already exists")
	ErrArithmeticOverflow = errors.Register(ModuleName, 7, "arithmetic overflow")

	ErrVaultNotFound    = errors.Register(ModuleName, 10, "vault not found")
	ErrInvalidDenom     = errors.Register(ModuleName, 11, "invalid denom")
	ErrInvalidAddress   = errors.Register(ModuleName, 12, "invalid address")
	ErrInvalidAmount    = errors.Register(ModuleName, 13, "invalid amount")
	ErrInvalidGenesis   = errors.Register(ModuleName, 14, "invalid genesis state")
	ErrInvalidRewardBps = errors.Register(ModuleName, 15, "invalid reward parameters")
)
