package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	ErrInsufficientFunds  = errors.Register(ModuleName, 2, "insufficient funds")
	ErrInsufficientStake  = errors.Register(ModuleName, 3, "insufficient stake")
	ErrZeroAmount         = errors.Register(ModuleName, 4, "amount must be positive")
	ErrAlreadyExists      = errors.Register(ModuleName, 5, "already exists")
	ErrArithmeticOverflow = errors.Register(ModuleName, 6, "arithmetic overflow")

	ErrPoolNotFound    = errors.Register(ModuleName, 10, "pool not found")
	ErrUserNotFound    = errors.Register(ModuleName, 11, "user position not found")
	ErrInvalidDuration = errors.Register(ModuleName, 12, "reward duration must be positive")
	ErrInvalidDenom    = errors.Register(ModuleName, 13, "invalid denom")
	ErrInvalidAddress  = errors.Register(ModuleName, 14, "invalid address")
	ErrInvalidAmount   = errors.Register(ModuleName, 15, "invalid amount")
	ErrInvalidGenesis  = errors.Register(ModuleName, 16, "invalid genesis state")
)
