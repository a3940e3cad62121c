package types

// Event types
const (
	EventTypeInitialize = "basestaking_initialize"
	EventTypeStake      = "basestaking_stake"
	EventTypeUnstake    = "basestaking_unstake"
	EventTypeFund       = "basestaking_fund"
)

// Event attribute keys
const (
	AttributeKeyUnderlyingDenom = "underlying_denom"
	AttributeKeyShareDenom      = "share_denom"
	AttributeKeySender          = "sender"
	AttributeKeyAmount          = "amount"
	AttributeKeyShares          = "shares"
	AttributeKeyTotalUnderlying = "total_underlying"
	AttributeKeyTotalShares     = "total_shares"
	AttributeKeyExchangeRate    = "exchange_rate"
)
