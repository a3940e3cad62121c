package types

// Event types
const (
	EventTypeInitialize = "creatorpool_initialize"
	EventTypeCreateUser = "creatorpool_create_user"
	EventTypeFund       = "creatorpool_fund"
	EventTypeStake      = "creatorpool_stake"
	EventTypeUnstake    = "creatorpool_unstake"
	EventTypeClaim      = "creatorpool_claim"
)

// Event attribute keys
const (
	AttributeKeyPoolID            = "pool_id"
	AttributeKeyOwner             = "owner"
	AttributeKeyAmount            = "amount"
	AttributeKeyStakingDenom      = "staking_denom"
	AttributeKeyRewardDenom       = "reward_denom"
	AttributeKeyRewardRate        = "reward_rate"
	AttributeKeyRewardDurationEnd = "reward_duration_end"
	AttributeKeyRewardPerToken    = "reward_per_token"
	AttributeKeyTotalStaked       = "total_staked"
	AttributeKeyBalance           = "balance"
)
