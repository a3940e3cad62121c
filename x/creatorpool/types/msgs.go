package types

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgServer defines the creatorpool message service
type MsgServer interface {
	InitializePool(context.Context, *MsgInitializePool) (*MsgInitializePoolResponse, error)
	CreateUser(context.Context, *MsgCreateUser) (*MsgCreateUserResponse, error)
	Fund(context.Context, *MsgFund) (*MsgFundResponse, error)
	Stake(context.Context, *MsgStake) (*MsgStakeResponse, error)
	Unstake(context.Context, *MsgUnstake) (*MsgUnstakeResponse, error)
	ClaimReward(context.Context, *MsgClaimReward) (*MsgClaimRewardResponse, error)
}

func validateAddress(addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%s: %s", addr, err)
	}
	return nil
}

func validatePoolID(poolID string) error {
	if !strings.HasPrefix(poolID, PoolIDPrefix) {
		return errors.Wrapf(ErrPoolNotFound, "malformed pool id %q", poolID)
	}
	return nil
}

// ParseAmount parses a positive base-unit amount
func ParseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidAmount, "%q", s)
	}
	if amount == 0 {
		return 0, ErrZeroAmount
	}
	return amount, nil
}

// MsgInitializePool creates a reward pool
type MsgInitializePool struct {
	Authority      string `json:"authority"`
	StakingDenom   string `json:"staking_denom"`
	RewardDenom    string `json:"reward_denom"`
	RewardDuration uint64 `json:"reward_duration"`
}

// ValidateBasic performs stateless checks
func (msg MsgInitializePool) ValidateBasic() error {
	if err := validateAddress(msg.Authority); err != nil {
		return err
	}
	if err := sdk.ValidateDenom(msg.StakingDenom); err != nil {
		return errors.Wrap(ErrInvalidDenom, err.Error())
	}
	if err := sdk.ValidateDenom(msg.RewardDenom); err != nil {
		return errors.Wrap(ErrInvalidDenom, err.Error())
	}
	if msg.RewardDuration == 0 {
		return ErrInvalidDuration
	}
	return nil
}

func (msg MsgInitializePool) String() string {
	return fmt.Sprintf("MsgInitializePool{Authority: %s, Staking: %s, Reward: %s, Duration: %d}",
		msg.Authority, msg.StakingDenom, msg.RewardDenom, msg.RewardDuration)
}

// MsgInitializePoolResponse returns the new pool id
type MsgInitializePoolResponse struct {
	PoolID string `json:"pool_id"`
}

// MsgCreateUser opens a zeroed position for the owner
type MsgCreateUser struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgCreateUser) ValidateBasic() error {
	if err := validateAddress(msg.Owner); err != nil {
		return err
	}
	return validatePoolID(msg.PoolID)
}

func (msg MsgCreateUser) String() string {
	return fmt.Sprintf("MsgCreateUser{Owner: %s, PoolID: %s}", msg.Owner, msg.PoolID)
}

// MsgCreateUserResponse is empty
type MsgCreateUserResponse struct{}

// MsgFund deposits reward tokens and restarts the emission window
type MsgFund struct {
	Funder string `json:"funder"`
	PoolID string `json:"pool_id"`
	Amount string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgFund) ValidateBasic() error {
	if err := validateAddress(msg.Funder); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

func (msg MsgFund) String() string {
	return fmt.Sprintf("MsgFund{Funder: %s, PoolID: %s, Amount: %s}", msg.Funder, msg.PoolID, msg.Amount)
}

// MsgFundResponse reports the new emission schedule
type MsgFundResponse struct {
	RewardRate        string `json:"reward_rate"`
	RewardDurationEnd int64  `json:"reward_duration_end"`
}

// MsgStake stakes share tokens into a pool
type MsgStake struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
	Amount string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgStake) ValidateBasic() error {
	if err := validateAddress(msg.Owner); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

func (msg MsgStake) String() string {
	return fmt.Sprintf("MsgStake{Owner: %s, PoolID: %s, Amount: %s}", msg.Owner, msg.PoolID, msg.Amount)
}

// MsgStakeResponse reports the staked balance after the call
type MsgStakeResponse struct {
	BalanceStaked string `json:"balance_staked"`
	TotalStaked   string `json:"total_staked"`
}

// MsgUnstake withdraws staked tokens
type MsgUnstake struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
	Amount string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgUnstake) ValidateBasic() error {
	if err := validateAddress(msg.Owner); err != nil {
		return err
	}
	if err := validatePoolID(msg.PoolID); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

func (msg MsgUnstake) String() string {
	return fmt.Sprintf("MsgUnstake{Owner: %s, PoolID: %s, Amount: %s}", msg.Owner, msg.PoolID, msg.Amount)
}

// MsgUnstakeResponse reports the staked balance after the call
type MsgUnstakeResponse struct {
	BalanceStaked string `json:"balance_staked"`
	TotalStaked   string `json:"total_staked"`
}

// MsgClaimReward pays out the owner's pending reward
type MsgClaimReward struct {
	Owner  string `json:"owner"`
	PoolID string `json:"pool_id"`
}

// ValidateBasic performs stateless checks
func (msg MsgClaimReward) ValidateBasic() error {
	if err := validateAddress(msg.Owner); err != nil {
		return err
	}
	return validatePoolID(msg.PoolID)
}

func (msg MsgClaimReward) String() string {
	return fmt.Sprintf("MsgClaimReward{Owner: %s, PoolID: %s}", msg.Owner, msg.PoolID)
}

// MsgClaimRewardResponse reports the amount paid
type MsgClaimRewardResponse struct {
	Claimed string `json:"claimed"`
}
