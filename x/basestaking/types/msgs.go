package types

import (
	"context"
	"fmt"
	"strconv"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// MsgServer defines the basestaking message service
type MsgServer interface {
	InitializeVault(context.Context, *MsgInitializeVault) (*MsgInitializeVaultResponse, error)
	Stake(context.Context, *MsgStake) (*MsgStakeResponse, error)
	Unstake(context.Context, *MsgUnstake) (*MsgUnstakeResponse, error)
	UnstakeAll(context.Context, *MsgUnstakeAll) (*MsgUnstakeResponse, error)
	FundVault(context.Context, *MsgFundVault) (*MsgFundVaultResponse, error)
	SendStakingReward(context.Context, *MsgSendStakingReward) (*MsgFundVaultResponse, error)
}

func validateAddress(addr string) error {
	if _, err := sdk.AccAddressFromBech32(addr); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%s: %s", addr, err)
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

// MsgInitializeVault creates the vault for an underlying denom
type MsgInitializeVault struct {
	Creator         string `json:"creator"`
	UnderlyingDenom string `json:"underlying_denom"`
}

// ValidateBasic performs stateless checks
func (msg MsgInitializeVault) ValidateBasic() error {
	if err := validateAddress(msg.Creator); err != nil {
		return err
	}
	return ValidateUnderlyingDenom(msg.UnderlyingDenom)
}

func (msg MsgInitializeVault) String() string {
	return fmt.Sprintf("MsgInitializeVault{Creator: %s, UnderlyingDenom: %s}", msg.Creator, msg.UnderlyingDenom)
}

// MsgInitializeVaultResponse returns the created vault's share denom
type MsgInitializeVaultResponse struct {
	ShareDenom string `json:"share_denom"`
}

// MsgStake deposits underlying and mints shares
type MsgStake struct {
	Staker          string `json:"staker"`
	UnderlyingDenom string `json:"underlying_denom"`
	Amount          string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgStake) ValidateBasic() error {
	if err := validateAddress(msg.Staker); err != nil {
		return err
	}
	if err := ValidateUnderlyingDenom(msg.UnderlyingDenom); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

func (msg MsgStake) String() string {
	return fmt.Sprintf("MsgStake{Staker: %s, Denom: %s, Amount: %s}", msg.Staker, msg.UnderlyingDenom, msg.Amount)
}

// MsgStakeResponse reports the shares minted
type MsgStakeResponse struct {
	SharesMinted string `json:"shares_minted"`
	ShareDenom   string `json:"share_denom"`
	ExchangeRate string `json:"exchange_rate"`
}

// MsgUnstake burns shares and returns underlying
type MsgUnstake struct {
	Staker          string `json:"staker"`
	UnderlyingDenom string `json:"underlying_denom"`
	Shares          string `json:"shares"`
}

// ValidateBasic performs stateless checks
func (msg MsgUnstake) ValidateBasic() error {
	if err := validateAddress(msg.Staker); err != nil {
		return err
	}
	if err := ValidateUnderlyingDenom(msg.UnderlyingDenom); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Shares)
	return err
}

func (msg MsgUnstake) String() string {
	return fmt.Sprintf("MsgUnstake{Staker: %s, Denom: %s, Shares: %s}", msg.Staker, msg.UnderlyingDenom, msg.Shares)
}

// MsgUnstakeResponse reports the underlying returned
type MsgUnstakeResponse struct {
	SharesBurned       string `json:"shares_burned"`
	UnderlyingReturned string `json:"underlying_returned"`
	ExchangeRate       string `json:"exchange_rate"`
}

// MsgUnstakeAll burns the staker's whole share balance
type MsgUnstakeAll struct {
	Staker          string `json:"staker"`
	UnderlyingDenom string `json:"underlying_denom"`
}

// ValidateBasic performs stateless checks
func (msg MsgUnstakeAll) ValidateBasic() error {
	if err := validateAddress(msg.Staker); err != nil {
		return err
	}
	return ValidateUnderlyingDenom(msg.UnderlyingDenom)
}

func (msg MsgUnstakeAll) String() string {
	return fmt.Sprintf("MsgUnstakeAll{Staker: %s, Denom: %s}", msg.Staker, msg.UnderlyingDenom)
}

// MsgFundVault adds yield to a vault without minting shares
type MsgFundVault struct {
	Funder          string `json:"funder"`
	UnderlyingDenom string `json:"underlying_denom"`
	Amount          string `json:"amount"`
}

// ValidateBasic performs stateless checks
func (msg MsgFundVault) ValidateBasic() error {
	if err := validateAddress(msg.Funder); err != nil {
		return err
	}
	if err := ValidateUnderlyingDenom(msg.UnderlyingDenom); err != nil {
		return err
	}
	_, err := ParseAmount(msg.Amount)
	return err
}

func (msg MsgFundVault) String() string {
	return fmt.Sprintf("MsgFundVault{Funder: %s, Denom: %s, Amount: %s}", msg.Funder, msg.UnderlyingDenom, msg.Amount)
}

// MsgFundVaultResponse reports the new exchange rate after funding
type MsgFundVaultResponse struct {
	Deposited       string `json:"deposited"`
	TotalUnderlying string `json:"total_underlying"`
	ExchangeRate    string `json:"exchange_rate"`
}

// MsgSendStakingReward funds one period of yield computed from an APY
type MsgSendStakingReward struct {
	Funder          string `json:"funder"`
	UnderlyingDenom string `json:"underlying_denom"`
	ApyBps          uint32 `json:"apy_bps"`
	PeriodsPerYear  uint32 `json:"periods_per_year"`
}

// ValidateBasic performs stateless checks
func (msg MsgSendStakingReward) ValidateBasic() error {
	if err := validateAddress(msg.Funder); err != nil {
		return err
	}
	if err := ValidateUnderlyingDenom(msg.UnderlyingDenom); err != nil {
		return err
	}
	return ValidateRewardParams(msg.ApyBps, msg.PeriodsPerYear)
}

func (msg MsgSendStakingReward) String() string {
	return fmt.Sprintf("MsgSendStakingReward{Funder: %s, Denom: %s, ApyBps: %d, Periods: %d}",
		msg.Funder, msg.UnderlyingDenom, msg.ApyBps, msg.PeriodsPerYear)
}

// ValidateRewardParams bounds the reward helper inputs
func ValidateRewardParams(apyBps, periodsPerYear uint32) error {
	if apyBps == 0 || apyBps > 100_000 {
		return errors.Wrapf(ErrInvalidRewardBps, "apy %d bps", apyBps)
	}
	if periodsPerYear == 0 {
		return errors.Wrap(ErrInvalidRewardBps, "periods per year must be positive")
	}
	return nil
}
