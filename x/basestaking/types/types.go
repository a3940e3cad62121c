package types

import (
	"strings"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/pkg/fixedpoint"
)

// Module name and store key
const (
	ModuleName = "basestaking"
	StoreKey   = ModuleName
)

// ShareDenomPrefix is prepended to the underlying denom to name its share token
const ShareDenomPrefix = "xstake/"

// Reward helper defaults: 11% APY paid monthly
const (
	DefaultRewardApyBps      uint32 = 1100
	DefaultRewardPeriodsYear uint32 = 12
)

// ShareDenom returns the share token denom for an underlying denom
func ShareDenom(underlyingDenom string) string {
	return ShareDenomPrefix + underlyingDenom
}

// IsShareDenom reports whether denom was minted by a vault
func IsShareDenom(denom string) bool {
	return strings.HasPrefix(denom, ShareDenomPrefix)
}

// ValidateUnderlyingDenom rejects malformed denoms and share denoms, so vaults
// cannot be stacked on their own share tokens.
func ValidateUnderlyingDenom(denom string) error {
	if err := sdk.ValidateDenom(denom); err != nil {
		return errors.Wrap(ErrInvalidDenom, err.Error())
	}
	if IsShareDenom(denom) {
		return errors.Wrapf(ErrInvalidDenom, "%s is a share denom", denom)
	}
	if err := sdk.ValidateDenom(ShareDenom(denom)); err != nil {
		return errors.Wrap(ErrInvalidDenom, err.Error())
	}
	return nil
}

// Vault pools one underlying asset against a share token supply
type Vault struct {
	UnderlyingDenom string `json:"underlying_denom"`
	ShareDenom      string `json:"share_denom"`
	TotalUnderlying uint64 `json:"total_underlying"`
	TotalShares     uint64 `json:"total_shares"`
	Creator         string `json:"creator"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

// NewVault returns an empty vault for underlyingDenom
func NewVault(underlyingDenom, creator string, now int64) *Vault {
	return &Vault{
		UnderlyingDenom: underlyingDenom,
		ShareDenom:      ShareDenom(underlyingDenom),
		Creator:         creator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsEmpty reports whether no shares are outstanding
func (v *Vault) IsEmpty() bool {
	return v.TotalShares == 0
}

// CalculateSharesForDeposit returns the shares minted for amount underlying.
// An empty vault mints 1:1.
func (v *Vault) CalculateSharesForDeposit(amount uint64) (uint64, error) {
	if v.TotalShares == 0 {
		return amount, nil
	}
	shares, err := fixedpoint.MulDiv(amount, v.TotalShares, v.TotalUnderlying)
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return shares, nil
}

// CalculateValueForShares returns the underlying redeemable for shares
func (v *Vault) CalculateValueForShares(shares uint64) (uint64, error) {
	if v.TotalShares == 0 {
		return 0, ErrVaultEmpty
	}
	value, err := fixedpoint.MulDiv(shares, v.TotalUnderlying, v.TotalShares)
	if err != nil {
		return 0, errors.Wrap(ErrArithmeticOverflow, err.Error())
	}
	return value, nil
}

// ExchangeRate returns underlying per share. An empty vault reports the 1:1
// seed rate.
func (v *Vault) ExchangeRate() math.LegacyDec {
	if v.TotalShares == 0 {
		return math.LegacyOneDec()
	}
	return fixedpoint.Ratio(v.TotalUnderlying, v.TotalShares)
}

// Validate checks the vault record
func (v *Vault) Validate() error {
	if err := ValidateUnderlyingDenom(v.UnderlyingDenom); err != nil {
		return err
	}
	if v.ShareDenom != ShareDenom(v.UnderlyingDenom) {
		return errors.Wrapf(ErrInvalidDenom, "share denom %s does not match %s", v.ShareDenom, v.UnderlyingDenom)
	}
	if (v.TotalShares == 0) != (v.TotalUnderlying == 0) {
		return errors.Wrapf(ErrInvalidGenesis, "vault %s: shares %d, underlying %d", v.UnderlyingDenom, v.TotalShares, v.TotalUnderlying)
	}
	return nil
}

// Position is a holder's share balance valued at the current exchange rate
type Position struct {
	Owner           string `json:"owner"`
	UnderlyingDenom string `json:"underlying_denom"`
	ShareDenom      string `json:"share_denom"`
	Shares          uint64 `json:"shares"`
	UnderlyingValue uint64 `json:"underlying_value"`
	ExchangeRate    string `json:"exchange_rate"`
}
