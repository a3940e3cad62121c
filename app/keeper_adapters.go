package app

import (
	"strings"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

// VaultReader is the slice of the basestaking keeper the valuer reads
type VaultReader interface {
	GetVault(ctx sdk.Context, underlyingDenom string) *basestakingtypes.Vault
}

// PoolReader is the slice of the creatorpool keeper the valuer reads
type PoolReader interface {
	GetPool(ctx sdk.Context, poolID string) *creatorpooltypes.Pool
	GetUser(ctx sdk.Context, poolID, owner string) *creatorpooltypes.UserPosition
}

// StakedValue is a pool position expressed in the vault's underlying token
type StakedValue struct {
	PoolID          string `json:"pool_id"`
	Owner           string `json:"owner"`
	StakedShares    uint64 `json:"staked_shares"`
	ShareDenom      string `json:"share_denom"`
	UnderlyingDenom string `json:"underlying_denom"`
	UnderlyingValue uint64 `json:"underlying_value"`
	ExchangeRate    string `json:"exchange_rate"`
}

// StakeValuer joins the two modules for read-only reporting. The modules
// themselves never import each other; pools that stake a non-vault denom are
// valued 1:1 in their own denom.
type StakeValuer struct {
	vaults VaultReader
	pools  PoolReader
}

// NewStakeValuer creates a StakeValuer over the given keepers
func NewStakeValuer(vaults VaultReader, pools PoolReader) StakeValuer {
	return StakeValuer{vaults: vaults, pools: pools}
}

// StakeValuer returns a valuer over the app's keepers
func (app *App) StakeValuer() StakeValuer {
	return NewStakeValuer(app.BaseStakingKeeper, app.CreatorPoolKeeper)
}

// Value reports what owner's staked balance in poolID would redeem for in the
// vault right now.
func (v StakeValuer) Value(ctx sdk.Context, poolID, owner string) (*StakedValue, error) {
	pool := v.pools.GetPool(ctx, poolID)
	if pool == nil {
		return nil, errors.Wrapf(creatorpooltypes.ErrPoolNotFound, "pool %s", poolID)
	}
	user := v.pools.GetUser(ctx, poolID, owner)
	if user == nil {
		return nil, errors.Wrapf(creatorpooltypes.ErrUserNotFound, "%s in pool %s", owner, poolID)
	}

	out := &StakedValue{
		PoolID:          poolID,
		Owner:           owner,
		StakedShares:    user.BalanceStaked,
		ShareDenom:      pool.StakingDenom,
		UnderlyingDenom: pool.StakingDenom,
		UnderlyingValue: user.BalanceStaked,
		ExchangeRate:    math.LegacyOneDec().String(),
	}
	if !basestakingtypes.IsShareDenom(pool.StakingDenom) {
		return out, nil
	}

	underlying := strings.TrimPrefix(pool.StakingDenom, basestakingtypes.ShareDenomPrefix)
	vault := v.vaults.GetVault(ctx, underlying)
	if vault == nil {
		return nil, errors.Wrapf(basestakingtypes.ErrVaultNotFound, "vault for %s", pool.StakingDenom)
	}
	out.UnderlyingDenom = underlying
	out.ExchangeRate = vault.ExchangeRate().String()
	if user.BalanceStaked == 0 {
		return out, nil
	}
	value, err := vault.CalculateValueForShares(user.BalanceStaked)
	if err != nil {
		return nil, err
	}
	out.UnderlyingValue = value
	return out, nil
}
