package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/pkg/fixedpoint"
	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// InitializeVault creates an empty vault for underlyingDenom
func (k *Keeper) InitializeVault(ctx context.Context, creator sdk.AccAddress, underlyingDenom string) (*types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := types.ValidateUnderlyingDenom(underlyingDenom); err != nil {
		return nil, err
	}
	if k.GetVault(sdkCtx, underlyingDenom) != nil {
		return nil, errors.Wrapf(types.ErrAlreadyExists, "vault %s", underlyingDenom)
	}

	vault := types.NewVault(underlyingDenom, creator.String(), sdkCtx.BlockTime().Unix())
	k.SetVault(sdkCtx, vault)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInitialize,
			sdk.NewAttribute(types.AttributeKeyUnderlyingDenom, vault.UnderlyingDenom),
			sdk.NewAttribute(types.AttributeKeyShareDenom, vault.ShareDenom),
			sdk.NewAttribute(types.AttributeKeySender, vault.Creator),
		),
	)

	k.logger.Info("Vault initialized",
		"underlying_denom", vault.UnderlyingDenom,
		"share_denom", vault.ShareDenom,
		"creator", vault.Creator,
	)

	return vault, nil
}

// Stake deposits amount of underlying and mints shares at the current rate
func (k *Keeper) Stake(ctx context.Context, staker sdk.AccAddress, underlyingDenom string, amount uint64) (uint64, *types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if amount == 0 {
		return 0, nil, types.ErrZeroAmount
	}
	vault, err := k.mustGetVault(sdkCtx, underlyingDenom)
	if err != nil {
		return 0, nil, err
	}

	shares, err := vault.CalculateSharesForDeposit(amount)
	if err != nil {
		return 0, nil, err
	}
	if shares == 0 {
		return 0, nil, errors.Wrapf(types.ErrZeroAmount, "deposit of %d mints no shares", amount)
	}
	totalUnderlying, err := fixedpoint.Add(vault.TotalUnderlying, amount)
	if err != nil {
		return 0, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	totalShares, err := fixedpoint.Add(vault.TotalShares, shares)
	if err != nil {
		return 0, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	if err := k.checkBalance(sdkCtx, staker, underlyingDenom, amount); err != nil {
		return 0, nil, err
	}

	if err := k.bankKeeper.SendCoins(ctx, staker, VaultAddress(underlyingDenom), coins(underlyingDenom, amount)); err != nil {
		return 0, nil, errors.Wrap(types.ErrInsufficientFunds, err.Error())
	}
	shareCoins := coins(vault.ShareDenom, shares)
	if err := k.bankKeeper.MintCoins(ctx, types.ModuleName, shareCoins); err != nil {
		return 0, nil, err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, staker, shareCoins); err != nil {
		return 0, nil, err
	}

	vault.TotalUnderlying = totalUnderlying
	vault.TotalShares = totalShares
	vault.UpdatedAt = sdkCtx.BlockTime().Unix()
	k.SetVault(sdkCtx, vault)

	k.emitVaultEvent(sdkCtx, types.EventTypeStake, vault, staker, amount, shares)
	k.logger.Info("Stake processed",
		"underlying_denom", underlyingDenom,
		"staker", staker.String(),
		"amount", amount,
		"shares", shares,
		"exchange_rate", vault.ExchangeRate().String(),
	)

	return shares, vault, nil
}

// Unstake burns shares and returns floor(shares*U/S) of underlying
func (k *Keeper) Unstake(ctx context.Context, staker sdk.AccAddress, underlyingDenom string, shares uint64) (uint64, *types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if shares == 0 {
		return 0, nil, types.ErrZeroAmount
	}
	vault, err := k.mustGetVault(sdkCtx, underlyingDenom)
	if err != nil {
		return 0, nil, err
	}
	if vault.IsEmpty() {
		return 0, nil, errors.Wrapf(types.ErrVaultEmpty, "vault %s", underlyingDenom)
	}
	if held := k.ShareBalance(ctx, staker, underlyingDenom); held < shares {
		return 0, nil, errors.Wrapf(types.ErrInsufficientShares, "holds %d, unstaking %d", held, shares)
	}

	value, err := vault.CalculateValueForShares(shares)
	if err != nil {
		return 0, nil, err
	}
	totalUnderlying, err := fixedpoint.Sub(vault.TotalUnderlying, value)
	if err != nil {
		return 0, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	totalShares, err := fixedpoint.Sub(vault.TotalShares, shares)
	if err != nil {
		return 0, nil, errors.Wrap(types.ErrInsufficientShares, err.Error())
	}

	shareCoins := coins(vault.ShareDenom, shares)
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, staker, types.ModuleName, shareCoins); err != nil {
		return 0, nil, errors.Wrap(types.ErrInsufficientShares, err.Error())
	}
	if err := k.bankKeeper.BurnCoins(ctx, types.ModuleName, shareCoins); err != nil {
		return 0, nil, err
	}
	if value > 0 {
		if err := k.bankKeeper.SendCoins(ctx, VaultAddress(underlyingDenom), staker, coins(underlyingDenom, value)); err != nil {
			return 0, nil, err
		}
	}

	vault.TotalUnderlying = totalUnderlying
	vault.TotalShares = totalShares
	vault.UpdatedAt = sdkCtx.BlockTime().Unix()
	k.SetVault(sdkCtx, vault)

	k.emitVaultEvent(sdkCtx, types.EventTypeUnstake, vault, staker, value, shares)
	k.logger.Info("Unstake processed",
		"underlying_denom", underlyingDenom,
		"staker", staker.String(),
		"shares", shares,
		"returned", value,
		"exchange_rate", vault.ExchangeRate().String(),
	)

	return value, vault, nil
}

// UnstakeAll unstakes the staker's full share balance
func (k *Keeper) UnstakeAll(ctx context.Context, staker sdk.AccAddress, underlyingDenom string) (uint64, uint64, *types.Vault, error) {
	shares := k.ShareBalance(ctx, staker, underlyingDenom)
	if shares == 0 {
		return 0, 0, nil, errors.Wrapf(types.ErrZeroAmount, "%s holds no %s", staker, types.ShareDenom(underlyingDenom))
	}
	value, vault, err := k.Unstake(ctx, staker, underlyingDenom, shares)
	if err != nil {
		return 0, 0, nil, err
	}
	return shares, value, vault, nil
}

// FundVault adds amount to total underlying without minting shares, raising
// the exchange rate for every holder.
func (k *Keeper) FundVault(ctx context.Context, funder sdk.AccAddress, underlyingDenom string, amount uint64) (*types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if amount == 0 {
		return nil, types.ErrZeroAmount
	}
	vault, err := k.mustGetVault(sdkCtx, underlyingDenom)
	if err != nil {
		return nil, err
	}
	if vault.IsEmpty() {
		return nil, errors.Wrapf(types.ErrVaultEmpty, "vault %s has no shares to accrue to", underlyingDenom)
	}
	totalUnderlying, err := fixedpoint.Add(vault.TotalUnderlying, amount)
	if err != nil {
		return nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	if err := k.checkBalance(sdkCtx, funder, underlyingDenom, amount); err != nil {
		return nil, err
	}

	if err := k.bankKeeper.SendCoins(ctx, funder, VaultAddress(underlyingDenom), coins(underlyingDenom, amount)); err != nil {
		return nil, errors.Wrap(types.ErrInsufficientFunds, err.Error())
	}

	vault.TotalUnderlying = totalUnderlying
	vault.UpdatedAt = sdkCtx.BlockTime().Unix()
	k.SetVault(sdkCtx, vault)

	k.emitVaultEvent(sdkCtx, types.EventTypeFund, vault, funder, amount, 0)
	k.logger.Info("Vault funded",
		"underlying_denom", underlyingDenom,
		"funder", funder.String(),
		"amount", amount,
		"exchange_rate", vault.ExchangeRate().String(),
	)

	return vault, nil
}

// SendStakingReward funds one period of yield on the vault's current
// underlying: floor(floor(U*apyBps/10000)/periodsPerYear).
func (k *Keeper) SendStakingReward(ctx context.Context, funder sdk.AccAddress, underlyingDenom string, apyBps, periodsPerYear uint32) (uint64, *types.Vault, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := types.ValidateRewardParams(apyBps, periodsPerYear); err != nil {
		return 0, nil, err
	}
	vault, err := k.mustGetVault(sdkCtx, underlyingDenom)
	if err != nil {
		return 0, nil, err
	}
	reward, err := fixedpoint.PeriodicYield(vault.TotalUnderlying, apyBps, periodsPerYear)
	if err != nil {
		return 0, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	if reward == 0 {
		return 0, nil, errors.Wrapf(types.ErrZeroAmount, "period reward on %d is zero", vault.TotalUnderlying)
	}

	vault, err = k.FundVault(ctx, funder, underlyingDenom, reward)
	if err != nil {
		return 0, nil, err
	}
	return reward, vault, nil
}

// EstimateStake returns the shares a deposit of amount would mint now
func (k *Keeper) EstimateStake(ctx sdk.Context, underlyingDenom string, amount uint64) (uint64, error) {
	vault, err := k.mustGetVault(ctx, underlyingDenom)
	if err != nil {
		return 0, err
	}
	return vault.CalculateSharesForDeposit(amount)
}

// EstimateUnstake returns the underlying that shares would redeem now
func (k *Keeper) EstimateUnstake(ctx sdk.Context, underlyingDenom string, shares uint64) (uint64, error) {
	vault, err := k.mustGetVault(ctx, underlyingDenom)
	if err != nil {
		return 0, err
	}
	if shares > vault.TotalShares {
		return 0, errors.Wrapf(types.ErrInsufficientShares, "%d exceeds %d outstanding", shares, vault.TotalShares)
	}
	return vault.CalculateValueForShares(shares)
}

func (k *Keeper) mustGetVault(ctx sdk.Context, underlyingDenom string) (*types.Vault, error) {
	vault := k.GetVault(ctx, underlyingDenom)
	if vault == nil {
		return nil, errors.Wrapf(types.ErrVaultNotFound, "vault %s", underlyingDenom)
	}
	return vault, nil
}

func (k *Keeper) checkBalance(ctx sdk.Context, owner sdk.AccAddress, denom string, amount uint64) error {
	balance := k.UnderlyingBalance(ctx, owner, denom)
	if balance.LT(math.NewIntFromUint64(amount)) {
		return errors.Wrapf(types.ErrInsufficientFunds, "%s has %s%s, needs %d", owner, balance, denom, amount)
	}
	return nil
}

func (k *Keeper) emitVaultEvent(ctx sdk.Context, eventType string, vault *types.Vault, sender sdk.AccAddress, amount, shares uint64) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyUnderlyingDenom, vault.UnderlyingDenom),
			sdk.NewAttribute(types.AttributeKeySender, sender.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(amount, 10)),
			sdk.NewAttribute(types.AttributeKeyShares, strconv.FormatUint(shares, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalUnderlying, strconv.FormatUint(vault.TotalUnderlying, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalShares, strconv.FormatUint(vault.TotalShares, 10)),
			sdk.NewAttribute(types.AttributeKeyExchangeRate, vault.ExchangeRate().String()),
		),
	)
}
