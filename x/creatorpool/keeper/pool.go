package keeper

import (
	"context"
	"strconv"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/pkg/fixedpoint"
	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

// InitializePool creates a pool with an empty reward window ending now
func (k *Keeper) InitializePool(ctx context.Context, authority sdk.AccAddress, stakingDenom, rewardDenom string, rewardDuration uint64) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := sdkCtx.BlockTime().Unix()

	if rewardDuration == 0 {
		return nil, types.ErrInvalidDuration
	}
	if err := sdk.ValidateDenom(stakingDenom); err != nil {
		return nil, errors.Wrap(types.ErrInvalidDenom, err.Error())
	}
	if err := sdk.ValidateDenom(rewardDenom); err != nil {
		return nil, errors.Wrap(types.ErrInvalidDenom, err.Error())
	}

	seq := k.GetNextSequence(sdkCtx)
	poolID := types.PoolID(seq)
	if k.GetPool(sdkCtx, poolID) != nil {
		return nil, errors.Wrapf(types.ErrAlreadyExists, "pool %s", poolID)
	}

	pool := types.NewPool(poolID, authority.String(), stakingDenom, rewardDenom, rewardDuration, now)
	k.SetPool(sdkCtx, pool)
	k.SetNextSequence(sdkCtx, seq+1)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeInitialize,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, pool.Authority),
			sdk.NewAttribute(types.AttributeKeyStakingDenom, stakingDenom),
			sdk.NewAttribute(types.AttributeKeyRewardDenom, rewardDenom),
		),
	)

	k.logger.Info("Pool initialized",
		"pool_id", poolID,
		"authority", pool.Authority,
		"staking_denom", stakingDenom,
		"reward_denom", rewardDenom,
		"reward_duration", rewardDuration,
	)

	return pool, nil
}

// CreateUser opens a zeroed position for owner in a pool
func (k *Keeper) CreateUser(ctx context.Context, owner sdk.AccAddress, poolID string) (*types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if _, err := k.mustGetPool(sdkCtx, poolID); err != nil {
		return nil, err
	}
	if k.GetUser(sdkCtx, poolID, owner.String()) != nil {
		return nil, errors.Wrapf(types.ErrAlreadyExists, "user %s in %s", owner, poolID)
	}

	user := types.NewUserPosition(poolID, owner.String(), sdkCtx.BlockTime().Unix())
	k.SetUser(sdkCtx, user)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeCreateUser,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, user.Owner),
		),
	)

	k.logger.Info("User created", "pool_id", poolID, "owner", user.Owner)
	return user, nil
}

// Fund deposits amount of reward and restarts the emission window, rolling
// any unemitted remainder of the previous window into the new rate.
func (k *Keeper) Fund(ctx context.Context, funder sdk.AccAddress, poolID string, amount uint64) (*types.Pool, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := sdkCtx.BlockTime().Unix()

	if amount == 0 {
		return nil, types.ErrZeroAmount
	}
	pool, err := k.mustGetPool(sdkCtx, poolID)
	if err != nil {
		return nil, err
	}
	if err := pool.Settle(nil, now); err != nil {
		return nil, err
	}
	if err := pool.ApplyFund(amount, now); err != nil {
		return nil, err
	}
	if err := k.checkBalance(sdkCtx, funder, pool.RewardDenom, amount); err != nil {
		return nil, err
	}

	if err := k.bankKeeper.SendCoins(ctx, funder, RewardVaultAddress(poolID), coins(pool.RewardDenom, amount)); err != nil {
		return nil, errors.Wrap(types.ErrInsufficientFunds, err.Error())
	}
	k.SetPool(sdkCtx, pool)

	sdkCtx.EventManager().EmitEvent(
		sdk.NewEvent(
			types.EventTypeFund,
			sdk.NewAttribute(types.AttributeKeyPoolID, poolID),
			sdk.NewAttribute(types.AttributeKeyOwner, funder.String()),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(amount, 10)),
			sdk.NewAttribute(types.AttributeKeyRewardRate, strconv.FormatUint(pool.RewardRate, 10)),
			sdk.NewAttribute(types.AttributeKeyRewardDurationEnd, strconv.FormatInt(pool.RewardDurationEnd, 10)),
			sdk.NewAttribute(types.AttributeKeyRewardPerToken, pool.RewardPerTokenStored.String()),
		),
	)

	k.logger.Info("Pool funded",
		"pool_id", poolID,
		"funder", funder.String(),
		"amount", amount,
		"reward_rate", pool.RewardRate,
		"reward_duration_end", pool.RewardDurationEnd,
	)

	return pool, nil
}

// Stake moves amount of the staking denom into the pool for owner
func (k *Keeper) Stake(ctx context.Context, owner sdk.AccAddress, poolID string, amount uint64) (*types.Pool, *types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := sdkCtx.BlockTime().Unix()

	if amount == 0 {
		return nil, nil, types.ErrZeroAmount
	}
	pool, user, err := k.loadPosition(sdkCtx, poolID, owner)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Settle(user, now); err != nil {
		return nil, nil, err
	}

	wasEmpty := user.BalanceStaked == 0
	balance, err := fixedpoint.Add(user.BalanceStaked, amount)
	if err != nil {
		return nil, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	total, err := fixedpoint.Add(pool.TotalStaked, amount)
	if err != nil {
		return nil, nil, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
	}
	if err := k.checkBalance(sdkCtx, owner, pool.StakingDenom, amount); err != nil {
		return nil, nil, err
	}

	if err := k.bankKeeper.SendCoins(ctx, owner, StakingVaultAddress(poolID), coins(pool.StakingDenom, amount)); err != nil {
		return nil, nil, errors.Wrap(types.ErrInsufficientFunds, err.Error())
	}

	user.BalanceStaked = balance
	pool.TotalStaked = total
	if wasEmpty {
		pool.UserCount++
	}
	k.SetPool(sdkCtx, pool)
	k.SetUser(sdkCtx, user)

	k.emitPositionEvent(sdkCtx, types.EventTypeStake, pool, user, amount)
	k.logger.Info("Stake processed",
		"pool_id", poolID,
		"owner", user.Owner,
		"amount", amount,
		"balance", user.BalanceStaked,
		"total_staked", pool.TotalStaked,
	)

	return pool, user, nil
}

// Unstake returns amount of staked tokens to owner
func (k *Keeper) Unstake(ctx context.Context, owner sdk.AccAddress, poolID string, amount uint64) (*types.Pool, *types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := sdkCtx.BlockTime().Unix()

	if amount == 0 {
		return nil, nil, types.ErrZeroAmount
	}
	pool, user, err := k.loadPosition(sdkCtx, poolID, owner)
	if err != nil {
		return nil, nil, err
	}
	if amount > user.BalanceStaked {
		return nil, nil, errors.Wrapf(types.ErrInsufficientStake, "staked %d, unstaking %d", user.BalanceStaked, amount)
	}
	if err := pool.Settle(user, now); err != nil {
		return nil, nil, err
	}
	total, err := fixedpoint.Sub(pool.TotalStaked, amount)
	if err != nil {
		return nil, nil, errors.Wrap(types.ErrInsufficientStake, err.Error())
	}

	if err := k.bankKeeper.SendCoins(ctx, StakingVaultAddress(poolID), owner, coins(pool.StakingDenom, amount)); err != nil {
		return nil, nil, err
	}

	user.BalanceStaked -= amount
	pool.TotalStaked = total
	if user.BalanceStaked == 0 && pool.UserCount > 0 {
		pool.UserCount--
	}
	k.SetPool(sdkCtx, pool)
	k.SetUser(sdkCtx, user)

	k.emitPositionEvent(sdkCtx, types.EventTypeUnstake, pool, user, amount)
	k.logger.Info("Unstake processed",
		"pool_id", poolID,
		"owner", user.Owner,
		"amount", amount,
		"balance", user.BalanceStaked,
		"total_staked", pool.TotalStaked,
	)

	return pool, user, nil
}

// ClaimReward pays owner's settled pending reward. Nothing is transferred
// when nothing is pending.
func (k *Keeper) ClaimReward(ctx context.Context, owner sdk.AccAddress, poolID string) (uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	now := sdkCtx.BlockTime().Unix()

	pool, user, err := k.loadPosition(sdkCtx, poolID, owner)
	if err != nil {
		return 0, err
	}
	if err := pool.Settle(user, now); err != nil {
		return 0, err
	}

	claimed := user.RewardPending
	if claimed > 0 {
		totalClaimed, err := fixedpoint.Add(pool.TotalClaimed, claimed)
		if err != nil {
			return 0, errors.Wrap(types.ErrArithmeticOverflow, err.Error())
		}
		if err := k.bankKeeper.SendCoins(ctx, RewardVaultAddress(poolID), owner, coins(pool.RewardDenom, claimed)); err != nil {
			return 0, err
		}
		pool.TotalClaimed = totalClaimed
		user.RewardPending = 0
	}
	k.SetPool(sdkCtx, pool)
	k.SetUser(sdkCtx, user)

	k.emitPositionEvent(sdkCtx, types.EventTypeClaim, pool, user, claimed)
	k.logger.Info("Reward claimed",
		"pool_id", poolID,
		"owner", user.Owner,
		"claimed", claimed,
	)

	return claimed, nil
}

// Earned returns owner's pending reward plus accrual up to the block time
// without writing anything.
func (k *Keeper) Earned(ctx sdk.Context, poolID string, owner sdk.AccAddress) (uint64, error) {
	pool, user, err := k.loadPosition(ctx, poolID, owner)
	if err != nil {
		return 0, err
	}
	rpt, err := pool.RewardPerToken(ctx.BlockTime().Unix())
	if err != nil {
		return 0, err
	}
	return user.Earned(rpt)
}

// RewardPerToken returns the pool accumulator as of the block time
func (k *Keeper) RewardPerToken(ctx sdk.Context, poolID string) (math.Uint, error) {
	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return math.Uint{}, err
	}
	return pool.RewardPerToken(ctx.BlockTime().Unix())
}

func (k *Keeper) mustGetPool(ctx sdk.Context, poolID string) (*types.Pool, error) {
	pool := k.GetPool(ctx, poolID)
	if pool == nil {
		return nil, errors.Wrapf(types.ErrPoolNotFound, "pool %s", poolID)
	}
	return pool, nil
}

func (k *Keeper) loadPosition(ctx sdk.Context, poolID string, owner sdk.AccAddress) (*types.Pool, *types.UserPosition, error) {
	pool, err := k.mustGetPool(ctx, poolID)
	if err != nil {
		return nil, nil, err
	}
	user := k.GetUser(ctx, poolID, owner.String())
	if user == nil {
		return nil, nil, errors.Wrapf(types.ErrUserNotFound, "user %s in %s", owner, poolID)
	}
	return pool, user, nil
}

func (k *Keeper) checkBalance(ctx sdk.Context, owner sdk.AccAddress, denom string, amount uint64) error {
	balance := k.bankKeeper.GetBalance(ctx, owner, denom).Amount
	if balance.LT(math.NewIntFromUint64(amount)) {
		return errors.Wrapf(types.ErrInsufficientFunds, "%s has %s%s, needs %d", owner, balance, denom, amount)
	}
	return nil
}

func (k *Keeper) emitPositionEvent(ctx sdk.Context, eventType string, pool *types.Pool, user *types.UserPosition, amount uint64) {
	ctx.EventManager().EmitEvent(
		sdk.NewEvent(
			eventType,
			sdk.NewAttribute(types.AttributeKeyPoolID, pool.PoolID),
			sdk.NewAttribute(types.AttributeKeyOwner, user.Owner),
			sdk.NewAttribute(types.AttributeKeyAmount, strconv.FormatUint(amount, 10)),
			sdk.NewAttribute(types.AttributeKeyBalance, strconv.FormatUint(user.BalanceStaked, 10)),
			sdk.NewAttribute(types.AttributeKeyTotalStaked, strconv.FormatUint(pool.TotalStaked, 10)),
			sdk.NewAttribute(types.AttributeKeyRewardPerToken, pool.RewardPerTokenStored.String()),
		),
	)
}
