package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the creatorpool MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// atomically runs settlement and the triggering action against one cached
// context and commits only if both succeed.
func atomically(ctx context.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := sdk.UnwrapSDKContext(ctx).CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// InitializePool handles MsgInitializePool
func (m *MsgServer) InitializePool(ctx context.Context, msg *types.MsgInitializePool) (*types.MsgInitializePoolResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	authority := sdk.MustAccAddressFromBech32(msg.Authority)

	var pool *types.Pool
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		pool, err = m.keeper.InitializePool(ctx, authority, msg.StakingDenom, msg.RewardDenom, msg.RewardDuration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgInitializePoolResponse{PoolID: pool.PoolID}, nil
}

// CreateUser handles MsgCreateUser
func (m *MsgServer) CreateUser(ctx context.Context, msg *types.MsgCreateUser) (*types.MsgCreateUserResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	owner := sdk.MustAccAddressFromBech32(msg.Owner)

	err := atomically(ctx, func(ctx sdk.Context) error {
		_, err := m.keeper.CreateUser(ctx, owner, msg.PoolID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgCreateUserResponse{}, nil
}

// Fund handles MsgFund
func (m *MsgServer) Fund(ctx context.Context, msg *types.MsgFund) (*types.MsgFundResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	funder := sdk.MustAccAddressFromBech32(msg.Funder)

	var pool *types.Pool
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		pool, err = m.keeper.Fund(ctx, funder, msg.PoolID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgFundResponse{
		RewardRate:        strconv.FormatUint(pool.RewardRate, 10),
		RewardDurationEnd: pool.RewardDurationEnd,
	}, nil
}

// Stake handles MsgStake
func (m *MsgServer) Stake(ctx context.Context, msg *types.MsgStake) (*types.MsgStakeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	owner := sdk.MustAccAddressFromBech32(msg.Owner)

	var (
		pool *types.Pool
		user *types.UserPosition
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		pool, user, err = m.keeper.Stake(ctx, owner, msg.PoolID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgStakeResponse{
		BalanceStaked: strconv.FormatUint(user.BalanceStaked, 10),
		TotalStaked:   strconv.FormatUint(pool.TotalStaked, 10),
	}, nil
}

// Unstake handles MsgUnstake
func (m *MsgServer) Unstake(ctx context.Context, msg *types.MsgUnstake) (*types.MsgUnstakeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	owner := sdk.MustAccAddressFromBech32(msg.Owner)

	var (
		pool *types.Pool
		user *types.UserPosition
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		pool, user, err = m.keeper.Unstake(ctx, owner, msg.PoolID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgUnstakeResponse{
		BalanceStaked: strconv.FormatUint(user.BalanceStaked, 10),
		TotalStaked:   strconv.FormatUint(pool.TotalStaked, 10),
	}, nil
}

// ClaimReward handles MsgClaimReward
func (m *MsgServer) ClaimReward(ctx context.Context, msg *types.MsgClaimReward) (*types.MsgClaimRewardResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	owner := sdk.MustAccAddressFromBech32(msg.Owner)

	var claimed uint64
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		claimed, err = m.keeper.ClaimReward(ctx, owner, msg.PoolID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgClaimRewardResponse{Claimed: strconv.FormatUint(claimed, 10)}, nil
}
