package keeper

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

// QueryServer defines the creatorpool QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Pool returns a pool by id
func (q *QueryServer) Pool(ctx context.Context, poolID string) (*types.Pool, error) {
	return q.keeper.mustGetPool(sdk.UnwrapSDKContext(ctx), poolID)
}

// Pools returns a page of pools and the total count
func (q *QueryServer) Pools(ctx context.Context, offset, limit uint64) ([]*types.Pool, uint64, error) {
	all := q.keeper.GetAllPools(sdk.UnwrapSDKContext(ctx))
	total := uint64(len(all))

	if offset >= total {
		return []*types.Pool{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return all[offset:end], total, nil
}

// UserPosition returns owner's position in a pool
func (q *QueryServer) UserPosition(ctx context.Context, poolID, owner string) (*types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := q.keeper.mustGetPool(sdkCtx, poolID); err != nil {
		return nil, err
	}
	user := q.keeper.GetUser(sdkCtx, poolID, owner)
	if user == nil {
		return nil, errors.Wrapf(types.ErrUserNotFound, "user %s in %s", owner, poolID)
	}
	return user, nil
}

// Earned returns owner's claimable reward as of the block time
func (q *QueryServer) Earned(ctx context.Context, poolID, owner string) (uint64, error) {
	addr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return 0, errors.Wrapf(types.ErrInvalidAddress, "%s: %s", owner, err)
	}
	return q.keeper.Earned(sdk.UnwrapSDKContext(ctx), poolID, addr)
}

// RewardPerToken returns the pool accumulator as of the block time
func (q *QueryServer) RewardPerToken(ctx context.Context, poolID string) (math.Uint, error) {
	return q.keeper.RewardPerToken(sdk.UnwrapSDKContext(ctx), poolID)
}

// PoolUsers returns every position in a pool
func (q *QueryServer) PoolUsers(ctx context.Context, poolID string) ([]*types.UserPosition, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	if _, err := q.keeper.mustGetPool(sdkCtx, poolID); err != nil {
		return nil, err
	}
	return q.keeper.GetPoolUsers(sdkCtx, poolID), nil
}
