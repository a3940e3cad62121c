package keeper

import (
	"context"

	"cosmossdk.io/errors"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// QueryServer defines the basestaking QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// Vault returns a vault by underlying denom
func (q *QueryServer) Vault(ctx context.Context, underlyingDenom string) (*types.Vault, error) {
	return q.keeper.mustGetVault(sdk.UnwrapSDKContext(ctx), underlyingDenom)
}

// Vaults returns a page of vaults and the total count
func (q *QueryServer) Vaults(ctx context.Context, offset, limit uint64) ([]*types.Vault, uint64, error) {
	all := q.keeper.GetAllVaults(sdk.UnwrapSDKContext(ctx))
	total := uint64(len(all))

	if offset >= total {
		return []*types.Vault{}, total, nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return all[offset:end], total, nil
}

// ExchangeRate returns underlying per share as a decimal string
func (q *QueryServer) ExchangeRate(ctx context.Context, underlyingDenom string) (string, error) {
	vault, err := q.Vault(ctx, underlyingDenom)
	if err != nil {
		return "", err
	}
	return vault.ExchangeRate().String(), nil
}

// Position returns owner's share balance and its current underlying value
func (q *QueryServer) Position(ctx context.Context, owner, underlyingDenom string) (*types.Position, error) {
	addr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return nil, errors.Wrapf(types.ErrInvalidAddress, "%s: %s", owner, err)
	}
	vault, err := q.Vault(ctx, underlyingDenom)
	if err != nil {
		return nil, err
	}

	shares := q.keeper.ShareBalance(ctx, addr, underlyingDenom)
	var value uint64
	if shares > 0 {
		if value, err = vault.CalculateValueForShares(shares); err != nil {
			return nil, err
		}
	}
	return &types.Position{
		Owner:           owner,
		UnderlyingDenom: vault.UnderlyingDenom,
		ShareDenom:      vault.ShareDenom,
		Shares:          shares,
		UnderlyingValue: value,
		ExchangeRate:    vault.ExchangeRate().String(),
	}, nil
}

// EstimateStake previews the shares minted for amount
func (q *QueryServer) EstimateStake(ctx context.Context, underlyingDenom string, amount uint64) (uint64, error) {
	return q.keeper.EstimateStake(sdk.UnwrapSDKContext(ctx), underlyingDenom, amount)
}

// EstimateUnstake previews the underlying returned for shares
func (q *QueryServer) EstimateUnstake(ctx context.Context, underlyingDenom string, shares uint64) (uint64, error) {
	return q.keeper.EstimateUnstake(sdk.UnwrapSDKContext(ctx), underlyingDenom, shares)
}
