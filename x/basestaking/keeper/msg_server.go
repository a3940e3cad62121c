package keeper

import (
	"context"
	"strconv"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/basestaking/types"
)

var _ types.MsgServer = (*MsgServer)(nil)

// MsgServer defines the basestaking MsgServer
type MsgServer struct {
	keeper *Keeper
}

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// atomically runs fn against a cached context and commits only on success,
// so a failed message leaves neither vault records nor balances changed.
func atomically(ctx context.Context, fn func(ctx sdk.Context) error) error {
	cacheCtx, write := sdk.UnwrapSDKContext(ctx).CacheContext()
	if err := fn(cacheCtx); err != nil {
		return err
	}
	write()
	return nil
}

// InitializeVault handles MsgInitializeVault
func (m *MsgServer) InitializeVault(ctx context.Context, msg *types.MsgInitializeVault) (*types.MsgInitializeVaultResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	creator := sdk.MustAccAddressFromBech32(msg.Creator)

	var vault *types.Vault
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		vault, err = m.keeper.InitializeVault(ctx, creator, msg.UnderlyingDenom)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgInitializeVaultResponse{ShareDenom: vault.ShareDenom}, nil
}

// Stake handles MsgStake
func (m *MsgServer) Stake(ctx context.Context, msg *types.MsgStake) (*types.MsgStakeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	staker := sdk.MustAccAddressFromBech32(msg.Staker)

	var (
		shares uint64
		vault  *types.Vault
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		shares, vault, err = m.keeper.Stake(ctx, staker, msg.UnderlyingDenom, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgStakeResponse{
		SharesMinted: strconv.FormatUint(shares, 10),
		ShareDenom:   vault.ShareDenom,
		ExchangeRate: vault.ExchangeRate().String(),
	}, nil
}

// Unstake handles MsgUnstake
func (m *MsgServer) Unstake(ctx context.Context, msg *types.MsgUnstake) (*types.MsgUnstakeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	shares, _ := types.ParseAmount(msg.Shares)
	staker := sdk.MustAccAddressFromBech32(msg.Staker)

	var (
		value uint64
		vault *types.Vault
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		value, vault, err = m.keeper.Unstake(ctx, staker, msg.UnderlyingDenom, shares)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgUnstakeResponse{
		SharesBurned:       strconv.FormatUint(shares, 10),
		UnderlyingReturned: strconv.FormatUint(value, 10),
		ExchangeRate:       vault.ExchangeRate().String(),
	}, nil
}

// UnstakeAll handles MsgUnstakeAll
func (m *MsgServer) UnstakeAll(ctx context.Context, msg *types.MsgUnstakeAll) (*types.MsgUnstakeResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	staker := sdk.MustAccAddressFromBech32(msg.Staker)

	var (
		shares, value uint64
		vault         *types.Vault
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		shares, value, vault, err = m.keeper.UnstakeAll(ctx, staker, msg.UnderlyingDenom)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &types.MsgUnstakeResponse{
		SharesBurned:       strconv.FormatUint(shares, 10),
		UnderlyingReturned: strconv.FormatUint(value, 10),
		ExchangeRate:       vault.ExchangeRate().String(),
	}, nil
}

// FundVault handles MsgFundVault
func (m *MsgServer) FundVault(ctx context.Context, msg *types.MsgFundVault) (*types.MsgFundVaultResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	amount, _ := types.ParseAmount(msg.Amount)
	funder := sdk.MustAccAddressFromBech32(msg.Funder)

	var vault *types.Vault
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		vault, err = m.keeper.FundVault(ctx, funder, msg.UnderlyingDenom, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fundResponse(amount, vault), nil
}

// SendStakingReward handles MsgSendStakingReward
func (m *MsgServer) SendStakingReward(ctx context.Context, msg *types.MsgSendStakingReward) (*types.MsgFundVaultResponse, error) {
	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}
	funder := sdk.MustAccAddressFromBech32(msg.Funder)

	var (
		reward uint64
		vault  *types.Vault
	)
	err := atomically(ctx, func(ctx sdk.Context) (err error) {
		reward, vault, err = m.keeper.SendStakingReward(ctx, funder, msg.UnderlyingDenom, msg.ApyBps, msg.PeriodsPerYear)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fundResponse(reward, vault), nil
}

func fundResponse(deposited uint64, vault *types.Vault) *types.MsgFundVaultResponse {
	return &types.MsgFundVaultResponse{
		Deposited:       strconv.FormatUint(deposited, 10),
		TotalUnderlying: strconv.FormatUint(vault.TotalUnderlying, 10),
		ExchangeRate:    vault.ExchangeRate().String(),
	}
}
