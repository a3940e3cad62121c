package keeper

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/creator-staking/pkg/kvbank"
	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// mintFailingBank moves coins normally but refuses to mint
type mintFailingBank struct {
	*kvbank.Keeper
}

func (b mintFailingBank) MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	return errors.New("mint disabled")
}

func TestMsgServerFlow(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1000)
	fund(t, bank, ctx, bob, 100)
	srv := NewMsgServerImpl(k)

	initRes, err := srv.InitializeVault(ctx, &types.MsgInitializeVault{Creator: alice.String(), UnderlyingDenom: testDenom})
	require.NoError(t, err)
	require.Equal(t, types.ShareDenom(testDenom), initRes.ShareDenom)

	stakeRes, err := srv.Stake(ctx, &types.MsgStake{Staker: alice.String(), UnderlyingDenom: testDenom, Amount: "1000"})
	require.NoError(t, err)
	require.Equal(t, "1000", stakeRes.SharesMinted)

	fundRes, err := srv.FundVault(ctx, &types.MsgFundVault{Funder: bob.String(), UnderlyingDenom: testDenom, Amount: "100"})
	require.NoError(t, err)
	require.Equal(t, "1100", fundRes.TotalUnderlying)

	unstakeRes, err := srv.Unstake(ctx, &types.MsgUnstake{Staker: alice.String(), UnderlyingDenom: testDenom, Shares: "500"})
	require.NoError(t, err)
	require.Equal(t, "550", unstakeRes.UnderlyingReturned)

	// events from committed messages reach the parent context
	var stakes int
	for _, ev := range ctx.EventManager().Events() {
		if ev.Type == types.EventTypeStake {
			stakes++
		}
	}
	require.Equal(t, 1, stakes)

	_, err = srv.Stake(ctx, &types.MsgStake{Staker: alice.String(), UnderlyingDenom: testDenom, Amount: "0"})
	require.ErrorIs(t, err, types.ErrZeroAmount)

	_, err = srv.Stake(ctx, &types.MsgStake{Staker: "not-an-address", UnderlyingDenom: testDenom, Amount: "1"})
	require.ErrorIs(t, err, types.ErrInvalidAddress)
}

func TestMsgServerRollsBackFailedStake(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1000)
	if _, err := k.InitializeVault(ctx, alice, testDenom); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	failing := NewKeeper(k.cdc, k.storeKey, mintFailingBank{bank}, log.NewNopLogger())
	srv := NewMsgServerImpl(failing)

	_, err := srv.Stake(ctx, &types.MsgStake{Staker: alice.String(), UnderlyingDenom: testDenom, Amount: "400"})
	require.Error(t, err)

	// the underlying transfer ran before the mint failed and must be undone
	require.Equal(t, uint64(1000), bank.GetBalance(ctx, alice, testDenom).Amount.Uint64())
	require.True(t, bank.GetBalance(ctx, VaultAddress(testDenom), testDenom).IsZero())
	vault := k.GetVault(ctx, testDenom)
	require.Zero(t, vault.TotalUnderlying)
	require.Zero(t, vault.TotalShares)
}
