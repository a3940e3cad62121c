package app

import (
	"testing"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

type fakeVaults map[string]*basestakingtypes.Vault

func (f fakeVaults) GetVault(_ sdk.Context, denom string) *basestakingtypes.Vault { return f[denom] }

type fakePools struct {
	pools map[string]*creatorpooltypes.Pool
	users map[string]*creatorpooltypes.UserPosition
}

func (f fakePools) GetPool(_ sdk.Context, poolID string) *creatorpooltypes.Pool {
	return f.pools[poolID]
}

func (f fakePools) GetUser(_ sdk.Context, poolID, owner string) *creatorpooltypes.UserPosition {
	return f.users[poolID+"/"+owner]
}

func TestStakeValuer(t *testing.T) {
	vaults := fakeVaults{
		"ucreator": {UnderlyingDenom: "ucreator", ShareDenom: "xstake/ucreator", TotalUnderlying: 1100, TotalShares: 1000},
	}
	pools := fakePools{
		pools: map[string]*creatorpooltypes.Pool{
			"pool-1": {PoolID: "pool-1", StakingDenom: "xstake/ucreator"},
			"pool-2": {PoolID: "pool-2", StakingDenom: "uplain"},
			"pool-3": {PoolID: "pool-3", StakingDenom: "xstake/umissing"},
		},
		users: map[string]*creatorpooltypes.UserPosition{
			"pool-1/alice": {PoolID: "pool-1", Owner: "alice", BalanceStaked: 500},
			"pool-1/bob":   {PoolID: "pool-1", Owner: "bob"},
			"pool-2/alice": {PoolID: "pool-2", Owner: "alice", BalanceStaked: 70},
			"pool-3/alice": {PoolID: "pool-3", Owner: "alice", BalanceStaked: 1},
		},
	}
	valuer := NewStakeValuer(vaults, pools)

	tests := []struct {
		name       string
		poolID     string
		owner      string
		underlying string
		value      uint64
		err        error
	}{
		{"share denom valued at rate", "pool-1", "alice", "ucreator", 550, nil},
		{"zero stake", "pool-1", "bob", "ucreator", 0, nil},
		{"plain denom one to one", "pool-2", "alice", "uplain", 70, nil},
		{"missing vault", "pool-3", "alice", "", 0, basestakingtypes.ErrVaultNotFound},
		{"missing pool", "pool-9", "alice", "", 0, creatorpooltypes.ErrPoolNotFound},
		{"missing user", "pool-1", "carol", "", 0, creatorpooltypes.ErrUserNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := valuer.Value(sdk.Context{}, tc.poolID, tc.owner)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.underlying, got.UnderlyingDenom)
			require.Equal(t, tc.value, got.UnderlyingValue)
		})
	}
}
