package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

// InitGenesis loads pools, positions and the pool sequence
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	for i := range gs.Pools {
		pool := gs.Pools[i]
		k.SetPool(ctx, &pool)
	}
	for i := range gs.Users {
		user := gs.Users[i]
		k.SetUser(ctx, &user)
	}
	seq := gs.NextSequence
	if seq == 0 {
		seq = 1
	}
	k.SetNextSequence(ctx, seq)
}

// ExportGenesis returns the module state
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	for _, pool := range k.GetAllPools(ctx) {
		gs.Pools = append(gs.Pools, *pool)
	}
	for _, user := range k.GetAllUsers(ctx) {
		gs.Users = append(gs.Users, *user)
	}
	gs.NextSequence = k.GetNextSequence(ctx)
	return gs
}
