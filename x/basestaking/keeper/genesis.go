package keeper

import (
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// InitGenesis loads vault records. Balances are owned by the bank genesis.
func (k *Keeper) InitGenesis(ctx sdk.Context, gs types.GenesisState) {
	for i := range gs.Vaults {
		vault := gs.Vaults[i]
		k.SetVault(ctx, &vault)
	}
}

// ExportGenesis returns every vault record
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	gs := types.DefaultGenesis()
	for _, vault := range k.GetAllVaults(ctx) {
		gs.Vaults = append(gs.Vaults, *vault)
	}
	return gs
}
