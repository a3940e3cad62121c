package keeper

import (
	"context"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/openalpha/creator-staking/x/basestaking/types"
)

// Store key prefixes
var (
	VaultKeyPrefix = []byte{0x01}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error
	SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error
	SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error
	MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
	BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error
}

// Keeper manages vault state and custody
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
}

// NewKeeper creates a new basestaking keeper
func NewKeeper(
	cdc codec.BinaryCodec,
	storeKey storetypes.StoreKey,
	bankKeeper BankKeeper,
	logger log.Logger,
) *Keeper {
	return &Keeper{
		cdc:        cdc,
		storeKey:   storeKey,
		bankKeeper: bankKeeper,
		logger:     logger.With("module", "x/basestaking"),
	}
}

// Logger returns the module logger
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// GetStore returns the KVStore
func (k *Keeper) GetStore(ctx sdk.Context) storetypes.KVStore {
	return ctx.KVStore(k.storeKey)
}

// VaultAddress returns the custody address holding a vault's underlying
func VaultAddress(underlyingDenom string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(types.ModuleName, []byte("stake-vault/"+underlyingDenom)))
}

// VaultKey returns the store key of a vault record
func VaultKey(underlyingDenom string) []byte {
	return append(append([]byte{}, VaultKeyPrefix...), []byte(underlyingDenom)...)
}

// SetVault saves a vault to the store
func (k *Keeper) SetVault(ctx sdk.Context, vault *types.Vault) {
	bz, _ := json.Marshal(vault)
	k.GetStore(ctx).Set(VaultKey(vault.UnderlyingDenom), bz)
}

// GetVault retrieves a vault by underlying denom
func (k *Keeper) GetVault(ctx sdk.Context, underlyingDenom string) *types.Vault {
	bz := k.GetStore(ctx).Get(VaultKey(underlyingDenom))
	if bz == nil {
		return nil
	}
	var vault types.Vault
	if err := json.Unmarshal(bz, &vault); err != nil {
		return nil
	}
	return &vault
}

// GetAllVaults returns all vaults ordered by underlying denom
func (k *Keeper) GetAllVaults(ctx sdk.Context) []*types.Vault {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), VaultKeyPrefix)
	defer iterator.Close()

	var vaults []*types.Vault
	for ; iterator.Valid(); iterator.Next() {
		var vault types.Vault
		if err := json.Unmarshal(iterator.Value(), &vault); err != nil {
			continue
		}
		vaults = append(vaults, &vault)
	}
	return vaults
}

// ShareBalance returns the share tokens held by owner for a vault
func (k *Keeper) ShareBalance(ctx context.Context, owner sdk.AccAddress, underlyingDenom string) uint64 {
	return k.bankKeeper.GetBalance(ctx, owner, types.ShareDenom(underlyingDenom)).Amount.Uint64()
}

// UnderlyingBalance returns the underlying tokens held by owner
func (k *Keeper) UnderlyingBalance(ctx context.Context, owner sdk.AccAddress, underlyingDenom string) math.Int {
	return k.bankKeeper.GetBalance(ctx, owner, underlyingDenom).Amount
}

func coins(denom string, amount uint64) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, math.NewIntFromUint64(amount)))
}
