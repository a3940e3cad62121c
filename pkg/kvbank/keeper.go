// Package kvbank provides a minimal bank keeper whose balances and supply live
// in a KVStore. It backs the standalone API service and keeper tests; because
// its state sits in the same multistore as the modules, a discarded
// CacheContext also discards any coin movement.
package kvbank

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
)

// StoreKey is the conventional store key name for the bank store
const StoreKey = "kvbank"

var (
	BalanceKeyPrefix = []byte{0x01}
	SupplyKeyPrefix  = []byte{0x02}
)

// Keeper keeps balances and total supply per denom
type Keeper struct {
	storeKey storetypes.StoreKey
	logger   log.Logger
}

// NewKeeper creates a new bank keeper over storeKey
func NewKeeper(storeKey storetypes.StoreKey, logger log.Logger) *Keeper {
	return &Keeper{
		storeKey: storeKey,
		logger:   logger.With("module", "kvbank"),
	}
}

func balanceKey(addr sdk.AccAddress, denom string) []byte {
	key := append([]byte{}, BalanceKeyPrefix...)
	key = append(key, byte(len(addr)))
	key = append(key, addr...)
	return append(key, []byte(denom)...)
}

func supplyKey(denom string) []byte {
	return append(append([]byte{}, SupplyKeyPrefix...), []byte(denom)...)
}

func (k *Keeper) store(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(k.storeKey)
}

func readInt(store storetypes.KVStore, key []byte) math.Int {
	bz := store.Get(key)
	if bz == nil {
		return math.ZeroInt()
	}
	var amount math.Int
	if err := amount.Unmarshal(bz); err != nil {
		return math.ZeroInt()
	}
	return amount
}

func writeInt(store storetypes.KVStore, key []byte, amount math.Int) {
	if amount.IsZero() {
		store.Delete(key)
		return
	}
	bz, _ := amount.Marshal()
	store.Set(key, bz)
}

// GetBalance returns the balance of denom held by addr
func (k *Keeper) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	return sdk.NewCoin(denom, readInt(k.store(ctx), balanceKey(addr, denom)))
}

// GetSupply returns the total supply of denom
func (k *Keeper) GetSupply(ctx context.Context, denom string) sdk.Coin {
	return sdk.NewCoin(denom, readInt(k.store(ctx), supplyKey(denom)))
}

// SendCoins moves amt from one address to another. All balances are checked
// before any write.
func (k *Keeper) SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errors.Wrap(sdkerrors.ErrInvalidCoins, amt.String())
	}
	store := k.store(ctx)
	for _, coin := range amt {
		bal := readInt(store, balanceKey(fromAddr, coin.Denom))
		if bal.LT(coin.Amount) {
			return errors.Wrapf(sdkerrors.ErrInsufficientFunds, "%s%s is smaller than %s", bal, coin.Denom, coin)
		}
	}
	for _, coin := range amt {
		fromKey := balanceKey(fromAddr, coin.Denom)
		writeInt(store, fromKey, readInt(store, fromKey).Sub(coin.Amount))
		toKey := balanceKey(toAddr, coin.Denom)
		writeInt(store, toKey, readInt(store, toKey).Add(coin.Amount))
	}
	return nil
}

// SendCoinsFromAccountToModule moves amt from an account to a module account
func (k *Keeper) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return k.SendCoins(ctx, senderAddr, authtypes.NewModuleAddress(recipientModule), amt)
}

// SendCoinsFromModuleToAccount moves amt from a module account to an account
func (k *Keeper) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return k.SendCoins(ctx, authtypes.NewModuleAddress(senderModule), recipientAddr, amt)
}

// MintCoins creates amt in the module account and raises supply
func (k *Keeper) MintCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errors.Wrap(sdkerrors.ErrInvalidCoins, amt.String())
	}
	k.credit(ctx, authtypes.NewModuleAddress(moduleName), amt)
	return nil
}

// BurnCoins destroys amt held by the module account and lowers supply
func (k *Keeper) BurnCoins(ctx context.Context, moduleName string, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errors.Wrap(sdkerrors.ErrInvalidCoins, amt.String())
	}
	store := k.store(ctx)
	moduleAddr := authtypes.NewModuleAddress(moduleName)
	for _, coin := range amt {
		bal := readInt(store, balanceKey(moduleAddr, coin.Denom))
		if bal.LT(coin.Amount) {
			return errors.Wrapf(sdkerrors.ErrInsufficientFunds, "module %s holds %s%s, burning %s", moduleName, bal, coin.Denom, coin)
		}
	}
	for _, coin := range amt {
		key := balanceKey(moduleAddr, coin.Denom)
		writeInt(store, key, readInt(store, key).Sub(coin.Amount))
		sKey := supplyKey(coin.Denom)
		writeInt(store, sKey, readInt(store, sKey).Sub(coin.Amount))
	}
	return nil
}

// FundAccount mints amt directly to addr. Used to seed balances in standalone
// mode and tests.
func (k *Keeper) FundAccount(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) error {
	if !amt.IsValid() {
		return errors.Wrap(sdkerrors.ErrInvalidCoins, amt.String())
	}
	k.credit(ctx, addr, amt)
	k.logger.Debug("Account funded", "address", addr.String(), "amount", amt.String())
	return nil
}

func (k *Keeper) credit(ctx context.Context, addr sdk.AccAddress, amt sdk.Coins) {
	store := k.store(ctx)
	for _, coin := range amt {
		key := balanceKey(addr, coin.Denom)
		writeInt(store, key, readInt(store, key).Add(coin.Amount))
		sKey := supplyKey(coin.Denom)
		writeInt(store, sKey, readInt(store, sKey).Add(coin.Amount))
	}
}
