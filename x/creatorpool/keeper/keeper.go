package keeper

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	"github.com/cosmos/cosmos-sdk/codec"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/cosmos/cosmos-sdk/types/address"

	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

// Store key prefixes
var (
	PoolKeyPrefix = []byte{0x01}
	UserKeyPrefix = []byte{0x02}
	SequenceKey   = []byte{0x03}
)

// BankKeeper defines the expected interface for the bank module
type BankKeeper interface {
	GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin
	SendCoins(ctx context.Context, fromAddr, toAddr sdk.AccAddress, amt sdk.Coins) error
}

// Keeper manages reward pools and user positions
type Keeper struct {
	cdc        codec.BinaryCodec
	storeKey   storetypes.StoreKey
	bankKeeper BankKeeper
	logger     log.Logger
}

// NewKeeper creates a new creatorpool keeper
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
		logger:     logger.With("module", "x/creatorpool"),
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

// StakingVaultAddress holds the staked tokens of a pool
func StakingVaultAddress(poolID string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(types.ModuleName, []byte("staking-vault/"+poolID)))
}

// RewardVaultAddress holds the undistributed reward tokens of a pool
func RewardVaultAddress(poolID string) sdk.AccAddress {
	return sdk.AccAddress(address.Module(types.ModuleName, []byte("reward-vault/"+poolID)))
}

// PoolKey returns the store key of a pool
func PoolKey(poolID string) []byte {
	return append(append([]byte{}, PoolKeyPrefix...), []byte(poolID)...)
}

// UserPoolPrefix returns the prefix under which a pool's positions are stored
func UserPoolPrefix(poolID string) []byte {
	key := append([]byte{}, UserKeyPrefix...)
	key = append(key, byte(len(poolID)))
	return append(key, []byte(poolID)...)
}

// UserKey returns the store key of a position
func UserKey(poolID, owner string) []byte {
	return append(UserPoolPrefix(poolID), []byte(owner)...)
}

// GetNextSequence returns the sequence the next pool will use
func (k *Keeper) GetNextSequence(ctx sdk.Context) uint64 {
	bz := k.GetStore(ctx).Get(SequenceKey)
	if bz == nil {
		return 1
	}
	return binary.BigEndian.Uint64(bz)
}

// SetNextSequence stores the next pool sequence
func (k *Keeper) SetNextSequence(ctx sdk.Context, seq uint64) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, seq)
	k.GetStore(ctx).Set(SequenceKey, bz)
}

// SetPool saves a pool to the store
func (k *Keeper) SetPool(ctx sdk.Context, pool *types.Pool) {
	bz, _ := json.Marshal(pool)
	k.GetStore(ctx).Set(PoolKey(pool.PoolID), bz)
}

// GetPool retrieves a pool by id
func (k *Keeper) GetPool(ctx sdk.Context, poolID string) *types.Pool {
	bz := k.GetStore(ctx).Get(PoolKey(poolID))
	if bz == nil {
		return nil
	}
	var pool types.Pool
	if err := json.Unmarshal(bz, &pool); err != nil {
		return nil
	}
	return &pool
}

// GetAllPools returns every pool in key order
func (k *Keeper) GetAllPools(ctx sdk.Context) []*types.Pool {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), PoolKeyPrefix)
	defer iterator.Close()

	var pools []*types.Pool
	for ; iterator.Valid(); iterator.Next() {
		var pool types.Pool
		if err := json.Unmarshal(iterator.Value(), &pool); err != nil {
			continue
		}
		pools = append(pools, &pool)
	}
	return pools
}

// SetUser saves a position to the store
func (k *Keeper) SetUser(ctx sdk.Context, user *types.UserPosition) {
	bz, _ := json.Marshal(user)
	k.GetStore(ctx).Set(UserKey(user.PoolID, user.Owner), bz)
}

// GetUser retrieves a position
func (k *Keeper) GetUser(ctx sdk.Context, poolID, owner string) *types.UserPosition {
	bz := k.GetStore(ctx).Get(UserKey(poolID, owner))
	if bz == nil {
		return nil
	}
	var user types.UserPosition
	if err := json.Unmarshal(bz, &user); err != nil {
		return nil
	}
	return &user
}

// GetPoolUsers returns every position in a pool
func (k *Keeper) GetPoolUsers(ctx sdk.Context, poolID string) []*types.UserPosition {
	return k.iterateUsers(ctx, UserPoolPrefix(poolID))
}

// GetAllUsers returns every position in every pool
func (k *Keeper) GetAllUsers(ctx sdk.Context) []*types.UserPosition {
	return k.iterateUsers(ctx, UserKeyPrefix)
}

func (k *Keeper) iterateUsers(ctx sdk.Context, prefix []byte) []*types.UserPosition {
	iterator := storetypes.KVStorePrefixIterator(k.GetStore(ctx), prefix)
	defer iterator.Close()

	var users []*types.UserPosition
	for ; iterator.Valid(); iterator.Next() {
		var user types.UserPosition
		if err := json.Unmarshal(iterator.Value(), &user); err != nil {
			continue
		}
		users = append(users, &user)
	}
	return users
}

func coins(denom string, amount uint64) sdk.Coins {
	return sdk.NewCoins(sdk.NewCoin(denom, math.NewIntFromUint64(amount)))
}
