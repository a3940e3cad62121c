package keeper

import (
	"testing"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/creator-staking/pkg/kvbank"
	"github.com/openalpha/creator-staking/x/basestaking/types"
)

const testDenom = "ucreator"

var (
	alice = sdk.AccAddress([]byte("alice_______________"))
	bob   = sdk.AccAddress([]byte("bob_________________"))
)

// setupKeeper creates a keeper and bank over one in-memory multistore
func setupKeeper(tb testing.TB) (*Keeper, *kvbank.Keeper, sdk.Context) {
	tb.Helper()

	storeKey := storetypes.NewKVStoreKey(types.StoreKey)
	bankKey := storetypes.NewKVStoreKey(kvbank.StoreKey)
	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	stateStore.MountStoreWithDB(bankKey, storetypes.StoreTypeIAVL, db)
	if err := stateStore.LoadLatestVersion(); err != nil {
		tb.Fatalf("failed to load store: %v", err)
	}

	header := cmtproto.Header{Height: 1, Time: time.Unix(1_700_000_000, 0)}
	ctx := sdk.NewContext(stateStore, header, false, log.NewNopLogger())

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	bank := kvbank.NewKeeper(bankKey, log.NewNopLogger())
	return NewKeeper(cdc, storeKey, bank, log.NewNopLogger()), bank, ctx
}

func fund(tb testing.TB, bank *kvbank.Keeper, ctx sdk.Context, addr sdk.AccAddress, amount uint64) {
	tb.Helper()
	if err := bank.FundAccount(ctx, addr, coins(testDenom, amount)); err != nil {
		tb.Fatalf("fund account: %v", err)
	}
}

func TestInitializeVault(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	vault, err := k.InitializeVault(ctx, alice, testDenom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vault.ShareDenom != "xstake/"+testDenom {
		t.Errorf("expected share denom xstake/%s, got %s", testDenom, vault.ShareDenom)
	}
	if vault.TotalShares != 0 || vault.TotalUnderlying != 0 {
		t.Errorf("expected empty vault, got %d/%d", vault.TotalUnderlying, vault.TotalShares)
	}
	if !vault.ExchangeRate().Equal(math.LegacyOneDec()) {
		t.Errorf("expected seed rate 1, got %s", vault.ExchangeRate())
	}

	if _, err := k.InitializeVault(ctx, bob, testDenom); !types.ErrAlreadyExists.Is(err) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := k.InitializeVault(ctx, bob, "xstake/"+testDenom); !types.ErrInvalidDenom.Is(err) {
		t.Errorf("expected ErrInvalidDenom for a share denom, got %v", err)
	}
}

// stake 1000, fund 100, unstake 500 returns 550
func TestVaultLifecycle(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1000)
	fund(t, bank, ctx, bob, 100)

	_, err := k.InitializeVault(ctx, alice, testDenom)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	shares, _, err := k.Stake(ctx, alice, testDenom, 1000)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if shares != 1000 {
		t.Errorf("expected 1000 shares on bootstrap, got %d", shares)
	}

	vault, err := k.FundVault(ctx, bob, testDenom, 100)
	if err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	if !vault.ExchangeRate().Equal(math.LegacyMustNewDecFromStr("1.1")) {
		t.Errorf("expected rate 1.1, got %s", vault.ExchangeRate())
	}

	returned, vault, err := k.Unstake(ctx, alice, testDenom, 500)
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if returned != 550 {
		t.Errorf("expected 550 returned, got %d", returned)
	}
	if vault.TotalUnderlying != 550 || vault.TotalShares != 500 {
		t.Errorf("expected 550/500 remaining, got %d/%d", vault.TotalUnderlying, vault.TotalShares)
	}

	if got := bank.GetBalance(ctx, alice, testDenom).Amount.Uint64(); got != 550 {
		t.Errorf("expected alice underlying 550, got %d", got)
	}
	if got := k.ShareBalance(ctx, alice, testDenom); got != 500 {
		t.Errorf("expected alice shares 500, got %d", got)
	}
	if got := bank.GetBalance(ctx, VaultAddress(testDenom), testDenom).Amount.Uint64(); got != vault.TotalUnderlying {
		t.Errorf("custody %d does not match total underlying %d", got, vault.TotalUnderlying)
	}
	if got := bank.GetSupply(ctx, vault.ShareDenom).Amount.Uint64(); got != vault.TotalShares {
		t.Errorf("share supply %d does not match total shares %d", got, vault.TotalShares)
	}

	// last shares out take the whole remainder
	shares, returned, vault, err = k.UnstakeAll(ctx, alice, testDenom)
	if err != nil {
		t.Fatalf("unstake all: %v", err)
	}
	if shares != 500 || returned != 550 {
		t.Errorf("expected 500 shares for 550, got %d for %d", shares, returned)
	}
	if !vault.IsEmpty() || vault.TotalUnderlying != 0 {
		t.Errorf("expected vault back to 0/0, got %d/%d", vault.TotalUnderlying, vault.TotalShares)
	}
}

func TestVaultErrors(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1000)
	if _, err := k.InitializeVault(ctx, alice, testDenom); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	testCases := []struct {
		name    string
		run     func() error
		wantErr *errorsmod.Error
	}{
		{
			name:    "unstake on empty vault",
			run:     func() error { _, _, err := k.Unstake(ctx, alice, testDenom, 1); return err },
			wantErr: types.ErrVaultEmpty,
		},
		{
			name:    "fund empty vault",
			run:     func() error { _, err := k.FundVault(ctx, alice, testDenom, 10); return err },
			wantErr: types.ErrVaultEmpty,
		},
		{
			name:    "stake zero",
			run:     func() error { _, _, err := k.Stake(ctx, alice, testDenom, 0); return err },
			wantErr: types.ErrZeroAmount,
		},
		{
			name:    "stake more than balance",
			run:     func() error { _, _, err := k.Stake(ctx, alice, testDenom, 1001); return err },
			wantErr: types.ErrInsufficientFunds,
		},
		{
			name:    "stake unknown vault",
			run:     func() error { _, _, err := k.Stake(ctx, alice, "uother", 1); return err },
			wantErr: types.ErrVaultNotFound,
		},
		{
			name:    "unstake all without shares",
			run:     func() error { _, _, _, err := k.UnstakeAll(ctx, bob, testDenom); return err },
			wantErr: types.ErrZeroAmount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !tc.wantErr.Is(err) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	if _, _, err := k.Stake(ctx, alice, testDenom, 400); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, _, err := k.Unstake(ctx, alice, testDenom, 0); !types.ErrZeroAmount.Is(err) {
		t.Errorf("expected ErrZeroAmount, got %v", err)
	}
	if _, _, err := k.Unstake(ctx, alice, testDenom, 401); !types.ErrInsufficientShares.Is(err) {
		t.Errorf("expected ErrInsufficientShares, got %v", err)
	}
	if _, _, err := k.Unstake(ctx, bob, testDenom, 1); !types.ErrInsufficientShares.Is(err) {
		t.Errorf("expected ErrInsufficientShares for non-holder, got %v", err)
	}
}

func TestVaultOverflow(t *testing.T) {
	const maxU64 = ^uint64(0)

	testCases := []struct {
		name            string
		totalUnderlying uint64
		totalShares     uint64
		run             func(k *Keeper, ctx sdk.Context) error
	}{
		{
			name:            "stake overflows total underlying",
			totalUnderlying: maxU64 - 10,
			totalShares:     maxU64 - 10,
			run:             func(k *Keeper, ctx sdk.Context) error { _, _, err := k.Stake(ctx, alice, testDenom, 20); return err },
		},
		{
			name:            "stake overflows total shares",
			totalUnderlying: 1000,
			totalShares:     maxU64 - 5,
			run:             func(k *Keeper, ctx sdk.Context) error { _, _, err := k.Stake(ctx, alice, testDenom, 1000); return err },
		},
		{
			name:            "minted shares exceed u64",
			totalUnderlying: 1,
			totalShares:     maxU64 / 2,
			run:             func(k *Keeper, ctx sdk.Context) error { _, _, err := k.Stake(ctx, alice, testDenom, 10); return err },
		},
		{
			name:            "fund overflows total underlying",
			totalUnderlying: maxU64 - 5,
			totalShares:     10,
			run:             func(k *Keeper, ctx sdk.Context) error { _, err := k.FundVault(ctx, alice, testDenom, 10); return err },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k, bank, ctx := setupKeeper(t)
			fund(t, bank, ctx, alice, 1000)

			vault := types.NewVault(testDenom, alice.String(), ctx.BlockTime().Unix())
			vault.TotalUnderlying = tc.totalUnderlying
			vault.TotalShares = tc.totalShares
			k.SetVault(ctx, vault)

			if err := tc.run(k, ctx); !types.ErrArithmeticOverflow.Is(err) {
				t.Fatalf("expected ErrArithmeticOverflow, got %v", err)
			}

			after := k.GetVault(ctx, testDenom)
			if after.TotalUnderlying != tc.totalUnderlying || after.TotalShares != tc.totalShares {
				t.Errorf("vault changed to %d/%d", after.TotalUnderlying, after.TotalShares)
			}
			if got := bank.GetBalance(ctx, alice, testDenom).Amount; !got.Equal(math.NewInt(1000)) {
				t.Errorf("expected balance 1000, got %s", got)
			}
			if got := bank.GetBalance(ctx, alice, types.ShareDenom(testDenom)).Amount; !got.IsZero() {
				t.Errorf("expected no shares, got %s", got)
			}
			if got := bank.GetBalance(ctx, VaultAddress(testDenom), testDenom).Amount; !got.IsZero() {
				t.Errorf("expected empty custody, got %s", got)
			}
		})
	}
}

func TestStakeRoundsInFavorOfVault(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1000)
	fund(t, bank, ctx, bob, 1000)
	if _, err := k.InitializeVault(ctx, alice, testDenom); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, _, err := k.Stake(ctx, alice, testDenom, 300); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, err := k.FundVault(ctx, alice, testDenom, 150); err != nil {
		t.Fatalf("fund: %v", err)
	}

	// rate 1.5: 1 underlying mints floor(1*300/450) = 0 shares
	if _, _, err := k.Stake(ctx, bob, testDenom, 1); !types.ErrZeroAmount.Is(err) {
		t.Errorf("expected ErrZeroAmount for dust deposit, got %v", err)
	}

	before := k.GetVault(ctx, testDenom).ExchangeRate()
	shares, vault, err := k.Stake(ctx, bob, testDenom, 100)
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if shares != 66 {
		t.Errorf("expected floor(100*300/450)=66 shares, got %d", shares)
	}
	if vault.ExchangeRate().LT(before) {
		t.Errorf("exchange rate fell from %s to %s", before, vault.ExchangeRate())
	}

	estimate, err := k.EstimateUnstake(ctx, testDenom, 66)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if estimate > 100 {
		t.Errorf("round trip returned %d for a 100 deposit", estimate)
	}
}

func TestSendStakingReward(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 1_000_000)
	fund(t, bank, ctx, bob, 1_000_000)
	if _, err := k.InitializeVault(ctx, alice, testDenom); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, _, err := k.Stake(ctx, alice, testDenom, 1_000_000); err != nil {
		t.Fatalf("stake: %v", err)
	}

	reward, vault, err := k.SendStakingReward(ctx, bob, testDenom, types.DefaultRewardApyBps, types.DefaultRewardPeriodsYear)
	if err != nil {
		t.Fatalf("send reward: %v", err)
	}
	if reward != 9_166 {
		t.Errorf("expected monthly reward 9166, got %d", reward)
	}
	if vault.TotalUnderlying != 1_009_166 {
		t.Errorf("expected total underlying 1009166, got %d", vault.TotalUnderlying)
	}

	if _, _, err := k.SendStakingReward(ctx, bob, testDenom, 0, 12); !types.ErrInvalidRewardBps.Is(err) {
		t.Errorf("expected ErrInvalidRewardBps, got %v", err)
	}
}

func TestGenesisRoundTrip(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	fund(t, bank, ctx, alice, 500)
	if _, err := k.InitializeVault(ctx, alice, testDenom); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, _, err := k.Stake(ctx, alice, testDenom, 500); err != nil {
		t.Fatalf("stake: %v", err)
	}

	gs := k.ExportGenesis(ctx)
	if err := gs.Validate(); err != nil {
		t.Fatalf("exported genesis invalid: %v", err)
	}

	k2, _, ctx2 := setupKeeper(t)
	k2.InitGenesis(ctx2, *gs)
	got := k2.GetVault(ctx2, testDenom)
	if got == nil || got.TotalShares != 500 || got.TotalUnderlying != 500 {
		t.Errorf("vault not restored: %+v", got)
	}

	bad := types.GenesisState{Vaults: []types.Vault{*got, *got}}
	if err := bad.Validate(); !types.ErrInvalidGenesis.Is(err) {
		t.Errorf("expected ErrInvalidGenesis for duplicates, got %v", err)
	}
}
