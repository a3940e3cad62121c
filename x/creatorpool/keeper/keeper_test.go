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

	"github.com/openalpha/creator-staking/pkg/fixedpoint"
	"github.com/openalpha/creator-staking/pkg/kvbank"
	"github.com/openalpha/creator-staking/x/creatorpool/types"
)

const (
	stakeDenom  = "xstake/ucreator"
	rewardDenom = "ureward"
	startTime   = int64(1_700_000_000)
)

var (
	creator = sdk.AccAddress([]byte("creator_____________"))
	user1   = sdk.AccAddress([]byte("user1_______________"))
	user2   = sdk.AccAddress([]byte("user2_______________"))
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

	header := cmtproto.Header{Height: 1, Time: time.Unix(startTime, 0)}
	ctx := sdk.NewContext(stateStore, header, false, log.NewNopLogger())

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	bank := kvbank.NewKeeper(bankKey, log.NewNopLogger())
	return NewKeeper(cdc, storeKey, bank, log.NewNopLogger()), bank, ctx
}

func at(ctx sdk.Context, offset int64) sdk.Context {
	return ctx.WithBlockTime(time.Unix(startTime+offset, 0))
}

func mint(tb testing.TB, bank *kvbank.Keeper, ctx sdk.Context, addr sdk.AccAddress, denom string, amount uint64) {
	tb.Helper()
	if err := bank.FundAccount(ctx, addr, coins(denom, amount)); err != nil {
		tb.Fatalf("fund account: %v", err)
	}
}

// setupPool creates a funded-ready pool with both users registered
func setupPool(tb testing.TB, duration uint64) (*Keeper, *kvbank.Keeper, sdk.Context, string) {
	tb.Helper()
	k, bank, ctx := setupKeeper(tb)
	mint(tb, bank, ctx, creator, rewardDenom, 1_000_000)
	mint(tb, bank, ctx, user1, stakeDenom, 10_000)
	mint(tb, bank, ctx, user2, stakeDenom, 10_000)

	pool, err := k.InitializePool(ctx, creator, stakeDenom, rewardDenom, duration)
	if err != nil {
		tb.Fatalf("initialize pool: %v", err)
	}
	for _, u := range []sdk.AccAddress{user1, user2} {
		if _, err := k.CreateUser(ctx, u, pool.PoolID); err != nil {
			tb.Fatalf("create user: %v", err)
		}
	}
	return k, bank, ctx, pool.PoolID
}

func earned(tb testing.TB, k *Keeper, ctx sdk.Context, poolID string, owner sdk.AccAddress) uint64 {
	tb.Helper()
	e, err := k.Earned(ctx, poolID, owner)
	if err != nil {
		tb.Fatalf("earned: %v", err)
	}
	return e
}

func TestInitializePool(t *testing.T) {
	k, _, ctx := setupKeeper(t)

	pool, err := k.InitializePool(ctx, creator, stakeDenom, rewardDenom, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool.PoolID != "pool-1" {
		t.Errorf("expected pool-1, got %s", pool.PoolID)
	}
	if pool.RewardDurationEnd != startTime || pool.LastUpdateTime != startTime {
		t.Errorf("expected window to end at creation, got end=%d last=%d", pool.RewardDurationEnd, pool.LastUpdateTime)
	}
	if pool.RewardRate != 0 || pool.TotalStaked != 0 || pool.UserCount != 0 || !pool.RewardPerTokenStored.IsZero() {
		t.Errorf("expected zeroed pool, got %+v", pool)
	}

	second, err := k.InitializePool(ctx, creator, stakeDenom, rewardDenom, 30)
	if err != nil {
		t.Fatalf("second pool: %v", err)
	}
	if second.PoolID != "pool-2" {
		t.Errorf("expected pool-2, got %s", second.PoolID)
	}

	if _, err := k.InitializePool(ctx, creator, stakeDenom, rewardDenom, 0); !types.ErrInvalidDuration.Is(err) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
	if _, err := k.InitializePool(ctx, creator, "!", rewardDenom, 10); !types.ErrInvalidDenom.Is(err) {
		t.Errorf("expected ErrInvalidDenom, got %v", err)
	}
}

func TestCreateUser(t *testing.T) {
	k, _, ctx, poolID := setupPool(t, 12)

	if _, err := k.CreateUser(ctx, user1, poolID); !types.ErrAlreadyExists.Is(err) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := k.CreateUser(ctx, creator, "pool-99"); !types.ErrPoolNotFound.Is(err) {
		t.Errorf("expected ErrPoolNotFound, got %v", err)
	}

	user := k.GetUser(ctx, poolID, user1.String())
	if user == nil || user.BalanceStaked != 0 || user.RewardPending != 0 || !user.RewardPerTokenComplete.IsZero() {
		t.Errorf("expected zeroed position, got %+v", user)
	}
}

// duration 12, fund 1200, stakes of 200 and 400 at t=0, six seconds later
// the accumulator has grown by one token per staked unit.
func TestRewardScenario(t *testing.T) {
	k, bank, ctx, poolID := setupPool(t, 12)

	pool, err := k.Fund(ctx, creator, poolID, 1200)
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if pool.RewardRate != 100*fixedpoint.Precision {
		t.Errorf("expected rate 100 (scaled), got %d", pool.RewardRate)
	}
	if pool.RewardDurationEnd != startTime+12 {
		t.Errorf("expected window end %d, got %d", startTime+12, pool.RewardDurationEnd)
	}

	if _, _, err := k.Stake(ctx, user1, poolID, 200); err != nil {
		t.Fatalf("stake user1: %v", err)
	}
	pool, _, err = k.Stake(ctx, user2, poolID, 400)
	if err != nil {
		t.Fatalf("stake user2: %v", err)
	}
	if pool.TotalStaked != 600 || pool.UserCount != 2 {
		t.Errorf("expected 600 staked by 2 users, got %d by %d", pool.TotalStaked, pool.UserCount)
	}

	ctx6 := at(ctx, 6)
	rpt, err := k.RewardPerToken(ctx6, poolID)
	if err != nil {
		t.Fatalf("reward per token: %v", err)
	}
	if !rpt.Equal(math.NewUint(fixedpoint.Precision)) {
		t.Errorf("expected accumulator 1 (scaled), got %s", rpt)
	}
	if got := earned(t, k, ctx6, poolID, user1); got != 200 {
		t.Errorf("expected user1 earned 200, got %d", got)
	}
	if got := earned(t, k, ctx6, poolID, user2); got != 400 {
		t.Errorf("expected user2 earned 400, got %d", got)
	}

	claimed, err := k.ClaimReward(ctx6, user1, poolID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed != 200 {
		t.Errorf("expected claim of 200, got %d", claimed)
	}
	if got := bank.GetBalance(ctx6, user1, rewardDenom).Amount.Uint64(); got != 200 {
		t.Errorf("expected user1 reward balance 200, got %d", got)
	}
	if user := k.GetUser(ctx6, poolID, user1.String()); user.RewardPending != 0 {
		t.Errorf("expected pending zeroed, got %d", user.RewardPending)
	}

	// a second claim in the same block pays nothing
	claimed, err = k.ClaimReward(ctx6, user1, poolID)
	if err != nil {
		t.Fatalf("repeat claim: %v", err)
	}
	if claimed != 0 {
		t.Errorf("expected no-op claim, got %d", claimed)
	}
}

func TestRewardsStopAtWindowEnd(t *testing.T) {
	k, bank, ctx, poolID := setupPool(t, 12)
	if _, err := k.Fund(ctx, creator, poolID, 1200); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, _, err := k.Stake(ctx, user1, poolID, 200); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, _, err := k.Stake(ctx, user2, poolID, 400); err != nil {
		t.Fatalf("stake: %v", err)
	}

	late := at(ctx, 1_000)
	e1 := earned(t, k, late, poolID, user1)
	e2 := earned(t, k, late, poolID, user2)
	if e1 != 400 || e2 != 800 {
		t.Errorf("expected 400/800 after the window, got %d/%d", e1, e2)
	}

	for _, u := range []sdk.AccAddress{user1, user2} {
		if _, err := k.ClaimReward(late, u, poolID); err != nil {
			t.Fatalf("claim: %v", err)
		}
	}
	pool := k.GetPool(late, poolID)
	if pool.TotalClaimed != pool.TotalFunded {
		t.Errorf("expected every funded unit claimed, claimed %d of %d", pool.TotalClaimed, pool.TotalFunded)
	}
	if got := bank.GetBalance(late, RewardVaultAddress(poolID), rewardDenom).Amount.Uint64(); got != 0 {
		t.Errorf("expected reward custody drained, got %d", got)
	}
}

func TestFundRollsRemainderIntoNewRate(t *testing.T) {
	k, _, ctx, poolID := setupPool(t, 12)
	if _, err := k.Fund(ctx, creator, poolID, 1200); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, _, err := k.Stake(ctx, user1, poolID, 100); err != nil {
		t.Fatalf("stake: %v", err)
	}

	// halfway through, 600 is unemitted; 600 more arrives
	ctx6 := at(ctx, 6)
	pool, err := k.Fund(ctx6, creator, poolID, 600)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if pool.RewardRate != 100*fixedpoint.Precision {
		t.Errorf("expected (600+600)/12 = 100 (scaled), got %d", pool.RewardRate)
	}
	if pool.RewardDurationEnd != startTime+18 {
		t.Errorf("expected window end %d, got %d", startTime+18, pool.RewardDurationEnd)
	}
	// accrual at the old rate was flushed before the rate changed
	if !pool.RewardPerTokenStored.Equal(math.NewUint(6 * fixedpoint.Precision)) {
		t.Errorf("expected accumulator 6 (scaled), got %s", pool.RewardPerTokenStored)
	}

	if got := earned(t, k, at(ctx, 18), poolID, user1); got != 1800 {
		t.Errorf("expected every funded unit earned by the only staker, got %d", got)
	}
}

func TestAccrualIndependentOfOtherStakers(t *testing.T) {
	k, _, ctx, poolID := setupPool(t, 100)
	if _, err := k.Fund(ctx, creator, poolID, 10_000); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, _, err := k.Stake(ctx, user1, poolID, 300); err != nil {
		t.Fatalf("stake: %v", err)
	}

	// user1 never settles after t=0, so everything it earns is its balance
	// times the accumulator delta
	complete := k.GetUser(ctx, poolID, user1.String()).RewardPerTokenComplete

	// user2 joins and leaves while user1 does nothing
	if _, _, err := k.Stake(at(ctx, 10), user2, poolID, 700); err != nil {
		t.Fatalf("stake user2: %v", err)
	}
	if _, _, err := k.Unstake(at(ctx, 25), user2, poolID, 200); err != nil {
		t.Fatalf("unstake user2: %v", err)
	}
	if _, err := k.ClaimReward(at(ctx, 31), user2, poolID); err != nil {
		t.Fatalf("claim user2: %v", err)
	}

	end := at(ctx, 40)
	rpt, err := k.RewardPerToken(end, poolID)
	if err != nil {
		t.Fatalf("reward per token: %v", err)
	}
	// 10s over 300, 15s over 1000, then 6s and 9s over 800
	if !rpt.Equal(math.NewUint(3_333_333_333 + 1_500_000_000 + 750_000_000 + 1_125_000_000)) {
		t.Errorf("unexpected accumulator %s", rpt)
	}
	want, err := fixedpoint.MulDivU128(300, rpt.Sub(complete), fixedpoint.Precision)
	if err != nil {
		t.Fatalf("mul div: %v", err)
	}
	if got := earned(t, k, end, poolID, user1); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}

	var total uint64
	for _, u := range []sdk.AccAddress{user1, user2} {
		total += earned(t, k, end, poolID, u)
	}
	total += k.GetPool(end, poolID).TotalClaimed
	if total > 4_000 {
		t.Errorf("distributed %d exceeds the 4000 emitted in 40s", total)
	}
}

func TestStakeUnstakeConservation(t *testing.T) {
	k, bank, ctx, poolID := setupPool(t, 12)

	steps := []struct {
		name   string
		owner  sdk.AccAddress
		stake  bool
		amount uint64
		count  uint32
	}{
		{"user1 stakes", user1, true, 500, 1},
		{"user2 stakes", user2, true, 250, 2},
		{"user1 tops up", user1, true, 50, 2},
		{"user2 partial exit", user2, false, 100, 2},
		{"user2 full exit", user2, false, 150, 1},
		{"user1 full exit", user1, false, 550, 0},
		{"user2 returns", user2, true, 10, 1},
	}

	for i, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			c := at(ctx, int64(i))
			var err error
			if step.stake {
				_, _, err = k.Stake(c, step.owner, poolID, step.amount)
			} else {
				_, _, err = k.Unstake(c, step.owner, poolID, step.amount)
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			pool := k.GetPool(c, poolID)
			var sum uint64
			for _, u := range k.GetPoolUsers(c, poolID) {
				sum += u.BalanceStaked
			}
			if sum != pool.TotalStaked {
				t.Errorf("positions sum to %d, pool records %d", sum, pool.TotalStaked)
			}
			if custody := bank.GetBalance(c, StakingVaultAddress(poolID), stakeDenom).Amount.Uint64(); custody != pool.TotalStaked {
				t.Errorf("custody %d, pool records %d", custody, pool.TotalStaked)
			}
			if pool.UserCount != step.count {
				t.Errorf("expected %d users, got %d", step.count, pool.UserCount)
			}
		})
	}
}

func TestPoolErrors(t *testing.T) {
	k, _, ctx, poolID := setupPool(t, 12)
	outsider := sdk.AccAddress([]byte("outsider____________"))
	if _, _, err := k.Stake(ctx, user1, poolID, 100); err != nil {
		t.Fatalf("stake: %v", err)
	}

	testCases := []struct {
		name    string
		run     func() error
		wantErr *errorsmod.Error
	}{
		{
			name:    "stake zero",
			run:     func() error { _, _, err := k.Stake(ctx, user1, poolID, 0); return err },
			wantErr: types.ErrZeroAmount,
		},
		{
			name:    "unstake zero",
			run:     func() error { _, _, err := k.Unstake(ctx, user1, poolID, 0); return err },
			wantErr: types.ErrZeroAmount,
		},
		{
			name:    "unstake more than staked",
			run:     func() error { _, _, err := k.Unstake(ctx, user1, poolID, 101); return err },
			wantErr: types.ErrInsufficientStake,
		},
		{
			name:    "stake more than held",
			run:     func() error { _, _, err := k.Stake(ctx, user2, poolID, 10_001); return err },
			wantErr: types.ErrInsufficientFunds,
		},
		{
			name:    "stake without position",
			run:     func() error { _, _, err := k.Stake(ctx, outsider, poolID, 1); return err },
			wantErr: types.ErrUserNotFound,
		},
		{
			name:    "claim without position",
			run:     func() error { _, err := k.ClaimReward(ctx, outsider, poolID); return err },
			wantErr: types.ErrUserNotFound,
		},
		{
			name:    "fund zero",
			run:     func() error { _, err := k.Fund(ctx, creator, poolID, 0); return err },
			wantErr: types.ErrZeroAmount,
		},
		{
			name:    "fund beyond balance",
			run:     func() error { _, err := k.Fund(ctx, user1, poolID, 1); return err },
			wantErr: types.ErrInsufficientFunds,
		},
		{
			name:    "fund unknown pool",
			run:     func() error { _, err := k.Fund(ctx, creator, "pool-9", 1); return err },
			wantErr: types.ErrPoolNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); !tc.wantErr.Is(err) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	pool := k.GetPool(ctx, poolID)
	if pool.TotalStaked != 100 || pool.UserCount != 1 {
		t.Errorf("failed operations changed the pool: %+v", pool)
	}
}

func TestFundOverflow(t *testing.T) {
	k, bank, ctx := setupKeeper(t)
	mint(t, bank, ctx, creator, rewardDenom, ^uint64(0))

	pool, err := k.InitializePool(ctx, creator, stakeDenom, rewardDenom, 1)
	if err != nil {
		t.Fatalf("initialize pool: %v", err)
	}
	// amount*Precision/1 does not fit u64
	if _, err := k.Fund(ctx, creator, pool.PoolID, ^uint64(0)); !types.ErrArithmeticOverflow.Is(err) {
		t.Errorf("expected ErrArithmeticOverflow, got %v", err)
	}
	if got := k.GetPool(ctx, pool.PoolID); got.RewardRate != 0 || got.TotalFunded != 0 {
		t.Errorf("failed fund changed the pool: %+v", got)
	}
}

func TestGenesisRoundTrip(t *testing.T) {
	k, _, ctx, poolID := setupPool(t, 12)
	if _, err := k.Fund(ctx, creator, poolID, 1200); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, _, err := k.Stake(ctx, user1, poolID, 300); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if _, _, err := k.Stake(at(ctx, 3), user2, poolID, 100); err != nil {
		t.Fatalf("stake: %v", err)
	}

	gs := k.ExportGenesis(ctx)
	if err := gs.Validate(); err != nil {
		t.Fatalf("exported genesis invalid: %v", err)
	}
	if gs.NextSequence != 2 || len(gs.Pools) != 1 || len(gs.Users) != 2 {
		t.Fatalf("unexpected export: %+v", gs)
	}

	k2, _, ctx2 := setupKeeper(t)
	k2.InitGenesis(ctx2, *gs)
	got := k2.GetPool(ctx2, poolID)
	if got == nil || got.TotalStaked != 400 || !got.RewardPerTokenStored.Equal(gs.Pools[0].RewardPerTokenStored) {
		t.Errorf("pool not restored: %+v", got)
	}
	if next, err := k2.InitializePool(ctx2, creator, stakeDenom, rewardDenom, 5); err != nil || next.PoolID != "pool-2" {
		t.Errorf("expected pool-2 after import, got %v (%v)", next, err)
	}

	bad := *gs
	bad.Users = gs.Users[:1]
	if err := bad.Validate(); !types.ErrInvalidGenesis.Is(err) {
		t.Errorf("expected ErrInvalidGenesis for mismatched stake, got %v", err)
	}
}
