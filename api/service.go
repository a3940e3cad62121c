package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"cosmossdk.io/store"
	storemetrics "cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/codec"
	codectypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/openalpha/creator-staking/api/index"
	"github.com/openalpha/creator-staking/api/types"
	"github.com/openalpha/creator-staking/app"
	"github.com/openalpha/creator-staking/metrics"
	"github.com/openalpha/creator-staking/pkg/kvbank"
	basestakingkeeper "github.com/openalpha/creator-staking/x/basestaking/keeper"
	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpoolkeeper "github.com/openalpha/creator-staking/x/creatorpool/keeper"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

var _ types.StakingService = (*Service)(nil)

// TracerName names the tracer the service reports spans under
const TracerName = "github.com/openalpha/creator-staking/api"

// Publisher receives state updates after each committed mutation
type Publisher interface {
	PublishVault(denom string, vault interface{})
	PublishPool(poolID string, pool interface{})
	PublishPosition(owner string, position interface{})
}

type nopPublisher struct{}

func (nopPublisher) PublishVault(string, interface{})    {}
func (nopPublisher) PublishPool(string, interface{})     {}
func (nopPublisher) PublishPosition(string, interface{}) {}

// Service runs the vault and pool keepers over an in-memory multistore.
// Mutations are serialized; each one sees a fresh block header whose time is
// read once from the service clock.
type Service struct {
	mu     sync.RWMutex
	cms    storetypes.CommitMultiStore
	height int64
	now    func() time.Time

	bank         *kvbank.Keeper
	vaults       *basestakingkeeper.Keeper
	pools        *creatorpoolkeeper.Keeper
	vaultMsgs    *basestakingkeeper.MsgServer
	vaultQueries *basestakingkeeper.QueryServer
	poolMsgs     *creatorpoolkeeper.MsgServer
	poolQueries  *creatorpoolkeeper.QueryServer
	valuer       app.StakeValuer

	index     *index.Index
	publisher Publisher
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    log.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithClock overrides the block time source
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where committed updates are pushed
func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithCollector sets the metrics collector
func WithCollector(c *metrics.Collector) ServiceOption {
	return func(s *Service) { s.collector = c }
}

// NewService creates a Service with empty state
func NewService(logger log.Logger, opts ...ServiceOption) (*Service, error) {
	vaultKey := storetypes.NewKVStoreKey(basestakingtypes.StoreKey)
	poolKey := storetypes.NewKVStoreKey(creatorpooltypes.StoreKey)
	bankKey := storetypes.NewKVStoreKey(kvbank.StoreKey)

	db := dbm.NewMemDB()
	cms := store.NewCommitMultiStore(db, log.NewNopLogger(), storemetrics.NewNoOpMetrics())
	for _, key := range []*storetypes.KVStoreKey{vaultKey, poolKey, bankKey} {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, db)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	cdc := codec.NewProtoCodec(codectypes.NewInterfaceRegistry())
	bank := kvbank.NewKeeper(bankKey, logger)
	vaults := basestakingkeeper.NewKeeper(cdc, vaultKey, bank, logger)
	pools := creatorpoolkeeper.NewKeeper(cdc, poolKey, bank, logger)

	s := &Service{
		cms:          cms,
		now:          time.Now,
		bank:         bank,
		vaults:       vaults,
		pools:        pools,
		vaultMsgs:    basestakingkeeper.NewMsgServerImpl(vaults),
		vaultQueries: basestakingkeeper.NewQueryServerImpl(vaults),
		poolMsgs:     creatorpoolkeeper.NewMsgServerImpl(pools),
		poolQueries:  creatorpoolkeeper.NewQueryServerImpl(pools),
		valuer:       app.NewStakeValuer(vaults, pools),
		index:        index.New(),
		publisher:    nopPublisher{},
		tracer:       otel.Tracer(TracerName),
		logger:       logger.With("module", "api/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Height returns the number of mutations applied so far
func (s *Service) Height() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

func (s *Service) sdkContext(ctx context.Context, height int64) sdk.Context {
	header := cmtproto.Header{Height: height, Time: s.now()}
	return sdk.NewContext(s.cms, header, false, s.logger).WithContext(ctx)
}

// mutate runs fn as the next block. fn goes through a MsgServer, which
// discards all writes when it fails.
func (s *Service) mutate(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(sdk.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attrs...))
	defer span.End()
	timer := metrics.NewTimer()

	s.mu.Lock()
	defer s.mu.Unlock()

	sdkCtx := s.sdkContext(ctx, s.height+1)
	if err := fn(sdkCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recordError(err)
		s.logger.Debug("operation failed", "op", op, "error", err)
		return err
	}
	s.height++
	if s.collector != nil {
		s.collector.UpdateBlockHeight(s.height)
	}
	span.SetAttributes(attribute.Int64("height", s.height))
	s.logger.Debug("operation committed", "op", op, "height", s.height,
		"events", len(sdkCtx.EventManager().Events()), "ms", timer.ElapsedMs())
	return nil
}

// query runs fn against the latest state
func (s *Service) query(ctx context.Context, op string, fn func(sdk.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()

	// the store has no committed snapshots; the read lock is what keeps
	// readers off the working tree while mutate writes to it
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := fn(s.sdkContext(ctx, s.height)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *Service) recordError(err error) {
	if s.collector == nil {
		return
	}
	codespace, code, _ := errors.ABCIInfo(err, false)
	s.collector.RecordOpError(codespace, code)
}

// ============================================================================
// Vault operations
// ============================================================================

// InitializeVault creates a vault for an underlying denom
func (s *Service) InitializeVault(ctx context.Context, msg *basestakingtypes.MsgInitializeVault) (res *basestakingtypes.MsgInitializeVaultResponse, err error) {
	err = s.mutate(ctx, "vault.initialize", vaultAttrs(msg.UnderlyingDenom, msg.Creator), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.InitializeVault(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "initialize", msg.UnderlyingDenom, "")
		return nil
	})
	return res, err
}

// StakeVault deposits underlying for shares
func (s *Service) StakeVault(ctx context.Context, msg *basestakingtypes.MsgStake) (res *basestakingtypes.MsgStakeResponse, err error) {
	err = s.mutate(ctx, "vault.stake", vaultAttrs(msg.UnderlyingDenom, msg.Staker), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.Stake(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "stake", msg.UnderlyingDenom, msg.Staker)
		return nil
	})
	return res, err
}

// UnstakeVault redeems shares for underlying
func (s *Service) UnstakeVault(ctx context.Context, msg *basestakingtypes.MsgUnstake) (res *basestakingtypes.MsgUnstakeResponse, err error) {
	err = s.mutate(ctx, "vault.unstake", vaultAttrs(msg.UnderlyingDenom, msg.Staker), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.Unstake(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "unstake", msg.UnderlyingDenom, msg.Staker)
		return nil
	})
	return res, err
}

// UnstakeAllVault redeems the staker's entire share balance
func (s *Service) UnstakeAllVault(ctx context.Context, msg *basestakingtypes.MsgUnstakeAll) (res *basestakingtypes.MsgUnstakeResponse, err error) {
	err = s.mutate(ctx, "vault.unstake_all", vaultAttrs(msg.UnderlyingDenom, msg.Staker), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.UnstakeAll(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "unstake", msg.UnderlyingDenom, msg.Staker)
		return nil
	})
	return res, err
}

// FundVault adds yield to a vault without minting shares
func (s *Service) FundVault(ctx context.Context, msg *basestakingtypes.MsgFundVault) (res *basestakingtypes.MsgFundVaultResponse, err error) {
	err = s.mutate(ctx, "vault.fund", vaultAttrs(msg.UnderlyingDenom, msg.Funder), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.FundVault(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "fund", msg.UnderlyingDenom, "")
		return nil
	})
	return res, err
}

// SendStakingReward funds a vault with one period of its configured APY
func (s *Service) SendStakingReward(ctx context.Context, msg *basestakingtypes.MsgSendStakingReward) (res *basestakingtypes.MsgFundVaultResponse, err error) {
	err = s.mutate(ctx, "vault.staking_reward", vaultAttrs(msg.UnderlyingDenom, msg.Funder), func(ctx sdk.Context) error {
		if res, err = s.vaultMsgs.SendStakingReward(ctx, msg); err != nil {
			return err
		}
		s.afterVault(ctx, "fund", msg.UnderlyingDenom, "")
		return nil
	})
	return res, err
}

func vaultAttrs(denom, sender string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("vault.denom", denom),
		attribute.String("sender", sender),
	}
}

// afterVault publishes the committed vault and, if set, owner's position
func (s *Service) afterVault(ctx sdk.Context, op, denom, owner string) {
	vault := s.vaults.GetVault(ctx, denom)
	if vault == nil {
		return
	}
	view := toVault(vault)
	if s.collector != nil {
		rate, _ := vault.ExchangeRate().Float64()
		s.collector.RecordVault(denom, op, vault.TotalUnderlying, vault.TotalShares, rate)
	}
	s.publisher.PublishVault(denom, view)
	if owner == "" {
		return
	}
	if pos, err := s.vaultQueries.Position(ctx, owner, denom); err == nil {
		s.publisher.PublishPosition(owner, pos)
	}
}

func toVault(vault *basestakingtypes.Vault) *types.Vault {
	return &types.Vault{
		Vault:        vault,
		ExchangeRate: vault.ExchangeRate().String(),
		Custody:      basestakingkeeper.VaultAddress(vault.UnderlyingDenom).String(),
	}
}

// Vault returns a vault by underlying denom
func (s *Service) Vault(ctx context.Context, underlyingDenom string) (out *types.Vault, err error) {
	err = s.query(ctx, "vault.get", func(ctx sdk.Context) error {
		vault, err := s.vaultQueries.Vault(ctx, underlyingDenom)
		if err != nil {
			return err
		}
		out = toVault(vault)
		return nil
	})
	return out, err
}

// Vaults returns a page of vaults and the total count
func (s *Service) Vaults(ctx context.Context, offset, limit uint64) (out []*types.Vault, total uint64, err error) {
	err = s.query(ctx, "vault.list", func(ctx sdk.Context) error {
		vaults, n, err := s.vaultQueries.Vaults(ctx, offset, limit)
		if err != nil {
			return err
		}
		total = n
		out = make([]*types.Vault, len(vaults))
		for i, vault := range vaults {
			out[i] = toVault(vault)
		}
		return nil
	})
	return out, total, err
}

// VaultPosition returns owner's share balance and its underlying value
func (s *Service) VaultPosition(ctx context.Context, underlyingDenom, owner string) (out *basestakingtypes.Position, err error) {
	err = s.query(ctx, "vault.position", func(ctx sdk.Context) error {
		out, err = s.vaultQueries.Position(ctx, owner, underlyingDenom)
		return err
	})
	return out, err
}

// EstimateStake returns the shares amount would mint now
func (s *Service) EstimateStake(ctx context.Context, underlyingDenom string, amount uint64) (out uint64, err error) {
	err = s.query(ctx, "vault.estimate_stake", func(ctx sdk.Context) error {
		out, err = s.vaultQueries.EstimateStake(ctx, underlyingDenom, amount)
		return err
	})
	return out, err
}

// EstimateUnstake returns the underlying shares would redeem now
func (s *Service) EstimateUnstake(ctx context.Context, underlyingDenom string, shares uint64) (out uint64, err error) {
	err = s.query(ctx, "vault.estimate_unstake", func(ctx sdk.Context) error {
		out, err = s.vaultQueries.EstimateUnstake(ctx, underlyingDenom, shares)
		return err
	})
	return out, err
}

// ============================================================================
// Pool operations
// ============================================================================

// InitializePool creates a reward pool
func (s *Service) InitializePool(ctx context.Context, msg *creatorpooltypes.MsgInitializePool) (res *creatorpooltypes.MsgInitializePoolResponse, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("pool.staking_denom", msg.StakingDenom),
		attribute.String("pool.reward_denom", msg.RewardDenom),
	}
	err = s.mutate(ctx, "pool.initialize", attrs, func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.InitializePool(ctx, msg); err != nil {
			return err
		}
		s.afterPool(ctx, "initialize", res.PoolID, "")
		return nil
	})
	return res, err
}

// CreateUser registers owner in a pool
func (s *Service) CreateUser(ctx context.Context, msg *creatorpooltypes.MsgCreateUser) (res *creatorpooltypes.MsgCreateUserResponse, err error) {
	err = s.mutate(ctx, "pool.create_user", poolAttrs(msg.PoolID, msg.Owner), func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.CreateUser(ctx, msg); err != nil {
			return err
		}
		s.afterPool(ctx, "create_user", msg.PoolID, msg.Owner)
		return nil
	})
	return res, err
}

// FundPool adds rewards and restarts the reward window
func (s *Service) FundPool(ctx context.Context, msg *creatorpooltypes.MsgFund) (res *creatorpooltypes.MsgFundResponse, err error) {
	err = s.mutate(ctx, "pool.fund", poolAttrs(msg.PoolID, msg.Funder), func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.Fund(ctx, msg); err != nil {
			return err
		}
		if s.collector != nil {
			amount, _ := creatorpooltypes.ParseAmount(msg.Amount)
			s.collector.RecordRewardFunded(msg.PoolID, amount)
		}
		s.afterPool(ctx, "fund", msg.PoolID, "")
		return nil
	})
	return res, err
}

// StakePool stakes into a pool
func (s *Service) StakePool(ctx context.Context, msg *creatorpooltypes.MsgStake) (res *creatorpooltypes.MsgStakeResponse, err error) {
	err = s.mutate(ctx, "pool.stake", poolAttrs(msg.PoolID, msg.Owner), func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.Stake(ctx, msg); err != nil {
			return err
		}
		s.afterPool(ctx, "stake", msg.PoolID, msg.Owner)
		return nil
	})
	return res, err
}

// UnstakePool withdraws stake from a pool
func (s *Service) UnstakePool(ctx context.Context, msg *creatorpooltypes.MsgUnstake) (res *creatorpooltypes.MsgUnstakeResponse, err error) {
	err = s.mutate(ctx, "pool.unstake", poolAttrs(msg.PoolID, msg.Owner), func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.Unstake(ctx, msg); err != nil {
			return err
		}
		s.afterPool(ctx, "unstake", msg.PoolID, msg.Owner)
		return nil
	})
	return res, err
}

// ClaimReward pays out owner's accrued reward
func (s *Service) ClaimReward(ctx context.Context, msg *creatorpooltypes.MsgClaimReward) (res *creatorpooltypes.MsgClaimRewardResponse, err error) {
	err = s.mutate(ctx, "pool.claim", poolAttrs(msg.PoolID, msg.Owner), func(ctx sdk.Context) error {
		if res, err = s.poolMsgs.ClaimReward(ctx, msg); err != nil {
			return err
		}
		if s.collector != nil {
			claimed, _ := creatorpooltypes.ParseAmount(res.Claimed)
			s.collector.RecordRewardClaimed(msg.PoolID, claimed)
		}
		s.afterPool(ctx, "claim", msg.PoolID, msg.Owner)
		return nil
	})
	return res, err
}

func poolAttrs(poolID, sender string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pool.id", poolID),
		attribute.String("sender", sender),
	}
}

// afterPool refreshes the index and publishes the committed pool and, if
// set, owner's position.
func (s *Service) afterPool(ctx sdk.Context, op, poolID, owner string) {
	pool := s.pools.GetPool(ctx, poolID)
	if pool == nil {
		return
	}
	now := ctx.BlockTime().Unix()
	s.index.UpsertPool(poolID, pool.RewardDurationEnd)
	if s.collector != nil {
		s.collector.RecordPool(poolID, op, pool.TotalStaked, pool.RewardRatePerSecond(), pool.UserCount)
	}
	s.publisher.PublishPool(poolID, toPool(pool, now))

	if owner == "" {
		return
	}
	user := s.pools.GetUser(ctx, poolID, owner)
	if user == nil {
		return
	}
	s.index.SetStake(poolID, owner, user.BalanceStaked)
	if pos, err := s.userPosition(ctx, poolID, owner); err == nil {
		s.publisher.PublishPosition(owner, pos)
	}
}

func toPool(pool *creatorpooltypes.Pool, now int64) *types.Pool {
	out := &types.Pool{
		Pool:                pool,
		RewardPerToken:      pool.RewardPerTokenStored.String(),
		RewardRatePerSecond: pool.RewardRatePerSecond(),
		Active:              pool.RewardDurationEnd > now,
		StakingVaultAddress: creatorpoolkeeper.StakingVaultAddress(pool.PoolID).String(),
		RewardVaultAddress:  creatorpoolkeeper.RewardVaultAddress(pool.PoolID).String(),
	}
	if rpt, err := pool.RewardPerToken(now); err == nil {
		out.RewardPerToken = rpt.String()
	}
	if remaining, err := pool.RemainingReward(now); err == nil {
		out.RemainingReward = remaining
	}
	return out
}

func (s *Service) userPosition(ctx sdk.Context, poolID, owner string) (*types.UserPosition, error) {
	user, err := s.poolQueries.UserPosition(ctx, poolID, owner)
	if err != nil {
		return nil, err
	}
	earned, err := s.poolQueries.Earned(ctx, poolID, owner)
	if err != nil {
		return nil, err
	}
	out := &types.UserPosition{UserPosition: user, Earned: earned}
	if value, err := s.valuer.Value(ctx, poolID, owner); err == nil {
		out.StakedValue = value
	}
	return out, nil
}

// Pool returns a pool with values derived at the current clock
func (s *Service) Pool(ctx context.Context, poolID string) (out *types.Pool, err error) {
	err = s.query(ctx, "pool.get", func(ctx sdk.Context) error {
		pool, err := s.poolQueries.Pool(ctx, poolID)
		if err != nil {
			return err
		}
		out = toPool(pool, ctx.BlockTime().Unix())
		return nil
	})
	return out, err
}

// Pools returns a page of pools. activeOnly restricts the listing to pools
// whose reward window is open, soonest-ending first.
func (s *Service) Pools(ctx context.Context, offset, limit uint64, activeOnly bool) (out []*types.Pool, total uint64, err error) {
	err = s.query(ctx, "pool.list", func(ctx sdk.Context) error {
		now := ctx.BlockTime().Unix()
		var pools []*creatorpooltypes.Pool
		if activeOnly {
			ids := s.index.ActivePools(now)
			total = uint64(len(ids))
			for _, id := range page(ids, offset, limit) {
				if pool := s.pools.GetPool(ctx, id); pool != nil {
					pools = append(pools, pool)
				}
			}
		} else {
			pools, total, err = s.poolQueries.Pools(ctx, offset, limit)
			if err != nil {
				return err
			}
		}
		out = make([]*types.Pool, len(pools))
		for i, pool := range pools {
			out[i] = toPool(pool, now)
		}
		return nil
	})
	return out, total, err
}

func page[T any](items []T, offset, limit uint64) []T {
	total := uint64(len(items))
	if offset >= total {
		return nil
	}
	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}
	return items[offset:end]
}

// UserPosition returns owner's pool position with its claimable reward
func (s *Service) UserPosition(ctx context.Context, poolID, owner string) (out *types.UserPosition, err error) {
	err = s.query(ctx, "pool.user", func(ctx sdk.Context) error {
		out, err = s.userPosition(ctx, poolID, owner)
		return err
	})
	return out, err
}

// PoolUsers returns every position in a pool
func (s *Service) PoolUsers(ctx context.Context, poolID string) (out []*creatorpooltypes.UserPosition, err error) {
	err = s.query(ctx, "pool.users", func(ctx sdk.Context) error {
		out, err = s.poolQueries.PoolUsers(ctx, poolID)
		return err
	})
	return out, err
}

// TopStakers returns the n largest stakers of a pool
func (s *Service) TopStakers(ctx context.Context, poolID string, n int) (out []index.Staker, err error) {
	err = s.query(ctx, "pool.leaderboard", func(ctx sdk.Context) error {
		if _, err := s.poolQueries.Pool(ctx, poolID); err != nil {
			return err
		}
		out = s.index.TopStakers(poolID, n)
		return nil
	})
	return out, err
}

// ============================================================================
// Accounts
// ============================================================================

// Balance returns address's balance of denom
func (s *Service) Balance(ctx context.Context, address, denom string) (out *types.Balance, err error) {
	addr, err := sdk.AccAddressFromBech32(address)
	if err != nil {
		return nil, errors.Wrapf(basestakingtypes.ErrInvalidAddress, "%s: %s", address, err)
	}
	err = s.query(ctx, "bank.balance", func(ctx sdk.Context) error {
		coin := s.bank.GetBalance(ctx, addr, denom)
		out = &types.Balance{Address: address, Denom: denom, Amount: coin.Amount.String()}
		return nil
	})
	return out, err
}

// Faucet mints tokens to an address
func (s *Service) Faucet(ctx context.Context, req *types.FaucetRequest) (out *types.Balance, err error) {
	addr, err := sdk.AccAddressFromBech32(req.Address)
	if err != nil {
		return nil, errors.Wrapf(basestakingtypes.ErrInvalidAddress, "%s: %s", req.Address, err)
	}
	if err := sdk.ValidateDenom(req.Denom); err != nil {
		return nil, errors.Wrap(basestakingtypes.ErrInvalidDenom, err.Error())
	}
	// share supply must only ever come from vault stakes
	if basestakingtypes.IsShareDenom(req.Denom) {
		return nil, errors.Wrapf(basestakingtypes.ErrInvalidDenom, "%s is a vault share denom", req.Denom)
	}
	amount, err := basestakingtypes.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{attribute.String("denom", req.Denom), attribute.String("address", req.Address)}
	err = s.mutate(ctx, "bank.faucet", attrs, func(ctx sdk.Context) error {
		coins := sdk.NewCoins(sdk.NewCoin(req.Denom, math.NewIntFromUint64(amount)))
		if err := s.bank.FundAccount(ctx, addr, coins); err != nil {
			return err
		}
		coin := s.bank.GetBalance(ctx, addr, req.Denom)
		out = &types.Balance{Address: req.Address, Denom: req.Denom, Amount: coin.Amount.String()}
		return nil
	})
	return out, err
}
