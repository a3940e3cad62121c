package types

import (
	"context"
	"time"

	"github.com/openalpha/creator-staking/api/index"
	"github.com/openalpha/creator-staking/app"
	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

// Vault is a vault record plus its current exchange rate
type Vault struct {
	*basestakingtypes.Vault
	ExchangeRate string `json:"exchange_rate"`
	Custody      string `json:"custody_address"`
}

// Pool is a pool record plus values derived at the service clock
type Pool struct {
	*creatorpooltypes.Pool
	RewardPerToken      string  `json:"reward_per_token"`
	RewardRatePerSecond float64 `json:"reward_rate_per_second"`
	RemainingReward     uint64  `json:"remaining_reward"`
	Active              bool    `json:"active"`
	StakingVaultAddress string  `json:"staking_vault_address"`
	RewardVaultAddress  string  `json:"reward_vault_address"`
}

// UserPosition is a pool position with its claimable reward and, when the
// pool stakes vault shares, the underlying value of the staked balance.
type UserPosition struct {
	*creatorpooltypes.UserPosition
	Earned      uint64           `json:"earned"`
	StakedValue *app.StakedValue `json:"staked_value,omitempty"`
}

// Balance is an account balance for one denom
type Balance struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// FaucetRequest credits tokens to an address in standalone mode
type FaucetRequest struct {
	Address string `json:"address"`
	Denom   string `json:"denom"`
	Amount  string `json:"amount"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

// VaultService exposes the exchange-rate vault
type VaultService interface {
	InitializeVault(ctx context.Context, msg *basestakingtypes.MsgInitializeVault) (*basestakingtypes.MsgInitializeVaultResponse, error)
	StakeVault(ctx context.Context, msg *basestakingtypes.MsgStake) (*basestakingtypes.MsgStakeResponse, error)
	UnstakeVault(ctx context.Context, msg *basestakingtypes.MsgUnstake) (*basestakingtypes.MsgUnstakeResponse, error)
	UnstakeAllVault(ctx context.Context, msg *basestakingtypes.MsgUnstakeAll) (*basestakingtypes.MsgUnstakeResponse, error)
	FundVault(ctx context.Context, msg *basestakingtypes.MsgFundVault) (*basestakingtypes.MsgFundVaultResponse, error)
	SendStakingReward(ctx context.Context, msg *basestakingtypes.MsgSendStakingReward) (*basestakingtypes.MsgFundVaultResponse, error)

	Vault(ctx context.Context, underlyingDenom string) (*Vault, error)
	Vaults(ctx context.Context, offset, limit uint64) ([]*Vault, uint64, error)
	VaultPosition(ctx context.Context, underlyingDenom, owner string) (*basestakingtypes.Position, error)
	EstimateStake(ctx context.Context, underlyingDenom string, amount uint64) (uint64, error)
	EstimateUnstake(ctx context.Context, underlyingDenom string, shares uint64) (uint64, error)
}

// PoolService exposes the reward accrual pool
type PoolService interface {
	InitializePool(ctx context.Context, msg *creatorpooltypes.MsgInitializePool) (*creatorpooltypes.MsgInitializePoolResponse, error)
	CreateUser(ctx context.Context, msg *creatorpooltypes.MsgCreateUser) (*creatorpooltypes.MsgCreateUserResponse, error)
	FundPool(ctx context.Context, msg *creatorpooltypes.MsgFund) (*creatorpooltypes.MsgFundResponse, error)
	StakePool(ctx context.Context, msg *creatorpooltypes.MsgStake) (*creatorpooltypes.MsgStakeResponse, error)
	UnstakePool(ctx context.Context, msg *creatorpooltypes.MsgUnstake) (*creatorpooltypes.MsgUnstakeResponse, error)
	ClaimReward(ctx context.Context, msg *creatorpooltypes.MsgClaimReward) (*creatorpooltypes.MsgClaimRewardResponse, error)

	Pool(ctx context.Context, poolID string) (*Pool, error)
	Pools(ctx context.Context, offset, limit uint64, activeOnly bool) ([]*Pool, uint64, error)
	UserPosition(ctx context.Context, poolID, owner string) (*UserPosition, error)
	PoolUsers(ctx context.Context, poolID string) ([]*creatorpooltypes.UserPosition, error)
	TopStakers(ctx context.Context, poolID string, n int) ([]index.Staker, error)
}

// AccountService exposes balances held in the standalone bank
type AccountService interface {
	Balance(ctx context.Context, address, denom string) (*Balance, error)
	Faucet(ctx context.Context, req *FaucetRequest) (*Balance, error)
}

// StakingService is everything the HTTP handlers need
type StakingService interface {
	VaultService
	PoolService
	AccountService
}

// NowMillis returns current timestamp in milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
