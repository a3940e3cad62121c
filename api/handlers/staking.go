package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/openalpha/creator-staking/api/types"
	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

const (
	defaultPageLimit        = 20
	maxPageLimit            = 200
	defaultLeaderboardLimit = 10
)

// StakingHandler serves the vault, pool and account endpoints
type StakingHandler struct {
	service      types.StakingService
	enableFaucet bool
}

// NewStakingHandler creates a new StakingHandler
func NewStakingHandler(service types.StakingService, enableFaucet bool) *StakingHandler {
	return &StakingHandler{service: service, enableFaucet: enableFaucet}
}

// RegisterRoutes registers the staking API routes
func (h *StakingHandler) RegisterRoutes(r *mux.Router) {
	// Vault routes
	r.HandleFunc("/v1/vaults", h.GetVaults).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults", h.InitializeVault).Methods(http.MethodPost)
	r.HandleFunc("/v1/vaults/{denom}", h.GetVault).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults/{denom}/positions/{owner}", h.GetVaultPosition).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults/{denom}/estimate/stake", h.EstimateStake).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults/{denom}/estimate/unstake", h.EstimateUnstake).Methods(http.MethodGet)
	r.HandleFunc("/v1/vaults/{denom}/stake", h.StakeVault).Methods(http.MethodPost)
	r.HandleFunc("/v1/vaults/{denom}/unstake", h.UnstakeVault).Methods(http.MethodPost)
	r.HandleFunc("/v1/vaults/{denom}/unstake-all", h.UnstakeAllVault).Methods(http.MethodPost)
	r.HandleFunc("/v1/vaults/{denom}/fund", h.FundVault).Methods(http.MethodPost)
	r.HandleFunc("/v1/vaults/{denom}/staking-reward", h.SendStakingReward).Methods(http.MethodPost)

	// Pool routes
	r.HandleFunc("/v1/pools", h.GetPools).Methods(http.MethodGet)
	r.HandleFunc("/v1/pools", h.InitializePool).Methods(http.MethodPost)
	r.HandleFunc("/v1/pools/{poolId}", h.GetPool).Methods(http.MethodGet)
	r.HandleFunc("/v1/pools/{poolId}/users", h.GetPoolUsers).Methods(http.MethodGet)
	r.HandleFunc("/v1/pools/{poolId}/users", h.CreateUser).Methods(http.MethodPost)
	r.HandleFunc("/v1/pools/{poolId}/users/{owner}", h.GetUserPosition).Methods(http.MethodGet)
	r.HandleFunc("/v1/pools/{poolId}/leaderboard", h.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/v1/pools/{poolId}/fund", h.FundPool).Methods(http.MethodPost)
	r.HandleFunc("/v1/pools/{poolId}/stake", h.StakePool).Methods(http.MethodPost)
	r.HandleFunc("/v1/pools/{poolId}/unstake", h.UnstakePool).Methods(http.MethodPost)
	r.HandleFunc("/v1/pools/{poolId}/claim", h.ClaimReward).Methods(http.MethodPost)

	// Account routes
	r.HandleFunc("/v1/accounts/{address}/balances/{denom}", h.GetBalance).Methods(http.MethodGet)
	if h.enableFaucet {
		r.HandleFunc("/v1/faucet", h.Faucet).Methods(http.MethodPost)
	}
}

// decode reads a JSON body into v, reporting a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// pagination parses offset and limit query parameters
func pagination(r *http.Request) (offset, limit uint64) {
	q := r.URL.Query()
	offset, _ = strconv.ParseUint(q.Get("offset"), 10, 64)
	limit, _ = strconv.ParseUint(q.Get("limit"), 10, 64)
	if limit == 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

// queryAmount parses a required positive integer query parameter
func queryAmount(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Query parameter "+name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

// ============================================================================
// Vaults
// ============================================================================

// GetVaults returns a page of vaults
func (h *StakingHandler) GetVaults(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	vaults, total, err := h.service.Vaults(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vaults": vaults,
		"total":  total,
	})
}

// GetVault returns a single vault
func (h *StakingHandler) GetVault(w http.ResponseWriter, r *http.Request) {
	vault, err := h.service.Vault(r.Context(), mux.Vars(r)["denom"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vault)
}

// GetVaultPosition returns an owner's share position
func (h *StakingHandler) GetVaultPosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pos, err := h.service.VaultPosition(r.Context(), vars["denom"], vars["owner"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// EstimateStake previews the shares an amount would mint
func (h *StakingHandler) EstimateStake(w http.ResponseWriter, r *http.Request) {
	amount, ok := queryAmount(w, r, "amount")
	if !ok {
		return
	}
	shares, err := h.service.EstimateStake(r.Context(), mux.Vars(r)["denom"], amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"amount": strconv.FormatUint(amount, 10),
		"shares": strconv.FormatUint(shares, 10),
	})
}

// EstimateUnstake previews the underlying shares would redeem
func (h *StakingHandler) EstimateUnstake(w http.ResponseWriter, r *http.Request) {
	shares, ok := queryAmount(w, r, "shares")
	if !ok {
		return
	}
	amount, err := h.service.EstimateUnstake(r.Context(), mux.Vars(r)["denom"], shares)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"shares": strconv.FormatUint(shares, 10),
		"amount": strconv.FormatUint(amount, 10),
	})
}

// InitializeVault creates a vault
func (h *StakingHandler) InitializeVault(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgInitializeVault
	if !decode(w, r, &msg) {
		return
	}
	res, err := h.service.InitializeVault(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// StakeVault deposits underlying for shares
func (h *StakingHandler) StakeVault(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgStake
	if !decode(w, r, &msg) {
		return
	}
	msg.UnderlyingDenom = mux.Vars(r)["denom"]
	res, err := h.service.StakeVault(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UnstakeVault redeems shares
func (h *StakingHandler) UnstakeVault(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgUnstake
	if !decode(w, r, &msg) {
		return
	}
	msg.UnderlyingDenom = mux.Vars(r)["denom"]
	res, err := h.service.UnstakeVault(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UnstakeAllVault redeems every share the staker holds
func (h *StakingHandler) UnstakeAllVault(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgUnstakeAll
	if !decode(w, r, &msg) {
		return
	}
	msg.UnderlyingDenom = mux.Vars(r)["denom"]
	res, err := h.service.UnstakeAllVault(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// FundVault adds yield to a vault
func (h *StakingHandler) FundVault(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgFundVault
	if !decode(w, r, &msg) {
		return
	}
	msg.UnderlyingDenom = mux.Vars(r)["denom"]
	res, err := h.service.FundVault(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SendStakingReward funds one APY period. Omitted parameters fall back to
// the module defaults.
func (h *StakingHandler) SendStakingReward(w http.ResponseWriter, r *http.Request) {
	var msg basestakingtypes.MsgSendStakingReward
	if !decode(w, r, &msg) {
		return
	}
	msg.UnderlyingDenom = mux.Vars(r)["denom"]
	if msg.ApyBps == 0 {
		msg.ApyBps = basestakingtypes.DefaultRewardApyBps
	}
	if msg.PeriodsPerYear == 0 {
		msg.PeriodsPerYear = basestakingtypes.DefaultRewardPeriodsYear
	}
	res, err := h.service.SendStakingReward(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ============================================================================
// Pools
// ============================================================================

// GetPools returns a page of pools; ?active=true lists open reward windows
func (h *StakingHandler) GetPools(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	pools, total, err := h.service.Pools(r.Context(), offset, limit, active)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pools": pools,
		"total": total,
	})
}

// GetPool returns a single pool
func (h *StakingHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.service.Pool(r.Context(), mux.Vars(r)["poolId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// GetPoolUsers returns every position in a pool
func (h *StakingHandler) GetPoolUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.PoolUsers(r.Context(), mux.Vars(r)["poolId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// GetUserPosition returns a position with its claimable reward
func (h *StakingHandler) GetUserPosition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pos, err := h.service.UserPosition(r.Context(), vars["poolId"], vars["owner"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

// GetLeaderboard returns the largest stakers of a pool
func (h *StakingHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := defaultLeaderboardLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxPageLimit {
		n = v
	}
	stakers, err := h.service.TopStakers(r.Context(), mux.Vars(r)["poolId"], n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stakers": stakers,
	})
}

// InitializePool creates a pool
func (h *StakingHandler) InitializePool(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgInitializePool
	if !decode(w, r, &msg) {
		return
	}
	res, err := h.service.InitializePool(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// CreateUser registers an owner in a pool
func (h *StakingHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgCreateUser
	if !decode(w, r, &msg) {
		return
	}
	msg.PoolID = mux.Vars(r)["poolId"]
	res, err := h.service.CreateUser(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// FundPool adds rewards to a pool
func (h *StakingHandler) FundPool(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgFund
	if !decode(w, r, &msg) {
		return
	}
	msg.PoolID = mux.Vars(r)["poolId"]
	res, err := h.service.FundPool(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StakePool stakes into a pool
func (h *StakingHandler) StakePool(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgStake
	if !decode(w, r, &msg) {
		return
	}
	msg.PoolID = mux.Vars(r)["poolId"]
	res, err := h.service.StakePool(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// UnstakePool withdraws stake from a pool
func (h *StakingHandler) UnstakePool(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgUnstake
	if !decode(w, r, &msg) {
		return
	}
	msg.PoolID = mux.Vars(r)["poolId"]
	res, err := h.service.UnstakePool(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClaimReward pays out accrued reward
func (h *StakingHandler) ClaimReward(w http.ResponseWriter, r *http.Request) {
	var msg creatorpooltypes.MsgClaimReward
	if !decode(w, r, &msg) {
		return
	}
	msg.PoolID = mux.Vars(r)["poolId"]
	res, err := h.service.ClaimReward(r.Context(), &msg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ============================================================================
// Accounts
// ============================================================================

// GetBalance returns an account balance
func (h *StakingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	balance, err := h.service.Balance(r.Context(), vars["address"], vars["denom"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// Faucet credits test tokens
func (h *StakingHandler) Faucet(w http.ResponseWriter, r *http.Request) {
	var req types.FaucetRequest
	if !decode(w, r, &req) {
		return
	}
	balance, err := h.service.Faucet(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}
