package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/creator-staking/api"
	"github.com/openalpha/creator-staking/api/handlers"
	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

var (
	alice   = sdk.AccAddress([]byte("alice_______________")).String()
	creator = sdk.AccAddress([]byte("creator_____________")).String()
)

type testServer struct {
	t      *testing.T
	router *mux.Router
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{t: t, now: time.Unix(1_700_000_000, 0)}
	svc, err := api.NewService(log.NewNopLogger(), api.WithClock(func() time.Time { return ts.now }))
	require.NoError(t, err)

	ts.router = mux.NewRouter()
	handlers.NewStakingHandler(svc, true).RegisterRoutes(ts.router)
	return ts
}

func (ts *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) expect(method, path string, body interface{}, status int) map[string]interface{} {
	rec := ts.do(method, path, body)
	require.Equal(ts.t, status, rec.Code, "%s %s: %s", method, path, rec.Body.String())
	out := map[string]interface{}{}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStakingScenario(t *testing.T) {
	ts := newTestServer(t)
	shareDenom := basestakingtypes.ShareDenom("ucreator")

	ts.expect(http.MethodPost, "/v1/faucet", map[string]string{"address": alice, "denom": "ucreator", "amount": "1000"}, http.StatusOK)
	ts.expect(http.MethodPost, "/v1/faucet", map[string]string{"address": creator, "denom": "ucreator", "amount": "100"}, http.StatusOK)
	ts.expect(http.MethodPost, "/v1/faucet", map[string]string{"address": creator, "denom": "ureward", "amount": "1200"}, http.StatusOK)

	// vault: stake 1000, fund 100 -> rate 1.1
	res := ts.expect(http.MethodPost, "/v1/vaults",
		basestakingtypes.MsgInitializeVault{Creator: creator, UnderlyingDenom: "ucreator"}, http.StatusCreated)
	require.Equal(t, shareDenom, res["share_denom"])

	res = ts.expect(http.MethodPost, "/v1/vaults/ucreator/stake",
		basestakingtypes.MsgStake{Staker: alice, Amount: "1000"}, http.StatusOK)
	require.Equal(t, "1000", res["shares_minted"])

	res = ts.expect(http.MethodPost, "/v1/vaults/ucreator/fund",
		basestakingtypes.MsgFundVault{Funder: creator, Amount: "100"}, http.StatusOK)
	require.Equal(t, "1100", res["total_underlying"])

	res = ts.expect(http.MethodGet, "/v1/vaults/ucreator/estimate/unstake?shares=500", nil, http.StatusOK)
	require.Equal(t, "550", res["amount"])

	res = ts.expect(http.MethodGet, "/v1/vaults", nil, http.StatusOK)
	require.EqualValues(t, 1, res["total"])

	// pool over the share token, 1200 reward over 12s
	res = ts.expect(http.MethodPost, "/v1/pools", creatorpooltypes.MsgInitializePool{
		Authority:      creator,
		StakingDenom:   shareDenom,
		RewardDenom:    "ureward",
		RewardDuration: 12,
	}, http.StatusCreated)
	poolID := res["pool_id"].(string)
	base := "/v1/pools/" + poolID

	ts.expect(http.MethodPost, base+"/users", creatorpooltypes.MsgCreateUser{Owner: alice}, http.StatusCreated)
	ts.expect(http.MethodPost, base+"/fund", creatorpooltypes.MsgFund{Funder: creator, Amount: "1200"}, http.StatusOK)
	res = ts.expect(http.MethodPost, base+"/stake", creatorpooltypes.MsgStake{Owner: alice, Amount: "200"}, http.StatusOK)
	require.Equal(t, "200", res["total_staked"])

	ts.now = ts.now.Add(3 * time.Second)

	res = ts.expect(http.MethodGet, base+"/users/"+alice, nil, http.StatusOK)
	require.EqualValues(t, 300, res["earned"])
	staked := res["staked_value"].(map[string]interface{})
	require.EqualValues(t, 220, staked["underlying_value"])

	res = ts.expect(http.MethodGet, "/v1/pools?active=true", nil, http.StatusOK)
	require.EqualValues(t, 1, res["total"])

	res = ts.expect(http.MethodGet, base+"/leaderboard?limit=5", nil, http.StatusOK)
	stakers := res["stakers"].([]interface{})
	require.Len(t, stakers, 1)

	res = ts.expect(http.MethodPost, base+"/claim", creatorpooltypes.MsgClaimReward{Owner: alice}, http.StatusOK)
	require.Equal(t, "300", res["claimed"])

	res = ts.expect(http.MethodGet, "/v1/accounts/"+alice+"/balances/ureward", nil, http.StatusOK)
	require.Equal(t, "300", res["amount"])

	// past the window end the pool drops out of the active list
	ts.now = ts.now.Add(20 * time.Second)
	res = ts.expect(http.MethodGet, "/v1/pools?active=true", nil, http.StatusOK)
	require.EqualValues(t, 0, res["total"])
}

func TestErrorStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.expect(http.MethodPost, "/v1/faucet", map[string]string{"address": alice, "denom": "ucreator", "amount": "10"}, http.StatusOK)
	ts.expect(http.MethodPost, "/v1/vaults",
		basestakingtypes.MsgInitializeVault{Creator: alice, UnderlyingDenom: "ucreator"}, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"unknown vault", http.MethodGet, "/v1/vaults/unknown", nil, http.StatusNotFound},
		{"unknown pool", http.MethodGet, "/v1/pools/missing", nil, http.StatusNotFound},
		{"duplicate vault", http.MethodPost, "/v1/vaults",
			basestakingtypes.MsgInitializeVault{Creator: alice, UnderlyingDenom: "ucreator"}, http.StatusConflict},
		{"zero stake", http.MethodPost, "/v1/vaults/ucreator/stake",
			basestakingtypes.MsgStake{Staker: alice, Amount: "0"}, http.StatusBadRequest},
		{"bad address", http.MethodPost, "/v1/vaults/ucreator/stake",
			basestakingtypes.MsgStake{Staker: "nope", Amount: "1"}, http.StatusBadRequest},
		{"overdrawn stake", http.MethodPost, "/v1/vaults/ucreator/stake",
			basestakingtypes.MsgStake{Staker: alice, Amount: "11"}, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/v1/vaults/ucreator/stake",
			map[string]string{"staker": alice, "amount": "1", "extra": "x"}, http.StatusBadRequest},
		{"missing estimate amount", http.MethodGet, "/v1/vaults/ucreator/estimate/stake", nil, http.StatusBadRequest},
		{"zero duration pool", http.MethodPost, "/v1/pools", creatorpooltypes.MsgInitializePool{
			Authority: alice, StakingDenom: "ucreator", RewardDenom: "ureward",
		}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(tc.method, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestFaucetDisabled(t *testing.T) {
	svc, err := api.NewService(log.NewNopLogger())
	require.NoError(t, err)
	r := mux.NewRouter()
	handlers.NewStakingHandler(svc, false).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/v1/faucet", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
