package handlers

import (
	"encoding/json"
	"net/http"

	"cosmossdk.io/errors"

	"github.com/openalpha/creator-staking/api/types"
	"github.com/openalpha/creator-staking/pkg/fixedpoint"
	basestakingtypes "github.com/openalpha/creator-staking/x/basestaking/types"
	creatorpooltypes "github.com/openalpha/creator-staking/x/creatorpool/types"
)

var (
	badRequestErrors = []error{
		basestakingtypes.ErrInvalidDenom,
		basestakingtypes.ErrInvalidAddress,
		basestakingtypes.ErrInvalidAmount,
		basestakingtypes.ErrInvalidRewardBps,
		basestakingtypes.ErrZeroAmount,
		creatorpooltypes.ErrInvalidDuration,
		creatorpooltypes.ErrInvalidDenom,
		creatorpooltypes.ErrInvalidAddress,
		creatorpooltypes.ErrInvalidAmount,
		creatorpooltypes.ErrZeroAmount,
	}
	notFoundErrors = []error{
		basestakingtypes.ErrVaultNotFound,
		creatorpooltypes.ErrPoolNotFound,
		creatorpooltypes.ErrUserNotFound,
	}
	conflictErrors = []error{
		basestakingtypes.ErrAlreadyExists,
		creatorpooltypes.ErrAlreadyExists,
	}
	unprocessableErrors = []error{
		basestakingtypes.ErrInsufficientFunds,
		basestakingtypes.ErrInsufficientShares,
		basestakingtypes.ErrVaultEmpty,
		basestakingtypes.ErrArithmeticOverflow,
		creatorpooltypes.ErrInsufficientFunds,
		creatorpooltypes.ErrInsufficientStake,
		creatorpooltypes.ErrArithmeticOverflow,
		fixedpoint.ErrOverflow,
		fixedpoint.ErrUnderflow,
		fixedpoint.ErrDivisionByZero,
	}
)

// StatusFor maps a registered module error to an HTTP status
func StatusFor(err error) int {
	switch {
	case errors.IsOf(err, badRequestErrors...):
		return http.StatusBadRequest
	case errors.IsOf(err, notFoundErrors...):
		return http.StatusNotFound
	case errors.IsOf(err, conflictErrors...):
		return http.StatusConflict
	case errors.IsOf(err, unprocessableErrors...):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, &types.ErrorResponse{Error: code, Message: message})
}

// writeServiceError reports a service error with its codespace and code
func writeServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	codespace, code, _ := errors.ABCIInfo(err, false)
	resp := &types.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Codespace: codespace,
		Code:      code,
	}
	if status == http.StatusInternalServerError {
		resp.Message = "internal error"
		resp.Codespace, resp.Code = "", 0
	}
	writeJSON(w, status, resp)
}
