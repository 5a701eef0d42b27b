package rpc

import (
	"net/http"
	"time"

	"stakevault/crypto"
	"stakevault/native/staking"
)

type stakeParams struct {
	Caller   string `json:"caller"`
	Amount   string `json:"amount"`
	TermDays uint64 `json:"termDays"`
}

type unstakeParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

type previewRewardsParams struct {
	ID        uint64 `json:"id"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type depositIDParams struct {
	ID uint64 `json:"id"`
}

type listDepositsParams struct {
	Owner string `json:"owner"`
}

type setTermsParams struct {
	Caller string   `json:"caller"`
	Values []uint64 `json:"values"`
}

type getBalanceParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params stakeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	dep, err := s.engine.Stake(caller.Array(), amount, params.TermDays)
	if err != nil {
		s.metrics.ObserveFailure("stake", failureReason(err))
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	s.metrics.ObserveStake(dep.Amount)
	writeResult(w, req.ID, depositResponse(dep))
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params unstakeParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	// Capture the outstanding principal before finalization zeroes it; the
	// metric needs the pre-payout value.
	var principal = "0"
	if dep, depErr := s.engine.Deposit(params.ID); depErr == nil && dep.Amount != nil {
		principal = dep.Amount.String()
	}
	total, err := s.engine.Unstake(caller.Array(), params.ID)
	if err != nil {
		s.metrics.ObserveFailure("unstake", failureReason(err))
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if principalAmt, ok := parseOptionalAmount(principal); ok {
		s.metrics.ObserveUnstake(principalAmt, total)
	}
	writeResult(w, req.ID, UnstakeResponse{ID: params.ID, Owner: params.Caller, TotalPaid: total.String()})
}

func (s *Server) handlePreviewRewards(w http.ResponseWriter, req *RPCRequest) {
	var params previewRewardsParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ts := params.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	pending, err := s.engine.PendingRewards(params.ID, ts)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, PreviewRewardsResponse{ID: params.ID, Pending: pending.String(), Timestamp: ts})
}

func (s *Server) handleGetDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params depositIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	dep, err := s.engine.Deposit(params.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, depositResponse(dep))
}

func (s *Server) handleListDeposits(w http.ResponseWriter, req *RPCRequest) {
	var params listDepositsParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := crypto.DecodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	deposits, err := s.engine.DepositsByOwner(owner.Array())
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to list deposits", err.Error())
		return
	}
	out := make([]DepositResponse, 0, len(deposits))
	for _, dep := range deposits {
		out = append(out, depositResponse(dep))
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleGetTerms(w http.ResponseWriter, req *RPCRequest) {
	table, err := s.engine.Terms()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load term table", err.Error())
		return
	}
	writeResult(w, req.ID, TermsResponse{DurationDays: table.DurationDays, YieldPercents: table.YieldPercents})
}

func (s *Server) handleSetTermDurations(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetTerms(w, r, req, s.engine.SetTermDurations)
}

func (s *Server) handleSetTermYields(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	s.handleSetTerms(w, r, req, s.engine.SetTermYields)
}

func (s *Server) handleSetTerms(w http.ResponseWriter, r *http.Request, req *RPCRequest, apply func([20]byte, []uint64) (*staking.TermTable, error)) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params setTermsParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := crypto.DecodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	table, err := apply(caller.Array(), params.Values)
	if err != nil {
		s.metrics.ObserveFailure("setTerms", failureReason(err))
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, TermsResponse{DurationDays: table.DurationDays, YieldPercents: table.YieldPercents})
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params getBalanceParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := crypto.DecodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.ledger.BalanceOf(params.Token, addr.Array())
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, BalanceResponse{Address: params.Address, Token: params.Token, Balance: balance.String()})
}
