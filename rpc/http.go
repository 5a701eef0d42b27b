package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"

	"stakevault/native/staking"
	"stakevault/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the staking engine over a minimal JSON-RPC 2.0 surface.
// Mutating methods require the bearer token from STAKEVAULT_RPC_TOKEN when
// one is configured.
type Server struct {
	engine    *staking.Engine
	ledger    staking.TokenLedger
	metrics   *observability.StakingMetrics
	authToken string
}

func NewServer(engine *staking.Engine, ledger staking.TokenLedger) *Server {
	token := strings.TrimSpace(os.Getenv("STAKEVAULT_RPC_TOKEN"))
	return &Server{
		engine:    engine,
		ledger:    ledger,
		metrics:   observability.Metrics(),
		authToken: token,
	}
}

// Handler returns the HTTP handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// Start serves the RPC endpoint on addr and blocks.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	if len(body) > maxRequestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, nil, codeInvalidRequest, "request body too large", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", nil)
		return
	}

	switch req.Method {
	case "staking_stake":
		s.handleStake(w, r, &req)
	case "staking_unstake":
		s.handleUnstake(w, r, &req)
	case "staking_previewRewards":
		s.handlePreviewRewards(w, &req)
	case "staking_getDeposit":
		s.handleGetDeposit(w, &req)
	case "staking_listDeposits":
		s.handleListDeposits(w, &req)
	case "staking_getTerms":
		s.handleGetTerms(w, &req)
	case "staking_setTermDurations":
		s.handleSetTermDurations(w, r, &req)
	case "staking_setTermYields":
		s.handleSetTermYields(w, r, &req)
	case "token_getBalance":
		s.handleGetBalance(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid parameter object")
	}
	return nil
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func parseOptionalAmount(raw string) (*big.Int, bool) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	return value, ok
}

// failureReason condenses engine errors into the metric label space.
func failureReason(err error) string {
	switch {
	case errors.Is(err, staking.ErrInvalidTerm):
		return "invalid_term"
	case errors.Is(err, staking.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, staking.ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, staking.ErrNotOwner):
		return "not_owner"
	case errors.Is(err, staking.ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, staking.ErrTermNotElapsed):
		return "term_not_elapsed"
	case errors.Is(err, staking.ErrInsufficientRewardCustody):
		return "insufficient_custody"
	case errors.Is(err, staking.ErrInvalidConfigurationSize):
		return "invalid_configuration"
	case errors.Is(err, staking.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, staking.ErrDepositNotFound):
		return "not_found"
	default:
		return "error"
	}
}
