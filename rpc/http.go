package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"watchvault/core"
	"watchvault/crypto"
	"watchvault/native/amm"
	"watchvault/native/fractional"
	"watchvault/native/lending"
	"watchvault/native/oracle"
	"watchvault/native/registry"
	"watchvault/observability"
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
	codeNotFound       = -32004
	codeServerError    = -32000
)

// Server exposes the settlement node over JSON-RPC 2.0. Mutating methods
// require the bearer token from WATCHVAULT_RPC_TOKEN (or the configured
// token), read methods are open.
type Server struct {
	node      *core.Node
	authToken string
}

// NewServer builds an RPC server around the node. An empty token falls back
// to the WATCHVAULT_RPC_TOKEN environment variable.
func NewServer(node *core.Node, authToken string) *Server {
	token := strings.TrimSpace(authToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("WATCHVAULT_RPC_TOKEN"))
	}
	return &Server{node: node, authToken: token}
}

// Start serves the RPC endpoint until the listener fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return http.ListenAndServe(addr, mux)
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

// writeModuleError maps engine sentinels onto RPC error codes so callers can
// branch on failure reasons.
func writeModuleError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusBadRequest
	code := codeServerError
	switch {
	case isNotFound(err):
		status = http.StatusNotFound
		code = codeNotFound
	case isUnauthorized(err):
		status = http.StatusForbidden
		code = codeUnauthorized
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func isNotFound(err error) bool {
	return errors.Is(err, registry.ErrNoSuchAsset) ||
		errors.Is(err, oracle.ErrPriceNotSet) ||
		errors.Is(err, lending.ErrNoLoan) ||
		errors.Is(err, lending.ErrNoActiveLoan) ||
		errors.Is(err, fractional.ErrNoVault) ||
		errors.Is(err, fractional.ErrUnknownToken) ||
		errors.Is(err, amm.ErrNoPool)
}

func isUnauthorized(err error) bool {
	return errors.Is(err, registry.ErrUnauthorizedMinter) ||
		errors.Is(err, registry.ErrNotOwner) ||
		errors.Is(err, registry.ErrNotOwnerOrApproved) ||
		errors.Is(err, oracle.ErrUnauthorizedWriter) ||
		errors.Is(err, lending.ErrNotOwner) ||
		errors.Is(err, fractional.ErrNotOwner)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "rpc auth token not configured"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

// decodeParams expects exactly one object parameter and unmarshals it.
func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object, got %d", len(req.Params))
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("invalid address %q: %w", raw, err)
	}
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

// handle routes a JSON-RPC request to the module handlers and records module
// metrics for each call.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	module, _, _ := strings.Cut(req.Method, "_")
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(recorder, r, req)
	observability.ModuleMetrics().Observe(module, req.Method, recorder.status, time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if mutatingMethods[req.Method] {
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
	}

	switch req.Method {
	case "registry_mint":
		s.handleRegistryMint(w, req)
	case "registry_transfer":
		s.handleRegistryTransfer(w, req)
	case "registry_approve":
		s.handleRegistryApprove(w, req)
	case "registry_getAsset":
		s.handleRegistryGetAsset(w, req)
	case "registry_ownerOf":
		s.handleRegistryOwnerOf(w, req)
	case "registry_assetsOf":
		s.handleRegistryAssetsOf(w, req)
	case "oracle_setPrice":
		s.handleOracleSetPrice(w, req)
	case "oracle_getPrice":
		s.handleOracleGetPrice(w, req)
	case "oracle_listPrices":
		s.handleOracleListPrices(w, req)
	case "lending_deposit":
		s.handleLendingDeposit(w, req)
	case "lending_withdraw":
		s.handleLendingWithdraw(w, req)
	case "lending_depositNFTAndBorrow":
		s.handleLendingBorrow(w, req)
	case "lending_repayLoan":
		s.handleLendingRepay(w, req)
	case "lending_getRepaymentAmount":
		s.handleLendingRepaymentAmount(w, req)
	case "lending_getLoan":
		s.handleLendingGetLoan(w, req)
	case "lending_getLender":
		s.handleLendingGetLender(w, req)
	case "lending_getPoolInfo":
		s.handleLendingPoolInfo(w, req)
	case "lending_loanHistory":
		s.handleLendingLoanHistory(w, req)
	case "fractional_fractionalize":
		s.handleFractionalize(w, req)
	case "fractional_redeem":
		s.handleRedeem(w, req)
	case "fractional_getFractionalizer":
		s.handleGetFractionalizer(w, req)
	case "fractional_getToken":
		s.handleGetFractionToken(w, req)
	case "fractional_transfer":
		s.handleFractionTransfer(w, req)
	case "fractional_approve":
		s.handleFractionApprove(w, req)
	case "fractional_transferFrom":
		s.handleFractionTransferFrom(w, req)
	case "fractional_balanceOf":
		s.handleFractionBalanceOf(w, req)
	case "fractional_allowance":
		s.handleFractionAllowance(w, req)
	case "fractional_totalSupply":
		s.handleFractionTotalSupply(w, req)
	case "amm_createPool":
		s.handleAMMCreatePool(w, req)
	case "amm_addLiquidity":
		s.handleAMMAddLiquidity(w, req)
	case "amm_removeLiquidity":
		s.handleAMMRemoveLiquidity(w, req)
	case "amm_swapUSDCForFraction":
		s.handleAMMSwapUSDCForFraction(w, req)
	case "amm_swapFractionForUSDC":
		s.handleAMMSwapFractionForUSDC(w, req)
	case "amm_getPool":
		s.handleAMMGetPool(w, req)
	case "amm_listPools":
		s.handleAMMListPools(w, req)
	case "amm_lpBalance":
		s.handleAMMLPBalance(w, req)
	case "bank_mint":
		s.handleBankMint(w, req)
	case "bank_transfer":
		s.handleBankTransfer(w, req)
	case "bank_getBalance":
		s.handleBankGetBalance(w, req)
	case "wv_getEvents":
		s.handleGetEvents(w, req)
	case "wv_info":
		s.handleInfo(w, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
	}
}

// mutatingMethods lists every method that changes state and therefore
// requires the bearer token.
var mutatingMethods = map[string]bool{
	"registry_mint":               true,
	"registry_transfer":           true,
	"registry_approve":            true,
	"oracle_setPrice":             true,
	"lending_deposit":             true,
	"lending_withdraw":            true,
	"lending_depositNFTAndBorrow": true,
	"lending_repayLoan":           true,
	"fractional_fractionalize":    true,
	"fractional_redeem":           true,
	"fractional_transfer":         true,
	"fractional_approve":          true,
	"fractional_transferFrom":     true,
	"amm_createPool":              true,
	"amm_addLiquidity":            true,
	"amm_removeLiquidity":         true,
	"amm_swapUSDCForFraction":     true,
	"amm_swapFractionForUSDC":     true,
	"bank_mint":                   true,
	"bank_transfer":               true,
}
