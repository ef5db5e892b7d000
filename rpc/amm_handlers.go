package rpc

import (
	"math/big"
	"net/http"

	"watchvault/crypto"
	"watchvault/native/amm"
)

type swapFunc func(trader crypto.Address, assetID uint64, amountIn, minOut *big.Int) (*big.Int, error)

type ammCreatePoolParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	TokenID uint64 `json:"tokenId"`
	FeeBps  uint64 `json:"feeBps"`
	Admin   string `json:"admin"`
}

func (s *Server) handleAMMCreatePool(w http.ResponseWriter, req *RPCRequest) {
	var params ammCreatePoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	admin, err := parseAddress(params.Admin)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.CreateAMMPool(caller, params.AssetID, params.TokenID, params.FeeBps, admin); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type ammAddLiquidityParams struct {
	Provider       string `json:"provider"`
	AssetID        uint64 `json:"assetId"`
	FractionAmount string `json:"fractionAmount"`
	USDCAmount     string `json:"usdcAmount"`
}

func (s *Server) handleAMMAddLiquidity(w http.ResponseWriter, req *RPCRequest) {
	var params ammAddLiquidityParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	provider, err := parseAddress(params.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fractionAmount, err := parseAmount(params.FractionAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	usdcAmount, err := parseAmount(params.USDCAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := s.node.AddLiquidity(provider, params.AssetID, fractionAmount, usdcAmount)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"lpShares": shares.String()})
}

type ammRemoveLiquidityParams struct {
	Provider string `json:"provider"`
	AssetID  uint64 `json:"assetId"`
	Shares   string `json:"shares"`
}

func (s *Server) handleAMMRemoveLiquidity(w http.ResponseWriter, req *RPCRequest) {
	var params ammRemoveLiquidityParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	provider, err := parseAddress(params.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := parseAmount(params.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fractionOut, usdcOut, err := s.node.RemoveLiquidity(provider, params.AssetID, shares)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"fractionOut": fractionOut.String(),
		"usdcOut":     usdcOut.String(),
	})
}

type ammSwapParams struct {
	Trader   string `json:"trader"`
	AssetID  uint64 `json:"assetId"`
	AmountIn string `json:"amountIn"`
	MinOut   string `json:"minOut"`
}

func (s *Server) handleAMMSwapUSDCForFraction(w http.ResponseWriter, req *RPCRequest) {
	s.handleSwap(w, req, s.node.SwapUSDCForFraction)
}

func (s *Server) handleAMMSwapFractionForUSDC(w http.ResponseWriter, req *RPCRequest) {
	s.handleSwap(w, req, s.node.SwapFractionForUSDC)
}

func (s *Server) handleSwap(w http.ResponseWriter, req *RPCRequest, swap swapFunc) {
	var params ammSwapParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	trader, err := parseAddress(params.Trader)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountIn, err := parseAmount(params.AmountIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minOut, err := parseAmount(params.MinOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountOut, err := swap(trader, params.AssetID, amountIn, minOut)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amountOut": amountOut.String()})
}

type ammPoolResult struct {
	AssetID         uint64 `json:"assetId"`
	TokenID         uint64 `json:"tokenId"`
	FractionReserve string `json:"fractionReserve"`
	USDCReserve     string `json:"usdcReserve"`
	TotalLPShares   string `json:"totalLPShares"`
	FeeBps          uint64 `json:"feeBps"`
	Admin           string `json:"admin"`
}

func poolToResult(pool *amm.Pool) ammPoolResult {
	return ammPoolResult{
		AssetID:         pool.AssetID,
		TokenID:         pool.TokenID,
		FractionReserve: pool.FractionReserve.String(),
		USDCReserve:     pool.USDCReserve.String(),
		TotalLPShares:   pool.TotalLPShares.String(),
		FeeBps:          pool.FeeBps,
		Admin:           pool.Admin.String(),
	}
}

func (s *Server) handleAMMGetPool(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := s.node.GetAMMPool(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, poolToResult(pool))
}

func (s *Server) handleAMMListPools(w http.ResponseWriter, req *RPCRequest) {
	pools, err := s.node.ListAMMPools()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	results := make([]ammPoolResult, 0, len(pools))
	for _, pool := range pools {
		results = append(results, poolToResult(pool))
	}
	writeResult(w, req.ID, results)
}

type ammLPBalanceParams struct {
	AssetID  uint64 `json:"assetId"`
	Provider string `json:"provider"`
}

func (s *Server) handleAMMLPBalance(w http.ResponseWriter, req *RPCRequest) {
	var params ammLPBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	provider, err := parseAddress(params.Provider)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.LPBalance(params.AssetID, provider)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"lpShares": balance.String()})
}
