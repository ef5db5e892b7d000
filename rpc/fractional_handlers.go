package rpc

import (
	"net/http"
)

type fractionalizeParams struct {
	Caller      string `json:"caller"`
	AssetID     uint64 `json:"assetId"`
	TotalShares string `json:"totalShares"`
}

func (s *Server) handleFractionalize(w http.ResponseWriter, req *RPCRequest) {
	var params fractionalizeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	totalShares, err := parseAmount(params.TotalShares)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := s.node.Fractionalize(caller, params.AssetID, totalShares)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"tokenId": tokenID})
}

type redeemParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, req *RPCRequest) {
	var params redeemParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.Redeem(caller, params.AssetID); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGetFractionalizer(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := s.node.GetFractionalizer(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"tokenId": tokenID})
}

type tokenIDParams struct {
	TokenID uint64 `json:"tokenId"`
}

type fractionTokenResult struct {
	ID          uint64 `json:"id"`
	AssetID     uint64 `json:"assetId"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
}

func (s *Server) handleGetFractionToken(w http.ResponseWriter, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	token, err := s.node.GetFractionToken(params.TokenID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, fractionTokenResult{
		ID:          token.ID,
		AssetID:     token.AssetID,
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		TotalSupply: token.TotalSupply.String(),
	})
}

type fractionTransferParams struct {
	Caller  string `json:"caller"`
	TokenID uint64 `json:"tokenId"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

func (s *Server) handleFractionTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params fractionTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FractionTransfer(caller, params.TokenID, to, amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type fractionApproveParams struct {
	Owner   string `json:"owner"`
	TokenID uint64 `json:"tokenId"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

func (s *Server) handleFractionApprove(w http.ResponseWriter, req *RPCRequest) {
	var params fractionApproveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FractionApprove(owner, params.TokenID, spender, amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type fractionTransferFromParams struct {
	Spender string `json:"spender"`
	TokenID uint64 `json:"tokenId"`
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  string `json:"amount"`
}

func (s *Server) handleFractionTransferFrom(w http.ResponseWriter, req *RPCRequest) {
	var params fractionTransferFromParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	from, err := parseAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FractionTransferFrom(spender, params.TokenID, from, to, amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type fractionBalanceParams struct {
	TokenID uint64 `json:"tokenId"`
	Address string `json:"address"`
}

func (s *Server) handleFractionBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params fractionBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.FractionBalanceOf(params.TokenID, addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

type fractionAllowanceParams struct {
	TokenID uint64 `json:"tokenId"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleFractionAllowance(w http.ResponseWriter, req *RPCRequest) {
	var params fractionAllowanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	spender, err := parseAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	allowance, err := s.node.FractionAllowance(params.TokenID, owner, spender)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"allowance": allowance.String()})
}

func (s *Server) handleFractionTotalSupply(w http.ResponseWriter, req *RPCRequest) {
	var params tokenIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	supply, err := s.node.FractionTotalSupply(params.TokenID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": supply.String()})
}
