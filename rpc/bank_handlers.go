package rpc

import (
	"net/http"
)

type bankMintParams struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (s *Server) handleBankMint(w http.ResponseWriter, req *RPCRequest) {
	var params bankMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MintUSDC(addr, amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type bankTransferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) handleBankTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params bankTransferParams
	if err := decodeParams(req, &params); err != nil {
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
	if err := s.node.TransferUSDC(from, to, amount); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type bankBalanceParams struct {
	Address string `json:"address"`
}

func (s *Server) handleBankGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params bankBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.USDCBalance(addr)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

type infoResult struct {
	Height    uint64 `json:"height"`
	StateRoot string `json:"stateRoot"`
}

func (s *Server) handleInfo(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, infoResult{
		Height:    s.node.Height(),
		StateRoot: s.node.StateRoot().Hex(),
	})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.node.Events())
}
