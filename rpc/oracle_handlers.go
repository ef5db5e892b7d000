package rpc

import (
	"net/http"
)

type oracleSetPriceParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
	Price   string `json:"price"`
}

func (s *Server) handleOracleSetPrice(w http.ResponseWriter, req *RPCRequest) {
	var params oracleSetPriceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.SetPrice(caller, params.AssetID, price); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type priceResult struct {
	AssetID uint64 `json:"assetId"`
	Price   string `json:"price"`
}

func (s *Server) handleOracleGetPrice(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	price, err := s.node.GetPrice(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, priceResult{AssetID: params.AssetID, Price: price.String()})
}

func (s *Server) handleOracleListPrices(w http.ResponseWriter, req *RPCRequest) {
	quotes, err := s.node.ListPrices()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	results := make([]priceResult, 0, len(quotes))
	for _, quote := range quotes {
		results = append(results, priceResult{AssetID: quote.AssetID, Price: quote.Price.String()})
	}
	writeResult(w, req.ID, results)
}
