package rpc

import (
	"net/http"
)

type registryMintParams struct {
	Caller      string `json:"caller"`
	Owner       string `json:"owner"`
	MetadataURI string `json:"metadataURI"`
}

type registryMintResult struct {
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleRegistryMint(w http.ResponseWriter, req *RPCRequest) {
	var params registryMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	assetID, err := s.node.MintAsset(caller, owner, params.MetadataURI)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, registryMintResult{AssetID: assetID})
}

type registryTransferParams struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleRegistryTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params registryTransferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
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
	if err := s.node.TransferAsset(caller, from, to, params.AssetID); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type registryApproveParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	AssetID  uint64 `json:"assetId"`
}

func (s *Server) handleRegistryApprove(w http.ResponseWriter, req *RPCRequest) {
	var params registryApproveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	operator, err := parseAddress(params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.ApproveAsset(caller, operator, params.AssetID); err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

type assetIDParams struct {
	AssetID uint64 `json:"assetId"`
}

type assetResult struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	MetadataURI string `json:"metadataURI"`
}

func (s *Server) handleRegistryGetAsset(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := s.node.GetAsset(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult{
		ID:          asset.ID,
		Owner:       asset.Owner.String(),
		MetadataURI: asset.MetadataURI,
	})
}

func (s *Server) handleRegistryOwnerOf(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := s.node.AssetOwner(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"owner": owner.String()})
}

type ownerParams struct {
	Owner string `json:"owner"`
}

func (s *Server) handleRegistryAssetsOf(w http.ResponseWriter, req *RPCRequest) {
	var params ownerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	assets, err := s.node.AssetsOwnedBy(owner)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	if assets == nil {
		assets = []uint64{}
	}
	writeResult(w, req.ID, map[string][]uint64{"assetIds": assets})
}
