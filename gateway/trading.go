package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchvault/native/amm"
)

type fractionView struct {
	ID          uint64 `json:"id"`
	AssetID     uint64 `json:"assetId"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply string `json:"totalSupply"`
}

func (h *restHandlers) fractionRoutes(r chi.Router) {
	r.Get("/{tokenID}", h.getFractionToken)
	r.Get("/{tokenID}/balances/{address}", h.getFractionBalance)
}

func (h *restHandlers) getFractionToken(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathID(r, "tokenID")
	if !ok {
		respondBadPath(w, "token id")
		return
	}
	token, err := h.node.GetFractionToken(tokenID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fractionView{
		ID:          token.ID,
		AssetID:     token.AssetID,
		Name:        token.Name,
		Symbol:      token.Symbol,
		Decimals:    token.Decimals,
		TotalSupply: token.TotalSupply.String(),
	})
}

func (h *restHandlers) getFractionBalance(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathID(r, "tokenID")
	if !ok {
		respondBadPath(w, "token id")
		return
	}
	addr, ok := pathAddress(r, "address")
	if !ok {
		respondBadPath(w, "address")
		return
	}
	balance, err := h.node.FractionBalanceOf(tokenID, addr)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

type ammPoolView struct {
	AssetID         uint64 `json:"assetId"`
	TokenID         uint64 `json:"tokenId"`
	FractionReserve string `json:"fractionReserve"`
	USDCReserve     string `json:"usdcReserve"`
	TotalLPShares   string `json:"totalLPShares"`
	FeeBps          uint64 `json:"feeBps"`
	Admin           string `json:"admin"`
}

func newAMMPoolView(pool *amm.Pool) ammPoolView {
	return ammPoolView{
		AssetID:         pool.AssetID,
		TokenID:         pool.TokenID,
		FractionReserve: pool.FractionReserve.String(),
		USDCReserve:     pool.USDCReserve.String(),
		TotalLPShares:   pool.TotalLPShares.String(),
		FeeBps:          pool.FeeBps,
		Admin:           pool.Admin.String(),
	}
}

func (h *restHandlers) ammRoutes(r chi.Router) {
	r.Get("/pools", h.listAMMPools)
	r.Get("/pools/{assetID}", h.getAMMPool)
	r.Get("/pools/{assetID}/lp/{address}", h.getLPBalance)
}

func (h *restHandlers) listAMMPools(w http.ResponseWriter, _ *http.Request) {
	pools, err := h.node.ListAMMPools()
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]ammPoolView, 0, len(pools))
	for _, pool := range pools {
		views = append(views, newAMMPoolView(pool))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *restHandlers) getAMMPool(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	pool, err := h.node.GetAMMPool(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newAMMPoolView(pool))
}

func (h *restHandlers) getLPBalance(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	provider, ok := pathAddress(r, "address")
	if !ok {
		respondBadPath(w, "address")
		return
	}
	balance, err := h.node.LPBalance(assetID, provider)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"lpShares": balance.String()})
}

func (h *restHandlers) bankRoutes(r chi.Router) {
	r.Get("/balances/{address}", h.getBankBalance)
}

func (h *restHandlers) getBankBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(r, "address")
	if !ok {
		respondBadPath(w, "address")
		return
	}
	balance, err := h.node.USDCBalance(addr)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func (h *restHandlers) info(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"height":    h.node.Height(),
		"stateRoot": h.node.StateRoot().Hex(),
	})
}

func (h *restHandlers) events(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.node.Events())
}
